package services

import (
	"context"
	"fmt"

	"crm-backend/internal/cache"
	"crm-backend/internal/models"
	"crm-backend/internal/repositories"
)

type CustomerService struct {
	Repo *repositories.CustomerRepository
}

func NewCustomerService(repo *repositories.CustomerRepository) *CustomerService {
	return &CustomerService{Repo: repo}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, companyID int, req *models.CreateCustomerRequest) (*models.Customer, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	customer := &models.Customer{
		CompanyID: companyID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
	}
	if err := s.Repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, companyID, id int) (*models.Customer, error) {
	customer, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.CompanyID != companyID {
		return nil, repositories.ErrForbidden
	}
	return customer, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, companyID, page, rowsPerPage int, search string) ([]*models.Customer, int, error) {
	if page < 1 {
		page = 1
	}
	if rowsPerPage < 1 || rowsPerPage > 100 {
		rowsPerPage = 10
	}
	return s.Repo.List(ctx, companyID, page, rowsPerPage, search)
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, companyID int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	if req.ID <= 0 {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if req.Name != nil && *req.Name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}

	customer, err := s.Repo.Update(ctx, companyID, req)
	if err != nil {
		return nil, err
	}
	cache.InvalidateDealTotals(ctx, companyID)
	return customer, nil
}

// DeleteCustomer removes a customer together with all dependent deals,
// payments and AMS contracts.
func (s *CustomerService) DeleteCustomer(ctx context.Context, companyID, id int) error {
	if err := s.Repo.DeleteCascade(ctx, companyID, id); err != nil {
		return err
	}
	cache.InvalidateDealTotals(ctx, companyID)
	return nil
}
