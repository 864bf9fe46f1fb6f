package services

import (
	"context"
	"fmt"
	"time"

	"crm-backend/internal/models"
	"crm-backend/internal/repositories"
	"crm-backend/internal/timeutil"
)

type AMSService struct {
	Repo *repositories.AMSRepository
}

func NewAMSService(repo *repositories.AMSRepository) *AMSService {
	return &AMSService{Repo: repo}
}

func (s *AMSService) CreateContract(ctx context.Context, companyID int, req *models.CreateAMSRequest) (*models.AMSContract, error) {
	if req.CustomerID <= 0 {
		return nil, fmt.Errorf("%w: customerId is required", ErrValidation)
	}
	if req.Product == "" {
		return nil, fmt.Errorf("%w: product is required", ErrValidation)
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrValidation)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: endDate must be YYYY-MM-DD", ErrValidation)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: endDate is before startDate", ErrValidation)
	}

	contract := &models.AMSContract{
		CustomerID:    req.CustomerID,
		CompanyID:     companyID,
		Product:       req.Product,
		StartDate:     start,
		EndDate:       end,
		VisitsPerYear: req.VisitsPerYear,
		Amount:        req.Amount,
		Status:        contractStatus(end),
		Notes:         req.Notes,
	}
	if contract.VisitsPerYear < 1 {
		contract.VisitsPerYear = 1
	}
	if req.NextVisitDate != "" {
		next, err := time.Parse("2006-01-02", req.NextVisitDate)
		if err != nil {
			return nil, fmt.Errorf("%w: nextVisitDate must be YYYY-MM-DD", ErrValidation)
		}
		contract.NextVisitDate = &next
	}

	if err := s.Repo.Create(ctx, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

func (s *AMSService) GetContract(ctx context.Context, companyID, id int) (*models.AMSContract, error) {
	contract, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.CompanyID != companyID {
		return nil, repositories.ErrForbidden
	}
	return contract, nil
}

func (s *AMSService) UpdateContract(ctx context.Context, companyID int, req *models.UpdateAMSRequest) (*models.AMSContract, error) {
	if req.ID <= 0 {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if req.Status != nil && *req.Status != "active" && *req.Status != "expired" {
		return nil, fmt.Errorf("%w: status must be active or expired", ErrValidation)
	}
	return s.Repo.Update(ctx, companyID, req)
}

func (s *AMSService) DeleteContract(ctx context.Context, companyID, id int) error {
	return s.Repo.Delete(ctx, companyID, id)
}

func (s *AMSService) ListContracts(ctx context.Context, companyID, page, rowsPerPage int, search string) ([]*models.AMSContract, int, error) {
	if page < 1 {
		page = 1
	}
	if rowsPerPage < 1 || rowsPerPage > 100 {
		rowsPerPage = 10
	}
	return s.Repo.List(ctx, companyID, page, rowsPerPage, search)
}

func contractStatus(end time.Time) string {
	if end.Before(timeutil.StartOfDay(timeutil.Now())) {
		return "expired"
	}
	return "active"
}
