package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"crm-backend/internal/cache"
	"crm-backend/internal/metrics"
	"crm-backend/internal/models"
	"crm-backend/internal/repositories"
)

var (
	ErrValidation = errors.New("validation failed")
)

// DealStore is the slice of the deal repository the service depends on
type DealStore interface {
	Create(ctx context.Context, deal *models.Deal, createdBy *int) error
	Get(ctx context.Context, id int) (*models.Deal, error)
	Update(ctx context.Context, companyID int, req *models.UpdateDealRequest) (*models.Deal, error)
	DeleteCascade(ctx context.Context, companyID, id int) error
	List(ctx context.Context, filter models.ListDealsFilter) ([]*models.Deal, int, error)
	CustomerDealTotals(ctx context.Context, companyID, page, rowsPerPage int, search string) ([]*models.CustomerDealTotals, int, error)
}

type DealService struct {
	Repo DealStore
}

func NewDealService(repo DealStore) *DealService {
	return &DealService{Repo: repo}
}

// CreateDeal validates the request and inserts the deal. The balance is
// always computed server side as approval value minus advance; a caller
// supplied balance is ignored (and logged when it disagrees).
func (s *DealService) CreateDeal(ctx context.Context, companyID int, req *models.CreateDealRequest, createdBy *int) (*models.Deal, error) {
	if req.CustomerID <= 0 {
		return nil, fmt.Errorf("%w: customerId is required", ErrValidation)
	}
	if req.DealValue < 0 || req.DealApprovalValue < 0 || req.AdvancePayment < 0 {
		return nil, fmt.Errorf("%w: amounts must not be negative", ErrValidation)
	}
	if req.AdvancePayment > req.DealApprovalValue {
		return nil, fmt.Errorf("%w: advance payment exceeds approval value", ErrValidation)
	}
	if req.DealApprovalValue > req.DealValue {
		log.Printf("[Deal] approval value %.2f exceeds deal value %.2f for customer %d",
			req.DealApprovalValue, req.DealValue, req.CustomerID)
	}

	balance := req.DealApprovalValue - req.AdvancePayment
	if req.BalanceAmount != 0 && req.BalanceAmount != balance {
		log.Printf("[Deal] ignoring client balance %.2f, computed %.2f", req.BalanceAmount, balance)
	}

	deal := &models.Deal{
		CustomerID:        req.CustomerID,
		CompanyID:         companyID,
		Requirement:       req.Requirement,
		DealValue:         req.DealValue,
		DealApprovalValue: req.DealApprovalValue,
		AdvancePayment:    req.AdvancePayment,
		BalanceAmount:     balance,
	}

	if err := s.Repo.Create(ctx, deal, createdBy); err != nil {
		return nil, err
	}

	metrics.DealsCreated.Inc()
	cache.InvalidateDealTotals(ctx, companyID)
	return deal, nil
}

func (s *DealService) GetDeal(ctx context.Context, companyID, id int) (*models.Deal, error) {
	deal, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if deal.CompanyID != companyID {
		return nil, repositories.ErrForbidden
	}
	return deal, nil
}

func (s *DealService) UpdateDeal(ctx context.Context, companyID int, req *models.UpdateDealRequest) (*models.Deal, error) {
	if req.ID <= 0 {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if req.DealValue != nil && *req.DealValue < 0 {
		return nil, fmt.Errorf("%w: dealValue must not be negative", ErrValidation)
	}
	if req.DealApprovalValue != nil && *req.DealApprovalValue < 0 {
		return nil, fmt.Errorf("%w: dealApprovalValue must not be negative", ErrValidation)
	}

	deal, err := s.Repo.Update(ctx, companyID, req)
	if err != nil {
		return nil, err
	}
	cache.InvalidateDealTotals(ctx, companyID)
	return deal, nil
}

func (s *DealService) DeleteDeal(ctx context.Context, companyID, id int) error {
	if err := s.Repo.DeleteCascade(ctx, companyID, id); err != nil {
		return err
	}
	cache.InvalidateDealTotals(ctx, companyID)
	return nil
}

func (s *DealService) ListDeals(ctx context.Context, filter models.ListDealsFilter) ([]*models.Deal, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.RowsPerPage < 1 || filter.RowsPerPage > 100 {
		filter.RowsPerPage = 10
	}
	return s.Repo.List(ctx, filter)
}

// CustomerTotals returns the per-customer rollup, served from Redis when a
// fresh page is cached.
func (s *DealService) CustomerTotals(ctx context.Context, companyID, page, rowsPerPage int, search string) ([]*models.CustomerDealTotals, int, error) {
	if page < 1 {
		page = 1
	}
	if rowsPerPage < 1 || rowsPerPage > 100 {
		rowsPerPage = 10
	}

	type cachedPage struct {
		Totals []*models.CustomerDealTotals `json:"totals"`
		Total  int                          `json:"total"`
	}

	key := cache.DealTotalsKey(companyID, page, rowsPerPage, search)
	if data, ok := cache.GetCachedDealTotals(ctx, key); ok {
		var cached cachedPage
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached.Totals, cached.Total, nil
		}
	}

	totals, total, err := s.Repo.CustomerDealTotals(ctx, companyID, page, rowsPerPage, search)
	if err != nil {
		return nil, 0, err
	}

	if data, err := json.Marshal(cachedPage{Totals: totals, Total: total}); err == nil {
		cache.CacheDealTotals(ctx, key, data)
	}
	return totals, total, nil
}
