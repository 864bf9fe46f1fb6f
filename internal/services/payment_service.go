package services

import (
	"context"
	"fmt"

	"crm-backend/internal/cache"
	"crm-backend/internal/metrics"
	"crm-backend/internal/models"
	"crm-backend/internal/repositories"
	"crm-backend/internal/timeutil"
)

// PaymentStore is the slice of the payment repository the service depends on
type PaymentStore interface {
	Create(ctx context.Context, companyID int, p *models.Payment, receivedBy *int) error
	Update(ctx context.Context, companyID int, req *models.UpdatePaymentRequest) (*models.Payment, error)
	Delete(ctx context.Context, companyID, id int) error
	ListByDeal(ctx context.Context, companyID, dealID int) ([]*models.Payment, error)
}

// DealGetter resolves a deal for balance reads alongside payment listings
type DealGetter interface {
	Get(ctx context.Context, id int) (*models.Deal, error)
}

type PaymentService struct {
	Repo  PaymentStore
	Deals DealGetter
}

func NewPaymentService(repo PaymentStore, deals DealGetter) *PaymentService {
	return &PaymentService{Repo: repo, Deals: deals}
}

// RecordPayment validates and records a payment. The repository rejects
// amounts exceeding the deal's outstanding balance.
func (s *PaymentService) RecordPayment(ctx context.Context, companyID int, req *models.CreatePaymentRequest) (*models.Payment, error) {
	if req.DealID <= 0 {
		return nil, fmt.Errorf("%w: dealId is required", ErrValidation)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if !req.PaymentType.Valid() {
		return nil, fmt.Errorf("%w: unknown payment type %q", ErrValidation, req.PaymentType)
	}

	paymentDate := timeutil.Now()
	if req.PaymentDate != "" {
		parsed, err := timeutil.ParseInIST(timeutil.DateLayout, req.PaymentDate)
		if err != nil {
			return nil, fmt.Errorf("%w: paymentDate must be YYYY-MM-DD", ErrValidation)
		}
		paymentDate = parsed
	}

	payment := &models.Payment{
		DealID:      req.DealID,
		Amount:      req.Amount,
		PaymentDate: paymentDate,
		PaymentType: req.PaymentType,
		Remarks:     req.Remarks,
	}

	if err := s.Repo.Create(ctx, companyID, payment, req.CreatedByID); err != nil {
		return nil, err
	}

	metrics.PaymentsRecorded.WithLabelValues(string(payment.PaymentType)).Inc()
	cache.InvalidateDealTotals(ctx, companyID)
	return payment, nil
}

func (s *PaymentService) UpdatePayment(ctx context.Context, companyID int, req *models.UpdatePaymentRequest) (*models.Payment, error) {
	if req.ID <= 0 {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if req.PaymentType != nil && !req.PaymentType.Valid() {
		return nil, fmt.Errorf("%w: unknown payment type %q", ErrValidation, *req.PaymentType)
	}

	payment, err := s.Repo.Update(ctx, companyID, req)
	if err != nil {
		return nil, err
	}
	cache.InvalidateDealTotals(ctx, companyID)
	return payment, nil
}

func (s *PaymentService) DeletePayment(ctx context.Context, companyID, id int) error {
	if err := s.Repo.Delete(ctx, companyID, id); err != nil {
		return err
	}
	cache.InvalidateDealTotals(ctx, companyID)
	return nil
}

// PaymentHistory returns a deal's payments newest first, each annotated
// with the balance as it stood after that payment.
func (s *PaymentService) PaymentHistory(ctx context.Context, companyID, dealID int) (*models.Deal, []*models.PaymentHistoryEntry, error) {
	deal, err := s.Deals.Get(ctx, dealID)
	if err != nil {
		return nil, nil, err
	}
	if deal.CompanyID != companyID {
		return nil, nil, repositories.ErrForbidden
	}

	payments, err := s.Repo.ListByDeal(ctx, companyID, dealID)
	if err != nil {
		return nil, nil, err
	}

	return deal, RunningBalances(deal.DealApprovalValue, payments), nil
}

// RunningBalances walks a newest-first payment list and computes the
// balance that remained after each payment was applied, starting from the
// deal's approval value at the oldest end.
func RunningBalances(approvalValue float64, newestFirst []*models.Payment) []*models.PaymentHistoryEntry {
	entries := make([]*models.PaymentHistoryEntry, len(newestFirst))
	running := approvalValue
	for i := len(newestFirst) - 1; i >= 0; i-- {
		running -= newestFirst[i].Amount
		entries[i] = &models.PaymentHistoryEntry{
			Payment:        *newestFirst[i],
			RunningBalance: running,
		}
	}
	return entries
}
