package services

import (
	"context"
	"fmt"
	"testing"

	"crm-backend/internal/models"
	"crm-backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDealStore keeps deals in memory and mimics the repository's tenant
// checks and server-side balance bookkeeping.
type fakeDealStore struct {
	nextID  int
	deals   map[int]*models.Deal
	byDeal  map[int][]*models.Payment
	created int
}

func newFakeDealStore() *fakeDealStore {
	return &fakeDealStore{
		nextID: 1,
		deals:  make(map[int]*models.Deal),
		byDeal: make(map[int][]*models.Payment),
	}
}

func (f *fakeDealStore) Create(ctx context.Context, deal *models.Deal, createdBy *int) error {
	deal.ID = f.nextID
	deal.DealID = fmt.Sprintf("FAKE0101%03d", f.nextID)
	f.nextID++
	f.deals[deal.ID] = deal
	if deal.AdvancePayment > 0 {
		f.byDeal[deal.ID] = append(f.byDeal[deal.ID], &models.Payment{
			DealID:      deal.ID,
			Amount:      deal.AdvancePayment,
			PaymentType: models.PaymentTypeAdvance,
		})
	}
	f.created++
	return nil
}

func (f *fakeDealStore) Get(ctx context.Context, id int) (*models.Deal, error) {
	deal, ok := f.deals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *deal
	return &copied, nil
}

func (f *fakeDealStore) Update(ctx context.Context, companyID int, req *models.UpdateDealRequest) (*models.Deal, error) {
	deal, ok := f.deals[req.ID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if deal.CompanyID != companyID {
		return nil, repositories.ErrForbidden
	}
	updated := *deal
	if req.Requirement != nil {
		updated.Requirement = *req.Requirement
	}
	if req.DealValue != nil {
		updated.DealValue = *req.DealValue
	}
	if req.DealApprovalValue != nil {
		updated.DealApprovalValue = *req.DealApprovalValue
	}
	if req.AdvancePayment != nil {
		updated.AdvancePayment = *req.AdvancePayment
	}
	var paid float64
	for _, p := range f.byDeal[deal.ID] {
		paid += p.Amount
	}
	if updated.DealApprovalValue < paid {
		return nil, repositories.ErrInsufficientBalance
	}
	updated.BalanceAmount = updated.DealApprovalValue - paid
	*deal = updated
	copied := updated
	return &copied, nil
}

func (f *fakeDealStore) DeleteCascade(ctx context.Context, companyID, id int) error {
	deal, ok := f.deals[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if deal.CompanyID != companyID {
		return repositories.ErrForbidden
	}
	delete(f.deals, id)
	delete(f.byDeal, id)
	return nil
}

func (f *fakeDealStore) List(ctx context.Context, filter models.ListDealsFilter) ([]*models.Deal, int, error) {
	var out []*models.Deal
	for _, d := range f.deals {
		if d.CompanyID == filter.CompanyID {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func (f *fakeDealStore) CustomerDealTotals(ctx context.Context, companyID, page, rowsPerPage int, search string) ([]*models.CustomerDealTotals, int, error) {
	return nil, 0, nil
}

func TestCreateDealComputesBalance(t *testing.T) {
	store := newFakeDealStore()
	svc := NewDealService(store)

	deal, err := svc.CreateDeal(context.Background(), 1, &models.CreateDealRequest{
		CustomerID:        7,
		Requirement:       "HVAC install",
		DealValue:         10000,
		DealApprovalValue: 9000,
		AdvancePayment:    2000,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 7000.0, deal.BalanceAmount)
	assert.Equal(t, 1, deal.ID)
	assert.NotEmpty(t, deal.DealID)
	// Advance shows up as a payment row
	require.Len(t, store.byDeal[deal.ID], 1)
	assert.Equal(t, models.PaymentTypeAdvance, store.byDeal[deal.ID][0].PaymentType)
}

func TestCreateDealIgnoresClientBalance(t *testing.T) {
	store := newFakeDealStore()
	svc := NewDealService(store)

	deal, err := svc.CreateDeal(context.Background(), 1, &models.CreateDealRequest{
		CustomerID:        7,
		DealValue:         5000,
		DealApprovalValue: 5000,
		AdvancePayment:    1000,
		BalanceAmount:     999999, // client sent nonsense
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, deal.BalanceAmount)
}

func TestCreateDealValidation(t *testing.T) {
	svc := NewDealService(newFakeDealStore())
	ctx := context.Background()

	_, err := svc.CreateDeal(ctx, 1, &models.CreateDealRequest{DealValue: 100}, nil)
	assert.ErrorIs(t, err, ErrValidation) // missing customer

	_, err = svc.CreateDeal(ctx, 1, &models.CreateDealRequest{
		CustomerID: 1, DealValue: -5,
	}, nil)
	assert.ErrorIs(t, err, ErrValidation) // negative amount

	_, err = svc.CreateDeal(ctx, 1, &models.CreateDealRequest{
		CustomerID: 1, DealValue: 1000, DealApprovalValue: 500, AdvancePayment: 600,
	}, nil)
	assert.ErrorIs(t, err, ErrValidation) // advance exceeds approval
}

func TestCreateDealAllowsApprovalAboveDealValue(t *testing.T) {
	// Approval above deal value is advisory only, not an error
	svc := NewDealService(newFakeDealStore())

	deal, err := svc.CreateDeal(context.Background(), 1, &models.CreateDealRequest{
		CustomerID: 1, DealValue: 1000, DealApprovalValue: 1500,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, deal.BalanceAmount)
}

func TestUpdateDealRecomputesBalance(t *testing.T) {
	store := newFakeDealStore()
	svc := NewDealService(store)
	ctx := context.Background()

	deal, err := svc.CreateDeal(ctx, 1, &models.CreateDealRequest{
		CustomerID: 7, DealValue: 10000, DealApprovalValue: 9000, AdvancePayment: 2000,
	}, nil)
	require.NoError(t, err)

	newApproval := 12000.0
	updated, err := svc.UpdateDeal(ctx, 1, &models.UpdateDealRequest{
		ID:                deal.ID,
		DealApprovalValue: &newApproval,
	})
	require.NoError(t, err)
	// 12000 approved minus the 2000 advance already paid
	assert.Equal(t, 10000.0, updated.BalanceAmount)
}

func TestUpdateDealRejectsApprovalBelowPayments(t *testing.T) {
	store := newFakeDealStore()
	svc := NewDealService(store)
	ctx := context.Background()

	deal, err := svc.CreateDeal(ctx, 1, &models.CreateDealRequest{
		CustomerID: 7, DealValue: 10000, DealApprovalValue: 9000, AdvancePayment: 2000,
	}, nil)
	require.NoError(t, err)

	// 2000 already paid; approving less than that would force a negative balance
	newApproval := 1500.0
	_, err = svc.UpdateDeal(ctx, 1, &models.UpdateDealRequest{
		ID:                deal.ID,
		DealApprovalValue: &newApproval,
	})
	assert.ErrorIs(t, err, repositories.ErrInsufficientBalance)

	// Deal untouched by the rejected update
	got, err := svc.GetDeal(ctx, 1, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 9000.0, got.DealApprovalValue)
	assert.Equal(t, 7000.0, got.BalanceAmount)

	// Exactly covering the paid sum is allowed and zeroes the balance
	exact := 2000.0
	updated, err := svc.UpdateDeal(ctx, 1, &models.UpdateDealRequest{
		ID:                deal.ID,
		DealApprovalValue: &exact,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.BalanceAmount)
}

func TestGetDealCrossTenant(t *testing.T) {
	store := newFakeDealStore()
	svc := NewDealService(store)
	ctx := context.Background()

	deal, err := svc.CreateDeal(ctx, 1, &models.CreateDealRequest{
		CustomerID: 7, DealValue: 100, DealApprovalValue: 100,
	}, nil)
	require.NoError(t, err)

	_, err = svc.GetDeal(ctx, 2, deal.ID)
	assert.ErrorIs(t, err, repositories.ErrForbidden)

	err = svc.DeleteDeal(ctx, 2, deal.ID)
	assert.ErrorIs(t, err, repositories.ErrForbidden)
	// Deal untouched
	_, err = svc.GetDeal(ctx, 1, deal.ID)
	assert.NoError(t, err)
}
