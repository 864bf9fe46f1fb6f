package services

import (
	"context"
	"testing"
	"time"

	"crm-backend/internal/models"
	"crm-backend/internal/repositories"
	"crm-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger implements PaymentStore on top of a fakeDealStore, applying
// the same relative balance updates the real repository does.
type fakeLedger struct {
	deals  *fakeDealStore
	nextID int
}

func newFakeLedger(deals *fakeDealStore) *fakeLedger {
	return &fakeLedger{deals: deals, nextID: 1}
}

func (f *fakeLedger) Create(ctx context.Context, companyID int, p *models.Payment, receivedBy *int) error {
	deal, ok := f.deals.deals[p.DealID]
	if !ok {
		return repositories.ErrNotFound
	}
	if deal.CompanyID != companyID {
		return repositories.ErrForbidden
	}
	if p.Amount > deal.BalanceAmount {
		return repositories.ErrInsufficientBalance
	}
	p.ID = f.nextID
	f.nextID++
	f.deals.byDeal[deal.ID] = append(f.deals.byDeal[deal.ID], p)
	deal.BalanceAmount -= p.Amount
	return nil
}

func (f *fakeLedger) Update(ctx context.Context, companyID int, req *models.UpdatePaymentRequest) (*models.Payment, error) {
	for _, payments := range f.deals.byDeal {
		for _, p := range payments {
			if p.ID != req.ID {
				continue
			}
			deal := f.deals.deals[p.DealID]
			if deal.CompanyID != companyID {
				return nil, repositories.ErrForbidden
			}
			if req.Amount != nil {
				delta := *req.Amount - p.Amount
				if delta > deal.BalanceAmount {
					return nil, repositories.ErrInsufficientBalance
				}
				deal.BalanceAmount -= delta
				p.Amount = *req.Amount
			}
			if req.PaymentType != nil {
				p.PaymentType = *req.PaymentType
			}
			if req.Remarks != nil {
				p.Remarks = *req.Remarks
			}
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeLedger) Delete(ctx context.Context, companyID, id int) error {
	for dealID, payments := range f.deals.byDeal {
		for i, p := range payments {
			if p.ID != id {
				continue
			}
			deal := f.deals.deals[dealID]
			if deal.CompanyID != companyID {
				return repositories.ErrForbidden
			}
			deal.BalanceAmount += p.Amount
			f.deals.byDeal[dealID] = append(payments[:i], payments[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeLedger) ListByDeal(ctx context.Context, companyID, dealID int) ([]*models.Payment, error) {
	deal, ok := f.deals.deals[dealID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if deal.CompanyID != companyID {
		return nil, repositories.ErrForbidden
	}
	payments := f.deals.byDeal[dealID]
	// newest first
	out := make([]*models.Payment, len(payments))
	for i, p := range payments {
		out[len(payments)-1-i] = p
	}
	return out, nil
}

func setupLedger(t *testing.T) (*DealService, *PaymentService, *models.Deal) {
	t.Helper()
	store := newFakeDealStore()
	dealSvc := NewDealService(store)
	paySvc := NewPaymentService(newFakeLedger(store), store)

	deal, err := dealSvc.CreateDeal(context.Background(), 1, &models.CreateDealRequest{
		CustomerID:        7,
		DealValue:         10000,
		DealApprovalValue: 9000,
		AdvancePayment:    2000,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 7000.0, deal.BalanceAmount)
	return dealSvc, paySvc, deal
}

func TestPaymentLifecycleKeepsBalanceConsistent(t *testing.T) {
	dealSvc, paySvc, deal := setupLedger(t)
	ctx := context.Background()

	// Record a 3000 payment: 7000 -> 4000
	payment, err := paySvc.RecordPayment(ctx, 1, &models.CreatePaymentRequest{
		DealID:      deal.ID,
		Amount:      3000,
		PaymentType: models.PaymentTypeUPI,
	})
	require.NoError(t, err)

	current, err := dealSvc.GetDeal(ctx, 1, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, current.BalanceAmount)

	// Deleting it restores the balance: 4000 -> 7000
	require.NoError(t, paySvc.DeletePayment(ctx, 1, payment.ID))
	current, err = dealSvc.GetDeal(ctx, 1, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 7000.0, current.BalanceAmount)
}

func TestPaymentOverdrawRejected(t *testing.T) {
	dealSvc, paySvc, deal := setupLedger(t)
	ctx := context.Background()

	_, err := paySvc.RecordPayment(ctx, 1, &models.CreatePaymentRequest{
		DealID:      deal.ID,
		Amount:      7000.01,
		PaymentType: models.PaymentTypeCash,
	})
	assert.ErrorIs(t, err, repositories.ErrInsufficientBalance)

	// Balance unchanged after the rejection
	current, err := dealSvc.GetDeal(ctx, 1, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 7000.0, current.BalanceAmount)

	// Paying exactly the balance is allowed and zeroes it
	_, err = paySvc.RecordPayment(ctx, 1, &models.CreatePaymentRequest{
		DealID:      deal.ID,
		Amount:      7000,
		PaymentType: models.PaymentTypeCash,
	})
	require.NoError(t, err)
	current, _ = dealSvc.GetDeal(ctx, 1, deal.ID)
	assert.Equal(t, 0.0, current.BalanceAmount)
}

func TestPaymentUpdateAdjustsByDelta(t *testing.T) {
	dealSvc, paySvc, deal := setupLedger(t)
	ctx := context.Background()

	payment, err := paySvc.RecordPayment(ctx, 1, &models.CreatePaymentRequest{
		DealID:      deal.ID,
		Amount:      3000,
		PaymentType: models.PaymentTypeCheque,
	})
	require.NoError(t, err)

	// Lowering 3000 -> 1000 frees 2000: balance 4000 -> 6000
	newAmount := 1000.0
	_, err = paySvc.UpdatePayment(ctx, 1, &models.UpdatePaymentRequest{
		ID:     payment.ID,
		Amount: &newAmount,
	})
	require.NoError(t, err)
	current, _ := dealSvc.GetDeal(ctx, 1, deal.ID)
	assert.Equal(t, 6000.0, current.BalanceAmount)

	// Raising beyond what the balance allows is rejected
	tooMuch := 1000.0 + 6000.01
	_, err = paySvc.UpdatePayment(ctx, 1, &models.UpdatePaymentRequest{
		ID:     payment.ID,
		Amount: &tooMuch,
	})
	assert.ErrorIs(t, err, repositories.ErrInsufficientBalance)
}

func TestRecordPaymentValidation(t *testing.T) {
	_, paySvc, deal := setupLedger(t)
	ctx := context.Background()

	_, err := paySvc.RecordPayment(ctx, 1, &models.CreatePaymentRequest{
		DealID: deal.ID, Amount: 0, PaymentType: models.PaymentTypeCash,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = paySvc.RecordPayment(ctx, 1, &models.CreatePaymentRequest{
		DealID: deal.ID, Amount: 100, PaymentType: "Barter",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = paySvc.RecordPayment(ctx, 1, &models.CreatePaymentRequest{
		DealID: deal.ID, Amount: 100, PaymentType: models.PaymentTypeCash,
		PaymentDate: "31-12-2025",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordPaymentParsesDateInIST(t *testing.T) {
	// Explicit dates and defaulted ones must land in the same zone, or
	// same-day payments could misorder in the date-sorted history.
	_, paySvc, deal := setupLedger(t)

	payment, err := paySvc.RecordPayment(context.Background(), 1, &models.CreatePaymentRequest{
		DealID:      deal.ID,
		Amount:      100,
		PaymentType: models.PaymentTypeCash,
		PaymentDate: "2025-03-15",
	})
	require.NoError(t, err)

	_, offset := payment.PaymentDate.Zone()
	_, wantOffset := timeutil.Now().Zone()
	assert.Equal(t, wantOffset, offset)
	assert.Equal(t, "2025-03-15", payment.PaymentDate.Format(timeutil.DateLayout))
}

func TestRecordPaymentCrossTenant(t *testing.T) {
	dealSvc, paySvc, deal := setupLedger(t)
	ctx := context.Background()

	_, err := paySvc.RecordPayment(ctx, 2, &models.CreatePaymentRequest{
		DealID:      deal.ID,
		Amount:      100,
		PaymentType: models.PaymentTypeCash,
	})
	assert.ErrorIs(t, err, repositories.ErrForbidden)

	// No mutation happened
	current, _ := dealSvc.GetDeal(ctx, 1, deal.ID)
	assert.Equal(t, 7000.0, current.BalanceAmount)
}

func TestPaymentHistoryRunningBalance(t *testing.T) {
	_, paySvc, deal := setupLedger(t)
	ctx := context.Background()

	_, err := paySvc.RecordPayment(ctx, 1, &models.CreatePaymentRequest{
		DealID: deal.ID, Amount: 3000, PaymentType: models.PaymentTypeUPI,
	})
	require.NoError(t, err)
	_, err = paySvc.RecordPayment(ctx, 1, &models.CreatePaymentRequest{
		DealID: deal.ID, Amount: 1000, PaymentType: models.PaymentTypeCash,
	})
	require.NoError(t, err)

	gotDeal, history, err := paySvc.PaymentHistory(ctx, 1, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, gotDeal.BalanceAmount)

	// Newest first: 1000 (after: 3000), 3000 (after: 4000), advance 2000 (after: 7000)
	require.Len(t, history, 3)
	assert.Equal(t, 1000.0, history[0].Amount)
	assert.Equal(t, 3000.0, history[0].RunningBalance)
	assert.Equal(t, 3000.0, history[1].Amount)
	assert.Equal(t, 4000.0, history[1].RunningBalance)
	assert.Equal(t, 2000.0, history[2].Amount)
	assert.Equal(t, 7000.0, history[2].RunningBalance)
}

func TestRunningBalancesEmpty(t *testing.T) {
	assert.Empty(t, RunningBalances(5000, nil))
}

func TestRunningBalancesOrdering(t *testing.T) {
	now := time.Now()
	payments := []*models.Payment{
		// newest first
		{Amount: 500, PaymentDate: now},
		{Amount: 1500, PaymentDate: now.Add(-24 * time.Hour)},
	}
	entries := RunningBalances(3000, payments)
	require.Len(t, entries, 2)
	assert.Equal(t, 1000.0, entries[0].RunningBalance) // 3000-1500-500
	assert.Equal(t, 1500.0, entries[1].RunningBalance) // 3000-1500
}
