package repositories

import (
	"context"
	"errors"

	"crm-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OnlineTransactionRepository struct {
	DB *pgxpool.Pool
}

func NewOnlineTransactionRepository(db *pgxpool.Pool) *OnlineTransactionRepository {
	return &OnlineTransactionRepository{DB: db}
}

func (r *OnlineTransactionRepository) Create(ctx context.Context, tx *models.OnlineTransaction) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO online_transactions(razorpay_link_id, deal_id, company_id, amount, status)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at, updated_at`,
		tx.RazorpayLinkID, tx.DealID, tx.CompanyID, tx.Amount, tx.Status,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
}

func (r *OnlineTransactionRepository) GetByLinkID(ctx context.Context, linkID string) (*models.OnlineTransaction, error) {
	var t models.OnlineTransaction
	var paymentID, method, utr, errorReason *string
	err := r.DB.QueryRow(ctx,
		`SELECT id, razorpay_link_id, deal_id, company_id, amount, status,
                razorpay_payment_id, method, utr, error_reason, created_at, updated_at
         FROM online_transactions WHERE razorpay_link_id=$1`, linkID,
	).Scan(&t.ID, &t.RazorpayLinkID, &t.DealID, &t.CompanyID, &t.Amount, &t.Status,
		&paymentID, &method, &utr, &errorReason, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if paymentID != nil {
		t.RazorpayPaymentID = *paymentID
	}
	if method != nil {
		t.Method = *method
	}
	if utr != nil {
		t.UTR = *utr
	}
	if errorReason != nil {
		t.ErrorReason = *errorReason
	}
	return &t, nil
}

// MarkSuccess transitions a CREATED transaction to SUCCESS. It returns
// ErrNotFound when the link is unknown or already finalized, which makes
// webhook redelivery idempotent.
func (r *OnlineTransactionRepository) MarkSuccess(ctx context.Context, linkID, paymentID, method, utr string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
         SET status=$1, razorpay_payment_id=$2, method=$3, utr=$4, updated_at=CURRENT_TIMESTAMP
         WHERE razorpay_link_id=$5 AND status=$6`,
		models.OnlineTxStatusSuccess, paymentID, method, utr, linkID, models.OnlineTxStatusCreated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OnlineTransactionRepository) MarkFailed(ctx context.Context, linkID, reason string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE online_transactions
         SET status=$1, error_reason=$2, updated_at=CURRENT_TIMESTAMP
         WHERE razorpay_link_id=$3 AND status=$4`,
		models.OnlineTxStatusFailed, reason, linkID, models.OnlineTxStatusCreated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OnlineTransactionRepository) ListByDeal(ctx context.Context, companyID, dealID int) ([]*models.OnlineTransaction, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, razorpay_link_id, deal_id, company_id, amount, status,
                COALESCE(razorpay_payment_id, ''), COALESCE(method, ''),
                COALESCE(utr, ''), COALESCE(error_reason, ''), created_at, updated_at
         FROM online_transactions
         WHERE deal_id=$1 AND company_id=$2
         ORDER BY created_at DESC`, dealID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*models.OnlineTransaction
	for rows.Next() {
		var t models.OnlineTransaction
		err := rows.Scan(&t.ID, &t.RazorpayLinkID, &t.DealID, &t.CompanyID, &t.Amount, &t.Status,
			&t.RazorpayPaymentID, &t.Method, &t.UTR, &t.ErrorReason, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		txs = append(txs, &t)
	}
	return txs, rows.Err()
}
