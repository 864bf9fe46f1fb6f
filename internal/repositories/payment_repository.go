package repositories

import (
	"context"
	"errors"

	"crm-backend/internal/models"
	"crm-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// lockDeal reads the deal's company and balance under FOR UPDATE so the
// balance check and the later relative update see a consistent row even
// under concurrent payments.
func lockDeal(ctx context.Context, tx pgx.Tx, dealID int) (companyID int, balance float64, err error) {
	err = tx.QueryRow(ctx,
		`SELECT company_id, balance_amount FROM deals WHERE id=$1 FOR UPDATE`,
		dealID).Scan(&companyID, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	return companyID, balance, err
}

// Create records a payment against a deal and decrements the deal's
// balance in the same transaction. Payments exceeding the current balance
// are rejected with ErrInsufficientBalance.
func (r *PaymentRepository) Create(ctx context.Context, companyID int, p *models.Payment, receivedBy *int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ownerCompany, balance, err := lockDeal(ctx, tx, p.DealID)
	if err != nil {
		return err
	}
	if ownerCompany != companyID {
		return ErrForbidden
	}
	if p.Amount > balance {
		return ErrInsufficientBalance
	}

	if receivedBy != nil {
		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id=$1 AND company_id=$2)`,
			*receivedBy, companyID).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return ErrEmployeeNotFound
		}
	}
	p.CreatedBy = receivedBy

	err = tx.QueryRow(ctx,
		`INSERT INTO payments(deal_id, amount, payment_date, payment_type, remarks, created_by)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at, updated_at`,
		p.DealID, p.Amount, p.PaymentDate, p.PaymentType, p.Remarks, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE deals SET balance_amount = balance_amount - $1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`,
		p.Amount, p.DealID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Update edits a payment and adjusts the deal balance by the amount delta.
// An increase that would push the balance negative is rejected.
func (r *PaymentRepository) Update(ctx context.Context, companyID int, req *models.UpdatePaymentRequest) (*models.Payment, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var p models.Payment
	err = tx.QueryRow(ctx,
		`SELECT id, deal_id, amount, payment_date, payment_type, remarks, created_by, created_at, updated_at
         FROM payments WHERE id=$1`, req.ID,
	).Scan(&p.ID, &p.DealID, &p.Amount, &p.PaymentDate, &p.PaymentType, &p.Remarks, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	ownerCompany, balance, err := lockDeal(ctx, tx, p.DealID)
	if err != nil {
		return nil, err
	}
	if ownerCompany != companyID {
		return nil, ErrForbidden
	}

	oldAmount := p.Amount
	if req.Amount != nil {
		p.Amount = *req.Amount
	}
	if req.PaymentDate != nil {
		parsed, perr := timeutil.ParseInIST(timeutil.DateLayout, *req.PaymentDate)
		if perr != nil {
			return nil, perr
		}
		p.PaymentDate = parsed
	}
	if req.PaymentType != nil {
		p.PaymentType = *req.PaymentType
	}
	if req.Remarks != nil {
		p.Remarks = *req.Remarks
	}
	if req.CreatedByID != nil {
		var exists bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id=$1 AND company_id=$2)`,
			*req.CreatedByID, companyID).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrEmployeeNotFound
		}
		p.CreatedBy = req.CreatedByID
	}

	delta := p.Amount - oldAmount
	if delta > balance {
		return nil, ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx,
		`UPDATE payments SET amount=$1, payment_date=$2, payment_type=$3, remarks=$4,
             created_by=$5, updated_at=CURRENT_TIMESTAMP
         WHERE id=$6`,
		p.Amount, p.PaymentDate, p.PaymentType, p.Remarks, p.CreatedBy, p.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE deals SET balance_amount = balance_amount - $1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`,
		delta, p.DealID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a payment and credits its amount back to the deal balance.
func (r *PaymentRepository) Delete(ctx context.Context, companyID, id int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var dealID int
	var amount float64
	err = tx.QueryRow(ctx,
		`SELECT deal_id, amount FROM payments WHERE id=$1`, id).Scan(&dealID, &amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	ownerCompany, _, err := lockDeal(ctx, tx, dealID)
	if err != nil {
		return err
	}
	if ownerCompany != companyID {
		return ErrForbidden
	}

	if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE id=$1`, id); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE deals SET balance_amount = balance_amount + $1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`,
		amount, dealID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListByDeal returns a deal's payments newest first, with the recording
// user's name and email when available.
func (r *PaymentRepository) ListByDeal(ctx context.Context, companyID, dealID int) ([]*models.Payment, error) {
	var ownerCompany int
	err := r.DB.QueryRow(ctx,
		`SELECT company_id FROM deals WHERE id=$1`, dealID).Scan(&ownerCompany)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if ownerCompany != companyID {
		return nil, ErrForbidden
	}

	rows, err := r.DB.Query(ctx,
		`SELECT p.id, p.deal_id, p.amount, p.payment_date, p.payment_type, p.remarks,
                p.created_by, p.created_at, p.updated_at,
                COALESCE(u.name, ''), COALESCE(u.email, '')
         FROM payments p
         LEFT JOIN users u ON p.created_by = u.id
         WHERE p.deal_id=$1
         ORDER BY p.payment_date DESC, p.id DESC`, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var p models.Payment
		err := rows.Scan(&p.ID, &p.DealID, &p.Amount, &p.PaymentDate, &p.PaymentType,
			&p.Remarks, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.CreatedByName, &p.CreatedByEmail)
		if err != nil {
			return nil, err
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
