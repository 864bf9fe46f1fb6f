package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"crm-backend/internal/models"
	"crm-backend/internal/timeutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DealRepository struct {
	DB *pgxpool.Pool
}

func NewDealRepository(db *pgxpool.Pool) *DealRepository {
	return &DealRepository{DB: db}
}

// DealIDPrefix builds the customer+date part of a deal identifier:
// up to 4 alphabetic characters of the customer name, uppercased, followed
// by the day and month as DDMM. Names with fewer than 4 alphabetic
// characters produce a shorter prefix; no padding is applied.
func DealIDPrefix(customerName string, day time.Time) string {
	var b strings.Builder
	for _, r := range customerName {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() >= 4 {
				break
			}
		}
	}
	return b.String() + timeutil.DayMonth(day)
}

// allowed sort keys for deal listings, mapped to SQL columns. Client
// supplied orderBy values never reach query construction directly.
var dealSortColumns = map[string]string{
	"dealId":            "d.deal_id",
	"dealValue":         "d.deal_value",
	"dealApprovalValue": "d.deal_approval_value",
	"balanceAmount":     "d.balance_amount",
	"createdAt":         "d.created_at",
	"customerName":      "c.name",
}

const maxDealIDRetries = 5

// dealIDTx is the slice of pgx.Tx the deal id allocator needs: a row query
// for the sequence count and Begin for the per-attempt savepoint.
type dealIDTx interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// allocateDealID assigns the next free sequence number for the prefix and
// inserts the deal row. The count ranges over ALL deals sharing the prefix,
// matching the scope of the UNIQUE index on deal_id: two customers whose
// names share a prefix draw from the same sequence. Each INSERT runs under a
// savepoint — a duplicate-key failure aborts the statement's (sub)transaction,
// so it must be rolled back before the recount can run.
func allocateDealID(ctx context.Context, tx dealIDTx, prefix string, deal *models.Deal) error {
	var lastErr error
	for attempt := 0; attempt < maxDealIDRetries; attempt++ {
		var count int
		err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM deals WHERE deal_id LIKE $1`,
			prefix+"%").Scan(&count)
		if err != nil {
			return err
		}
		deal.DealID = fmt.Sprintf("%s%03d", prefix, count+1)

		sp, err := tx.Begin(ctx)
		if err != nil {
			return err
		}
		err = sp.QueryRow(ctx,
			`INSERT INTO deals(deal_id, customer_id, company_id, requirement,
                 deal_value, deal_approval_value, advance_payment, balance_amount)
             VALUES($1, $2, $3, $4, $5, $6, $7, $8)
             RETURNING id, created_at, updated_at`,
			deal.DealID, deal.CustomerID, deal.CompanyID, deal.Requirement,
			deal.DealValue, deal.DealApprovalValue, deal.AdvancePayment, deal.BalanceAmount,
		).Scan(&deal.ID, &deal.CreatedAt, &deal.UpdatedAt)
		if err == nil {
			return sp.Commit(ctx)
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Another request took this sequence number. Release the
			// savepoint so the enclosing transaction is usable again,
			// then recount.
			if rbErr := sp.Rollback(ctx); rbErr != nil {
				return rbErr
			}
			lastErr = err
			continue
		}
		sp.Rollback(ctx)
		return err
	}
	return fmt.Errorf("could not allocate deal id for prefix %s after %d attempts: %w",
		prefix, maxDealIDRetries, lastErr)
}

// Create inserts a deal with a freshly generated identifier and, when an
// advance payment is present, the matching "Advance" payment row — all in
// one transaction. Concurrent creates sharing a prefix and day are
// serialized by the UNIQUE index on deals.deal_id: on a duplicate the
// sequence number is recomputed and the insert retried.
func (r *DealRepository) Create(ctx context.Context, deal *models.Deal, createdBy *int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var customerName string
	err = tx.QueryRow(ctx,
		`SELECT name FROM customers WHERE id=$1 AND company_id=$2`,
		deal.CustomerID, deal.CompanyID).Scan(&customerName)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	now := timeutil.Now()
	prefix := DealIDPrefix(customerName, now)

	if err := allocateDealID(ctx, tx, prefix, deal); err != nil {
		return err
	}

	if deal.AdvancePayment > 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO payments(deal_id, amount, payment_date, payment_type, remarks, created_by)
             VALUES($1, $2, $3, $4, $5, $6)`,
			deal.ID, deal.AdvancePayment, now, models.PaymentTypeAdvance,
			"Advance payment at deal creation", createdBy)
		if err != nil {
			return err
		}
	}

	deal.CustomerName = customerName
	return tx.Commit(ctx)
}

func (r *DealRepository) Get(ctx context.Context, id int) (*models.Deal, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT d.id, d.deal_id, d.customer_id, d.company_id, d.requirement,
                d.deal_value, d.deal_approval_value, d.advance_payment, d.balance_amount,
                d.created_at, d.updated_at, c.name, COALESCE(c.phone, '')
         FROM deals d
         JOIN customers c ON d.customer_id = c.id
         WHERE d.id=$1`, id)

	var d models.Deal
	err := row.Scan(&d.ID, &d.DealID, &d.CustomerID, &d.CompanyID, &d.Requirement,
		&d.DealValue, &d.DealApprovalValue, &d.AdvancePayment, &d.BalanceAmount,
		&d.CreatedAt, &d.UpdatedAt, &d.CustomerName, &d.CustomerPhone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Update applies the supplied fields and recomputes balance_amount as
// deal_approval_value minus the sum of the deal's existing payments, so an
// edited deal stays consistent with its ledger.
func (r *DealRepository) Update(ctx context.Context, companyID int, req *models.UpdateDealRequest) (*models.Deal, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var d models.Deal
	err = tx.QueryRow(ctx,
		`SELECT id, company_id, requirement, deal_value, deal_approval_value, advance_payment
         FROM deals WHERE id=$1 FOR UPDATE`, req.ID,
	).Scan(&d.ID, &d.CompanyID, &d.Requirement, &d.DealValue, &d.DealApprovalValue, &d.AdvancePayment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if d.CompanyID != companyID {
		return nil, ErrForbidden
	}

	if req.Requirement != nil {
		d.Requirement = *req.Requirement
	}
	if req.DealValue != nil {
		d.DealValue = *req.DealValue
	}
	if req.DealApprovalValue != nil {
		d.DealApprovalValue = *req.DealApprovalValue
	}
	if req.AdvancePayment != nil {
		d.AdvancePayment = *req.AdvancePayment
	}

	// The approval value may not drop below what has already been paid;
	// allowing it would drive balance_amount negative.
	var paid float64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE deal_id=$1`, d.ID).Scan(&paid)
	if err != nil {
		return nil, err
	}
	if d.DealApprovalValue < paid {
		return nil, fmt.Errorf("approval value %.2f below recorded payments %.2f: %w",
			d.DealApprovalValue, paid, ErrInsufficientBalance)
	}

	_, err = tx.Exec(ctx,
		`UPDATE deals SET requirement=$1, deal_value=$2, deal_approval_value=$3,
             advance_payment=$4,
             balance_amount = $3 - $6,
             updated_at=CURRENT_TIMESTAMP
         WHERE id=$5`,
		d.Requirement, d.DealValue, d.DealApprovalValue, d.AdvancePayment, d.ID, paid)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.Get(ctx, d.ID)
}

// DeleteCascade deletes a deal and all its payments in one transaction.
func (r *DealRepository) DeleteCascade(ctx context.Context, companyID, id int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var ownerCompany int
	err = tx.QueryRow(ctx, `SELECT company_id FROM deals WHERE id=$1 FOR UPDATE`, id).Scan(&ownerCompany)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if ownerCompany != companyID {
		return ErrForbidden
	}

	if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE deal_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM online_transactions WHERE deal_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM deals WHERE id=$1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// List returns one page of a company's deals with embedded customer info
// and the total filtered count.
func (r *DealRepository) List(ctx context.Context, filter models.ListDealsFilter) ([]*models.Deal, int, error) {
	where := "WHERE d.company_id=$1"
	args := []interface{}{filter.CompanyID}

	if filter.Search != "" {
		where += " AND (d.deal_id ILIKE $2 OR c.name ILIKE $2 OR d.requirement ILIKE $2)"
		args = append(args, "%"+filter.Search+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM deals d JOIN customers c ON d.customer_id = c.id ` + where
	if err := r.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderColumn, ok := dealSortColumns[filter.OrderBy]
	if !ok {
		orderColumn = "d.deal_id"
	}
	direction := "ASC"
	if strings.EqualFold(filter.Order, "desc") {
		direction = "DESC"
	}

	offset := (filter.Page - 1) * filter.RowsPerPage
	query := fmt.Sprintf(`
        SELECT d.id, d.deal_id, d.customer_id, d.company_id, d.requirement,
               d.deal_value, d.deal_approval_value, d.advance_payment, d.balance_amount,
               d.created_at, d.updated_at, c.name, COALESCE(c.phone, '')
        FROM deals d
        JOIN customers c ON d.customer_id = c.id
        %s
        ORDER BY %s %s
        LIMIT $%d OFFSET $%d`,
		where, orderColumn, direction, len(args)+1, len(args)+2)
	args = append(args, filter.RowsPerPage, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var deals []*models.Deal
	for rows.Next() {
		var d models.Deal
		err := rows.Scan(&d.ID, &d.DealID, &d.CustomerID, &d.CompanyID, &d.Requirement,
			&d.DealValue, &d.DealApprovalValue, &d.AdvancePayment, &d.BalanceAmount,
			&d.CreatedAt, &d.UpdatedAt, &d.CustomerName, &d.CustomerPhone)
		if err != nil {
			return nil, 0, err
		}
		deals = append(deals, &d)
	}
	return deals, total, rows.Err()
}

// CustomerDealTotals aggregates deal value and outstanding balance per
// customer for the rollup view.
func (r *DealRepository) CustomerDealTotals(ctx context.Context, companyID, page, rowsPerPage int, search string) ([]*models.CustomerDealTotals, int, error) {
	where := "WHERE c.company_id=$1"
	args := []interface{}{companyID}

	if search != "" {
		where += " AND c.name ILIKE $2"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM customers c `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * rowsPerPage
	query := fmt.Sprintf(`
        SELECT c.id, c.name, COALESCE(c.phone, ''),
               COUNT(d.id),
               COALESCE(SUM(d.deal_value), 0),
               COALESCE(SUM(d.balance_amount), 0)
        FROM customers c
        LEFT JOIN deals d ON d.customer_id = c.id
        %s
        GROUP BY c.id, c.name, c.phone
        ORDER BY c.name
        LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, rowsPerPage, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var totals []*models.CustomerDealTotals
	for rows.Next() {
		var t models.CustomerDealTotals
		err := rows.Scan(&t.CustomerID, &t.CustomerName, &t.CustomerPhone,
			&t.DealCount, &t.TotalDealValue, &t.TotalBalance)
		if err != nil {
			return nil, 0, err
		}
		totals = append(totals, &t)
	}
	return totals, total, rows.Err()
}
