package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crm-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

type AMSRepository struct {
	DB *pgxpool.Pool
}

func NewAMSRepository(db *pgxpool.Pool) *AMSRepository {
	return &AMSRepository{DB: db}
}

const amsColumns = `a.id, a.customer_id, a.company_id, a.product, a.start_date, a.end_date,
    a.visits_per_year, a.next_visit_date, a.amount, a.status, a.notes,
    a.created_at, a.updated_at, c.name`

func scanAMS(row pgx.Row) (*models.AMSContract, error) {
	var a models.AMSContract
	err := row.Scan(&a.ID, &a.CustomerID, &a.CompanyID, &a.Product, &a.StartDate, &a.EndDate,
		&a.VisitsPerYear, &a.NextVisitDate, &a.Amount, &a.Status, &a.Notes,
		&a.CreatedAt, &a.UpdatedAt, &a.CustomerName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AMSRepository) Create(ctx context.Context, a *models.AMSContract) error {
	var customerCompany int
	err := r.DB.QueryRow(ctx,
		`SELECT company_id FROM customers WHERE id=$1`, a.CustomerID).Scan(&customerCompany)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if customerCompany != a.CompanyID {
		return ErrNotFound
	}

	return r.DB.QueryRow(ctx,
		`INSERT INTO ams_contracts(customer_id, company_id, product, start_date, end_date,
             visits_per_year, next_visit_date, amount, status, notes)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING id, created_at, updated_at`,
		a.CustomerID, a.CompanyID, a.Product, a.StartDate, a.EndDate,
		a.VisitsPerYear, a.NextVisitDate, a.Amount, a.Status, a.Notes,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *AMSRepository) Get(ctx context.Context, id int) (*models.AMSContract, error) {
	return scanAMS(r.DB.QueryRow(ctx,
		`SELECT `+amsColumns+`
         FROM ams_contracts a JOIN customers c ON a.customer_id = c.id
         WHERE a.id=$1`, id))
}

func (r *AMSRepository) Update(ctx context.Context, companyID int, req *models.UpdateAMSRequest) (*models.AMSContract, error) {
	existing, err := r.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing.CompanyID != companyID {
		return nil, ErrForbidden
	}

	if req.Product != nil {
		existing.Product = *req.Product
	}
	if req.EndDate != nil {
		existing.EndDate, err = parseDate(*req.EndDate)
		if err != nil {
			return nil, err
		}
	}
	if req.VisitsPerYear != nil {
		existing.VisitsPerYear = *req.VisitsPerYear
	}
	if req.NextVisitDate != nil {
		next, err := parseDate(*req.NextVisitDate)
		if err != nil {
			return nil, err
		}
		existing.NextVisitDate = &next
	}
	if req.Amount != nil {
		existing.Amount = *req.Amount
	}
	if req.Status != nil {
		existing.Status = *req.Status
	}
	if req.Notes != nil {
		existing.Notes = *req.Notes
	}

	_, err = r.DB.Exec(ctx,
		`UPDATE ams_contracts SET product=$1, end_date=$2, visits_per_year=$3,
             next_visit_date=$4, amount=$5, status=$6, notes=$7, updated_at=CURRENT_TIMESTAMP
         WHERE id=$8`,
		existing.Product, existing.EndDate, existing.VisitsPerYear,
		existing.NextVisitDate, existing.Amount, existing.Status, existing.Notes, existing.ID)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, existing.ID)
}

func (r *AMSRepository) Delete(ctx context.Context, companyID, id int) error {
	var ownerCompany int
	err := r.DB.QueryRow(ctx,
		`SELECT company_id FROM ams_contracts WHERE id=$1`, id).Scan(&ownerCompany)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if ownerCompany != companyID {
		return ErrForbidden
	}

	_, err = r.DB.Exec(ctx, `DELETE FROM ams_contracts WHERE id=$1`, id)
	return err
}

func (r *AMSRepository) List(ctx context.Context, companyID, page, rowsPerPage int, search string) ([]*models.AMSContract, int, error) {
	where := "WHERE a.company_id=$1"
	args := []interface{}{companyID}

	if search != "" {
		where += " AND (c.name ILIKE $2 OR a.product ILIKE $2)"
		args = append(args, "%"+search+"%")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM ams_contracts a JOIN customers c ON a.customer_id = c.id ` + where
	if err := r.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * rowsPerPage
	query := fmt.Sprintf(`
        SELECT `+amsColumns+`
        FROM ams_contracts a JOIN customers c ON a.customer_id = c.id
        %s
        ORDER BY a.next_visit_date NULLS LAST, a.id
        LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, rowsPerPage, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contracts []*models.AMSContract
	for rows.Next() {
		a, err := scanAMS(rows)
		if err != nil {
			return nil, 0, err
		}
		contracts = append(contracts, a)
	}
	return contracts, total, rows.Err()
}
