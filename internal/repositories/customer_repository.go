package repositories

import (
	"context"
	"errors"
	"fmt"

	"crm-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepository struct {
	DB *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

const customerColumns = `id, company_id, name, COALESCE(phone, '') as phone,
	COALESCE(email, '') as email, COALESCE(address, '') as address, created_at, updated_at`

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO customers(company_id, name, phone, email, address)
         VALUES($1, $2, $3, $4, $5)
         RETURNING id, created_at, updated_at`,
		c.CompanyID, c.Name, c.Phone, c.Email, c.Address,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CustomerRepository) Get(ctx context.Context, id int) (*models.Customer, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id=$1`, id)

	var c models.Customer
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Phone, &c.Email, &c.Address,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns one page of a company's customers with the total count.
// Search matches name, phone and email case-insensitively.
func (r *CustomerRepository) List(ctx context.Context, companyID, page, rowsPerPage int, search string) ([]*models.Customer, int, error) {
	where := "WHERE company_id=$1"
	args := []interface{}{companyID}

	if search != "" {
		where += " AND (name ILIKE $2 OR phone ILIKE $2 OR email ILIKE $2)"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.DB.QueryRow(ctx, "SELECT COUNT(*) FROM customers "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * rowsPerPage
	query := fmt.Sprintf(`SELECT %s FROM customers %s ORDER BY name LIMIT $%d OFFSET $%d`,
		customerColumns, where, len(args)+1, len(args)+2)
	args = append(args, rowsPerPage, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		var c models.Customer
		err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Phone, &c.Email, &c.Address,
			&c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, &c)
	}
	return customers, total, rows.Err()
}

func (r *CustomerRepository) Update(ctx context.Context, companyID int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	existing, err := r.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing.CompanyID != companyID {
		return nil, ErrForbidden
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Phone != nil {
		existing.Phone = *req.Phone
	}
	if req.Email != nil {
		existing.Email = *req.Email
	}
	if req.Address != nil {
		existing.Address = *req.Address
	}

	err = r.DB.QueryRow(ctx,
		`UPDATE customers SET name=$1, phone=$2, email=$3, address=$4, updated_at=CURRENT_TIMESTAMP
         WHERE id=$5 RETURNING updated_at`,
		existing.Name, existing.Phone, existing.Email, existing.Address, existing.ID,
	).Scan(&existing.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteCascade removes a customer together with all dependent records:
// payments of their deals, the deals, and AMS contracts, in one transaction.
func (r *CustomerRepository) DeleteCascade(ctx context.Context, companyID, id int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var ownerCompany int
	err = tx.QueryRow(ctx, `SELECT company_id FROM customers WHERE id=$1 FOR UPDATE`, id).Scan(&ownerCompany)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if ownerCompany != companyID {
		return ErrForbidden
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM payments WHERE deal_id IN (SELECT id FROM deals WHERE customer_id=$1)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM online_transactions WHERE deal_id IN (SELECT id FROM deals WHERE customer_id=$1)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM deals WHERE customer_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM ams_contracts WHERE customer_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM customers WHERE id=$1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
