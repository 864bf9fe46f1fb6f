package repositories

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"crm-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rowFunc adapts a closure to pgx.Row
type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// allocTx simulates the transaction surface the deal-id allocator uses: a
// set of taken ids, the sequence count over them, and savepoints whose
// inserts can lose the race to a concurrent writer. Like PostgreSQL, a
// failed statement leaves the transaction aborted until the savepoint it
// ran under is rolled back.
type allocTx struct {
	ids       map[string]bool
	steals    int // insert attempts a concurrent writer wins first
	rollbacks int
	aborted   bool
}

func (a *allocTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return rowFunc(func(dest ...any) error {
		if a.aborted {
			return &pgconn.PgError{Code: "25P02"}
		}
		prefix := strings.TrimSuffix(args[0].(string), "%")
		n := 0
		for id := range a.ids {
			if strings.HasPrefix(id, prefix) {
				n++
			}
		}
		*dest[0].(*int) = n
		return nil
	})
}

func (a *allocTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return &allocSavepoint{parent: a}, nil
}

// allocSavepoint covers the pgx.Tx methods the allocator touches; anything
// else panics through the embedded nil interface.
type allocSavepoint struct {
	pgx.Tx
	parent   *allocTx
	inserted string
}

func (s *allocSavepoint) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return rowFunc(func(dest ...any) error {
		dealID := args[0].(string)
		if s.parent.steals > 0 {
			s.parent.steals--
			s.parent.ids[dealID] = true // the competing request committed first
			s.parent.aborted = true
			return &pgconn.PgError{Code: "23505", ConstraintName: "deals_deal_id_key"}
		}
		if s.parent.ids[dealID] {
			s.parent.aborted = true
			return &pgconn.PgError{Code: "23505", ConstraintName: "deals_deal_id_key"}
		}
		s.parent.ids[dealID] = true
		s.inserted = dealID
		*dest[0].(*int) = len(s.parent.ids)
		*dest[1].(*time.Time) = time.Now()
		*dest[2].(*time.Time) = time.Now()
		return nil
	})
}

func (s *allocSavepoint) Commit(ctx context.Context) error { return nil }

func (s *allocSavepoint) Rollback(ctx context.Context) error {
	if s.inserted != "" {
		delete(s.parent.ids, s.inserted)
		s.inserted = ""
	}
	s.parent.aborted = false
	s.parent.rollbacks++
	return nil
}

func TestAllocateDealIDSequenceSharedAcrossCustomers(t *testing.T) {
	// Ids taken by a DIFFERENT customer whose name shares the prefix.
	// The sequence must continue from them, not restart at 001.
	tx := &allocTx{ids: map[string]bool{
		"ACME2908001": true,
		"ACME2908002": true,
	}}
	deal := &models.Deal{CustomerID: 7, CompanyID: 1}

	err := allocateDealID(context.Background(), tx, "ACME2908", deal)

	require.NoError(t, err)
	assert.Equal(t, "ACME2908003", deal.DealID)
	assert.True(t, tx.ids["ACME2908003"])
}

func TestAllocateDealIDRetriesAfterDuplicate(t *testing.T) {
	// A concurrent create commits ACME2908002 between our count and insert.
	tx := &allocTx{
		ids:    map[string]bool{"ACME2908001": true},
		steals: 1,
	}
	deal := &models.Deal{CustomerID: 7, CompanyID: 1}

	err := allocateDealID(context.Background(), tx, "ACME2908", deal)

	require.NoError(t, err)
	assert.Equal(t, "ACME2908003", deal.DealID)
	// The losing attempt must roll its savepoint back before recounting,
	// otherwise the recount runs on an aborted transaction.
	assert.Equal(t, 1, tx.rollbacks)
	assert.True(t, tx.ids["ACME2908002"], "competitor's row survives")
}

func TestAllocateDealIDGivesUpAfterMaxRetries(t *testing.T) {
	tx := &allocTx{
		ids:    map[string]bool{},
		steals: maxDealIDRetries,
	}
	deal := &models.Deal{CustomerID: 7, CompanyID: 1}

	err := allocateDealID(context.Background(), tx, "ACME2908", deal)

	require.Error(t, err)
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23505", pgErr.Code)
}
