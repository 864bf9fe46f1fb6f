package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
	"crm-backend/internal/repositories"
	"crm-backend/internal/services"
	"crm-backend/pkg/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDealStore backs the handler tests with a single in-memory deal.
type stubDealStore struct {
	deal *models.Deal
}

func (s *stubDealStore) Create(ctx context.Context, deal *models.Deal, createdBy *int) error {
	deal.ID = 1
	deal.DealID = "TEST1503001"
	s.deal = deal
	return nil
}

func (s *stubDealStore) Get(ctx context.Context, id int) (*models.Deal, error) {
	if s.deal == nil || s.deal.ID != id {
		return nil, repositories.ErrNotFound
	}
	return s.deal, nil
}

func (s *stubDealStore) Update(ctx context.Context, companyID int, req *models.UpdateDealRequest) (*models.Deal, error) {
	if s.deal == nil || s.deal.ID != req.ID {
		return nil, repositories.ErrNotFound
	}
	if s.deal.CompanyID != companyID {
		return nil, repositories.ErrForbidden
	}
	return s.deal, nil
}

func (s *stubDealStore) DeleteCascade(ctx context.Context, companyID, id int) error {
	if s.deal == nil || s.deal.ID != id {
		return repositories.ErrNotFound
	}
	s.deal = nil
	return nil
}

func (s *stubDealStore) List(ctx context.Context, filter models.ListDealsFilter) ([]*models.Deal, int, error) {
	if s.deal == nil {
		return nil, 0, nil
	}
	return []*models.Deal{s.deal}, 1, nil
}

func (s *stubDealStore) CustomerDealTotals(ctx context.Context, companyID, page, rowsPerPage int, search string) ([]*models.CustomerDealTotals, int, error) {
	return nil, 0, nil
}

// testRouter registers the deal routes under /{companyId} the way the real
// router does, with the auth context injected for the given user.
func testRouter(store services.DealStore, userID, companyID int) http.Handler {
	h := NewDealHandler(services.NewDealService(store))

	r := mux.NewRouter()
	company := r.PathPrefix("/{companyId}").Subrouter()
	company.HandleFunc("/deals", h.ListDeals).Methods(http.MethodGet)
	company.HandleFunc("/deals", h.CreateDeal).Methods(http.MethodPost)
	company.HandleFunc("/deals", h.UpdateDeal).Methods(http.MethodPut)
	company.HandleFunc("/deals", h.DeleteDeal).Methods(http.MethodDelete)
	company.HandleFunc("/deals/{id}", h.GetDeal).Methods(http.MethodGet)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
		ctx = context.WithValue(ctx, middleware.CompanyIDKey, companyID)
		r.ServeHTTP(w, req.WithContext(ctx))
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, utils.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env utils.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestCreateDealEnvelope(t *testing.T) {
	store := &stubDealStore{}
	router := testRouter(store, 7, 42)

	rec, env := doJSON(t, router, http.MethodPost, "/42/deals", models.CreateDealRequest{
		CustomerID:        3,
		Requirement:       "200 crates",
		DealValue:         10000,
		DealApprovalValue: 9000,
		AdvancePayment:    2000,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "TEST1503001", data["dealId"])
	assert.Equal(t, 7000.0, data["balanceAmount"])
	require.NotNil(t, store.deal)
	assert.Equal(t, 42, store.deal.CompanyID)
}

func TestCompanyMismatchForbidden(t *testing.T) {
	store := &stubDealStore{deal: &models.Deal{ID: 1, CompanyID: 42}}
	router := testRouter(store, 7, 42)

	rec, env := doJSON(t, router, http.MethodGet, "/99/deals/1", nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestNonNumericCompanyIDRejected(t *testing.T) {
	router := testRouter(&stubDealStore{}, 7, 42)

	rec, env := doJSON(t, router, http.MethodGet, "/acme/deals", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestGetDealNotFound(t *testing.T) {
	router := testRouter(&stubDealStore{}, 7, 42)

	rec, env := doJSON(t, router, http.MethodGet, "/42/deals/5", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestListDealsPaginatedEnvelope(t *testing.T) {
	store := &stubDealStore{deal: &models.Deal{ID: 1, DealID: "TEST1503001", CompanyID: 42}}
	router := testRouter(store, 7, 42)

	rec, env := doJSON(t, router, http.MethodGet, "/42/deals?page=1&rowsPerPage=10", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	require.NotNil(t, env.Total)
	assert.Equal(t, 1, *env.Total)
	require.NotNil(t, env.Page)
	assert.Equal(t, 1, *env.Page)
	require.NotNil(t, env.TotalPages)
	assert.Equal(t, 1, *env.TotalPages)
}

func TestListDealsEmptyIsArray(t *testing.T) {
	router := testRouter(&stubDealStore{}, 7, 42)

	rec, env := doJSON(t, router, http.MethodGet, "/42/deals", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := env.Data.([]interface{})
	require.True(t, ok, "data should be a JSON array, not null")
	assert.Empty(t, data)
}

func TestCreateDealRejectsNegativeAmounts(t *testing.T) {
	router := testRouter(&stubDealStore{}, 7, 42)

	rec, env := doJSON(t, router, http.MethodPost, "/42/deals", models.CreateDealRequest{
		CustomerID: 3,
		DealValue:  -100,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestDeleteDealRequiresID(t *testing.T) {
	router := testRouter(&stubDealStore{}, 7, 42)

	rec, _ := doJSON(t, router, http.MethodDelete, "/42/deals", models.DeleteDealRequest{ID: 0})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
