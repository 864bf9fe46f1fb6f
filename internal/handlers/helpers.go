package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"crm-backend/internal/middleware"
	"crm-backend/internal/repositories"
	"crm-backend/internal/services"
	"crm-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// companyScope resolves the companyId path segment and checks it against
// the authenticated user's company. Writes the error response itself and
// returns ok=false when the request must not proceed.
func companyScope(w http.ResponseWriter, r *http.Request) (int, bool) {
	companyID, err := strconv.Atoi(mux.Vars(r)["companyId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid company ID")
		return 0, false
	}

	tokenCompany, ok := middleware.GetCompanyIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Unauthorized")
		return 0, false
	}
	if tokenCompany != companyID {
		utils.Error(w, http.StatusForbidden, "Access to this company is not allowed")
		return 0, false
	}
	return companyID, true
}

// listQuery parses the shared pagination and search query parameters
func listQuery(r *http.Request) (page, rowsPerPage int, search string) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	rowsPerPage, _ = strconv.Atoi(q.Get("rowsPerPage"))
	if rowsPerPage < 1 {
		rowsPerPage = 10
	}
	return page, rowsPerPage, q.Get("search")
}

// serviceError maps service and repository errors onto HTTP statuses
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repositories.ErrInsufficientBalance):
		utils.Error(w, http.StatusBadRequest, "Payment amount exceeds outstanding balance")
	case errors.Is(err, repositories.ErrEmployeeNotFound):
		utils.Error(w, http.StatusNotFound, "Employee not found")
	case errors.Is(err, repositories.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "Record not found")
	case errors.Is(err, repositories.ErrForbidden):
		utils.Error(w, http.StatusForbidden, "Record belongs to another company")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.Error(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrInvalidTOTPCode),
		errors.Is(err, services.ErrTOTPNotEnabled),
		errors.Is(err, services.ErrNoTOTPSecret):
		utils.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrPaymentsDisabled):
		utils.Error(w, http.StatusServiceUnavailable, "Online payments are not configured")
	default:
		log.Printf("[HTTP] internal error: %v", err)
		utils.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
