package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"crm-backend/internal/models"
	"crm-backend/internal/services"
	"crm-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type CustomerHandler struct {
	Service     *services.CustomerService
	DealService *services.DealService
}

func NewCustomerHandler(service *services.CustomerService, dealService *services.DealService) *CustomerHandler {
	return &CustomerHandler{Service: service, DealService: dealService}
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.Service.CreateCustomer(r.Context(), companyID, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	customer, err := h.Service.GetCustomer(r.Context(), companyID, id)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}
	page, rowsPerPage, search := listQuery(r)

	customers, total, err := h.Service.ListCustomers(r.Context(), companyID, page, rowsPerPage, search)
	if err != nil {
		serviceError(w, err)
		return
	}
	if customers == nil {
		customers = []*models.Customer{}
	}
	utils.Paginated(w, customers, total, page, rowsPerPage)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.Service.UpdateCustomer(r.Context(), companyID, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.DeleteCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.DeleteCustomer(r.Context(), companyID, req.ID); err != nil {
		serviceError(w, err)
		return
	}
	utils.Message(w, http.StatusOK, "Customer deleted")
}

// DealTotals serves the per-customer rollup of deal values and balances
func (h *CustomerHandler) DealTotals(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}
	page, rowsPerPage, search := listQuery(r)

	totals, total, err := h.DealService.CustomerTotals(r.Context(), companyID, page, rowsPerPage, search)
	if err != nil {
		serviceError(w, err)
		return
	}
	if totals == nil {
		totals = []*models.CustomerDealTotals{}
	}
	utils.Paginated(w, totals, total, page, rowsPerPage)
}
