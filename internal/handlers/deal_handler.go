package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
	"crm-backend/internal/services"
	"crm-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type DealHandler struct {
	Service *services.DealService
}

func NewDealHandler(service *services.DealService) *DealHandler {
	return &DealHandler{Service: service}
}

func (h *DealHandler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.CreateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var createdBy *int
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		createdBy = &userID
	}

	deal, err := h.Service.CreateDeal(r.Context(), companyID, &req, createdBy)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, deal)
}

func (h *DealHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	deal, err := h.Service.GetDeal(r.Context(), companyID, id)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, deal)
}

func (h *DealHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}
	page, rowsPerPage, search := listQuery(r)

	filter := models.ListDealsFilter{
		CompanyID:   companyID,
		Page:        page,
		RowsPerPage: rowsPerPage,
		Search:      search,
		OrderBy:     r.URL.Query().Get("orderBy"),
		Order:       r.URL.Query().Get("order"),
	}
	deals, total, err := h.Service.ListDeals(r.Context(), filter)
	if err != nil {
		serviceError(w, err)
		return
	}
	if deals == nil {
		deals = []*models.Deal{}
	}
	utils.Paginated(w, deals, total, page, rowsPerPage)
}

func (h *DealHandler) UpdateDeal(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.UpdateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deal, err := h.Service.UpdateDeal(r.Context(), companyID, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, deal)
}

func (h *DealHandler) DeleteDeal(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.DeleteDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.DeleteDeal(r.Context(), companyID, req.ID); err != nil {
		serviceError(w, err)
		return
	}
	utils.Message(w, http.StatusOK, "Deal deleted")
}
