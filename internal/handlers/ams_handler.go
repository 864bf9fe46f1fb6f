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

type AMSHandler struct {
	Service *services.AMSService
}

func NewAMSHandler(service *services.AMSService) *AMSHandler {
	return &AMSHandler{Service: service}
}

func (h *AMSHandler) CreateContract(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.CreateAMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	contract, err := h.Service.CreateContract(r.Context(), companyID, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, contract)
}

func (h *AMSHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid contract ID")
		return
	}

	contract, err := h.Service.GetContract(r.Context(), companyID, id)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, contract)
}

func (h *AMSHandler) ListContracts(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}
	page, rowsPerPage, search := listQuery(r)

	contracts, total, err := h.Service.ListContracts(r.Context(), companyID, page, rowsPerPage, search)
	if err != nil {
		serviceError(w, err)
		return
	}
	if contracts == nil {
		contracts = []*models.AMSContract{}
	}
	utils.Paginated(w, contracts, total, page, rowsPerPage)
}

func (h *AMSHandler) UpdateContract(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.UpdateAMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	contract, err := h.Service.UpdateContract(r.Context(), companyID, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, contract)
}

func (h *AMSHandler) DeleteContract(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.DeleteAMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.DeleteContract(r.Context(), companyID, req.ID); err != nil {
		serviceError(w, err)
		return
	}
	utils.Message(w, http.StatusOK, "Contract deleted")
}
