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

type PaymentHandler struct {
	Service *services.PaymentService
}

func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: service}
}

func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payment, err := h.Service.RecordPayment(r.Context(), companyID, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.UpdatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payment, err := h.Service.UpdatePayment(r.Context(), companyID, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.DeletePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID <= 0 {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.Service.DeletePayment(r.Context(), companyID, req.ID); err != nil {
		serviceError(w, err)
		return
	}
	utils.Message(w, http.StatusOK, "Payment deleted")
}

// PaymentHistory returns the deal plus its payments annotated with the
// balance after each one. The deal is addressed either by the dealId path
// segment or by a ?dealId= query parameter.
func (h *PaymentHandler) PaymentHistory(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}
	raw := mux.Vars(r)["dealId"]
	if raw == "" {
		raw = r.URL.Query().Get("dealId")
	}
	dealID, err := strconv.Atoi(raw)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	deal, history, err := h.Service.PaymentHistory(r.Context(), companyID, dealID)
	if err != nil {
		serviceError(w, err)
		return
	}
	if history == nil {
		history = []*models.PaymentHistoryEntry{}
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"deal":     deal,
		"payments": history,
	})
}
