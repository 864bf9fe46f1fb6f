package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"crm-backend/internal/models"
	"crm-backend/internal/repositories"
	"crm-backend/internal/services"
	"crm-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type RazorpayHandler struct {
	Service *services.RazorpayService
	TxRepo  *repositories.OnlineTransactionRepository
}

func NewRazorpayHandler(service *services.RazorpayService, txRepo *repositories.OnlineTransactionRepository) *RazorpayHandler {
	return &RazorpayHandler{Service: service, TxRepo: txRepo}
}

// CreatePaymentLink raises a payment link for a deal's outstanding balance
func (h *RazorpayHandler) CreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	var req models.CreatePaymentLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	link, err := h.Service.CreatePaymentLink(r.Context(), companyID, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, link)
}

// ListDealTransactions returns the online transactions raised for a deal
func (h *RazorpayHandler) ListDealTransactions(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}
	dealID, err := strconv.Atoi(mux.Vars(r)["dealId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	txs, err := h.TxRepo.ListByDeal(r.Context(), companyID, dealID)
	if err != nil {
		serviceError(w, err)
		return
	}
	if txs == nil {
		txs = []*models.OnlineTransaction{}
	}
	utils.JSON(w, http.StatusOK, txs)
}

// Webhook receives Razorpay events. Signature verification happens against
// the raw body before any parsing.
func (h *RazorpayHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Unreadable body")
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")
	if !h.Service.VerifyWebhookSignature(body, signature) {
		utils.Error(w, http.StatusUnauthorized, "Invalid webhook signature")
		return
	}

	if err := h.Service.HandleWebhook(r.Context(), body); err != nil {
		serviceError(w, err)
		return
	}
	utils.Message(w, http.StatusOK, "Webhook processed")
}
