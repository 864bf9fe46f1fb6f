package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"crm-backend/internal/config"
	"crm-backend/internal/models"
	"crm-backend/internal/repositories"

	razorpay "github.com/razorpay/razorpay-go"
)

var ErrPaymentsDisabled = errors.New("online payments are not configured")

// toPaise converts a rupee amount to integer paise. Rounded, not truncated:
// binary float64 cannot hold most two-decimal amounts exactly, and
// truncation would shave a paise off values like 8.20.
func toPaise(amount float64) int {
	return int(math.Round(amount * 100))
}

type RazorpayService struct {
	cfg             config.RazorpayConfig
	transactionRepo *repositories.OnlineTransactionRepository
	paymentRepo     PaymentStore
	dealRepo        DealGetter
}

func NewRazorpayService(
	cfg config.RazorpayConfig,
	transactionRepo *repositories.OnlineTransactionRepository,
	paymentRepo PaymentStore,
	dealRepo DealGetter,
) *RazorpayService {
	return &RazorpayService{
		cfg:             cfg,
		transactionRepo: transactionRepo,
		paymentRepo:     paymentRepo,
		dealRepo:        dealRepo,
	}
}

func (s *RazorpayService) client() *razorpay.Client {
	if s.cfg.KeyID == "" || s.cfg.KeySecret == "" {
		return nil
	}
	return razorpay.NewClient(s.cfg.KeyID, s.cfg.KeySecret)
}

// CreatePaymentLink raises a Razorpay payment link for a deal's balance and
// records the pending transaction. Amount zero means the full outstanding
// balance.
func (s *RazorpayService) CreatePaymentLink(ctx context.Context, companyID int, req *models.CreatePaymentLinkRequest) (*models.PaymentLinkResponse, error) {
	client := s.client()
	if client == nil {
		return nil, ErrPaymentsDisabled
	}
	if req.DealID <= 0 {
		return nil, fmt.Errorf("%w: dealId is required", ErrValidation)
	}
	if req.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}

	deal, err := s.dealRepo.Get(ctx, req.DealID)
	if err != nil {
		return nil, err
	}
	if deal.CompanyID != companyID {
		return nil, repositories.ErrForbidden
	}

	amount := req.Amount
	if amount == 0 {
		amount = deal.BalanceAmount
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: deal has no outstanding balance", ErrValidation)
	}
	if amount > deal.BalanceAmount {
		return nil, repositories.ErrInsufficientBalance
	}

	linkData := map[string]interface{}{
		"amount":       toPaise(amount),
		"currency":     "INR",
		"description":  fmt.Sprintf("Payment for deal %s", deal.DealID),
		"reference_id": fmt.Sprintf("%s-%d", deal.DealID, time.Now().Unix()),
		"notes": map[string]interface{}{
			"deal_id":    deal.ID,
			"company_id": deal.CompanyID,
		},
	}
	link, err := client.PaymentLink.Create(linkData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay payment link: %w", err)
	}

	linkID, _ := link["id"].(string)
	shortURL, _ := link["short_url"].(string)
	if linkID == "" {
		return nil, fmt.Errorf("razorpay returned no link id")
	}

	tx := &models.OnlineTransaction{
		RazorpayLinkID: linkID,
		DealID:         deal.ID,
		CompanyID:      deal.CompanyID,
		Amount:         amount,
		Status:         models.OnlineTxStatusCreated,
	}
	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	return &models.PaymentLinkResponse{
		LinkID:   linkID,
		ShortURL: shortURL,
		Amount:   amount,
		Status:   tx.Status,
	}, nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw body. Fails closed when no webhook secret is configured.
func (s *RazorpayService) VerifyWebhookSignature(body []byte, signature string) bool {
	if s.cfg.WebhookSecret == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(s.cfg.WebhookSecret))
	h.Write(body)
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"payment_link"`
		Payment struct {
			Entity struct {
				ID           string `json:"id"`
				Method       string `json:"method"`
				AcquirerData struct {
					RRN              string `json:"rrn"`
					UPITransactionID string `json:"upi_transaction_id"`
					BankTransaction  string `json:"bank_transaction_id"`
				} `json:"acquirer_data"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook processes a verified Razorpay event. A paid link finalizes
// the transaction and records an "Online Payment" through the regular
// ledger path, so the deal balance updates atomically.
func (s *RazorpayService) HandleWebhook(ctx context.Context, body []byte) error {
	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("malformed webhook payload: %w", err)
	}

	linkID := event.Payload.PaymentLink.Entity.ID
	if linkID == "" {
		log.Printf("[Razorpay] ignoring event %s without payment link", event.Event)
		return nil
	}

	switch event.Event {
	case "payment_link.paid":
		return s.handleLinkPaid(ctx, linkID, &event)
	case "payment_link.expired", "payment_link.cancelled":
		reason := event.Event
		err := s.transactionRepo.MarkFailed(ctx, linkID, reason)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil // unknown or already finalized
		}
		return err
	default:
		log.Printf("[Razorpay] ignoring event %s", event.Event)
		return nil
	}
}

func (s *RazorpayService) handleLinkPaid(ctx context.Context, linkID string, event *webhookEvent) error {
	payment := event.Payload.Payment.Entity
	utr := payment.AcquirerData.RRN
	if utr == "" {
		utr = payment.AcquirerData.UPITransactionID
	}
	if utr == "" {
		utr = payment.AcquirerData.BankTransaction
	}

	err := s.transactionRepo.MarkSuccess(ctx, linkID, payment.ID, payment.Method, utr)
	if errors.Is(err, repositories.ErrNotFound) {
		// Redelivered webhook, the transaction is already finalized
		return nil
	}
	if err != nil {
		return err
	}

	tx, err := s.transactionRepo.GetByLinkID(ctx, linkID)
	if err != nil {
		return err
	}

	remarks := fmt.Sprintf("Razorpay payment %s", payment.ID)
	if utr != "" {
		remarks += " | UTR: " + utr
	}
	ledgerPayment := &models.Payment{
		DealID:      tx.DealID,
		Amount:      tx.Amount,
		PaymentDate: time.Now(),
		PaymentType: models.PaymentTypeOnline,
		Remarks:     remarks,
	}
	if err := s.paymentRepo.Create(ctx, tx.CompanyID, ledgerPayment, nil); err != nil {
		// The transaction is marked successful but the ledger write failed,
		// surface it loudly for manual reconciliation
		log.Printf("[Razorpay] ledger write failed for link %s: %v", linkID, err)
		return err
	}
	return nil
}
