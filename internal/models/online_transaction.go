package models

import "time"

// OnlineTxStatus tracks a Razorpay payment link through its lifecycle
const (
	OnlineTxStatusCreated = "CREATED"
	OnlineTxStatusSuccess = "SUCCESS"
	OnlineTxStatusFailed  = "FAILED"
)

// OnlineTransaction records a Razorpay payment link raised for a deal's
// outstanding balance. A successful transaction produces a regular Payment
// of type "Online Payment" through the ledger path.
type OnlineTransaction struct {
	ID                int       `json:"id"`
	RazorpayLinkID    string    `json:"razorpayLinkId"`
	DealID            int       `json:"dealId"`
	CompanyID         int       `json:"companyId"`
	Amount            float64   `json:"amount"`
	Status            string    `json:"status"`
	RazorpayPaymentID string    `json:"razorpayPaymentId,omitempty"`
	Method            string    `json:"method,omitempty"`
	UTR               string    `json:"utr,omitempty"`
	ErrorReason       string    `json:"errorReason,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CreatePaymentLinkRequest is the body of POST /{companyId}/deals/payments/link
type CreatePaymentLinkRequest struct {
	DealID int     `json:"dealId"`
	Amount float64 `json:"amount"` // 0 means full outstanding balance
}

// PaymentLinkResponse is returned after a payment link is created
type PaymentLinkResponse struct {
	LinkID   string  `json:"linkId"`
	ShortURL string  `json:"shortUrl"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
}
