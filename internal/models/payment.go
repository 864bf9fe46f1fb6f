package models

import "time"

// PaymentType enumerates the accepted payment instruments
type PaymentType string

const (
	PaymentTypeCash    PaymentType = "Cash"
	PaymentTypeBank    PaymentType = "Bank Transfer"
	PaymentTypeCheque  PaymentType = "Cheque"
	PaymentTypeOnline  PaymentType = "Online Payment"
	PaymentTypeCard    PaymentType = "Credit/Debit Card"
	PaymentTypeUPI     PaymentType = "UPI"
	PaymentTypeAdvance PaymentType = "Advance"
)

// Valid reports whether the payment type is one of the accepted instruments
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeCash, PaymentTypeBank, PaymentTypeCheque,
		PaymentTypeOnline, PaymentTypeCard, PaymentTypeUPI, PaymentTypeAdvance:
		return true
	}
	return false
}

// Payment is a single recorded money transfer against a deal's balance
type Payment struct {
	ID          int         `json:"id"`
	DealID      int         `json:"dealId"`
	Amount      float64     `json:"amount"`
	PaymentDate time.Time   `json:"paymentDate"`
	PaymentType PaymentType `json:"paymentType"`
	Remarks     string      `json:"remarks"`
	CreatedBy   *int        `json:"createdById,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	// Joined from users for display
	CreatedByName  string `json:"createdByName,omitempty"`
	CreatedByEmail string `json:"createdByEmail,omitempty"`
}

// CreatePaymentRequest is the body of POST /{companyId}/deals/payments
type CreatePaymentRequest struct {
	DealID      int         `json:"dealId"`
	Amount      float64     `json:"amount"`
	PaymentDate string      `json:"paymentDate"` // YYYY-MM-DD, defaults to today
	PaymentType PaymentType `json:"paymentType"`
	Remarks     string      `json:"remarks"`
	CreatedByID *int        `json:"createdById"`
}

// UpdatePaymentRequest is the body of PUT /{companyId}/deals/payments.
// Nil fields are left unchanged.
type UpdatePaymentRequest struct {
	ID          int          `json:"id"`
	Amount      *float64     `json:"amount"`
	PaymentDate *string      `json:"paymentDate"`
	PaymentType *PaymentType `json:"paymentType"`
	Remarks     *string      `json:"remarks"`
	CreatedByID *int         `json:"createdById"`
}

// DeletePaymentRequest is the body of DELETE /{companyId}/deals/payments
type DeletePaymentRequest struct {
	ID int `json:"id"`
}

// PaymentHistoryEntry annotates a payment with the deal balance as it stood
// immediately after that payment was applied
type PaymentHistoryEntry struct {
	Payment
	RunningBalance float64 `json:"runningBalance"`
}
