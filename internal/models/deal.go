package models

import "time"

// Deal is a negotiated sale tied to one customer. balance_amount is the
// authoritative remaining balance: deal_approval_value minus the sum of all
// currently existing payments. It is only ever mutated together with a
// payment row inside one transaction.
type Deal struct {
	ID                int       `json:"id"`
	DealID            string    `json:"dealId"`
	CustomerID        int       `json:"customerId"`
	CompanyID         int       `json:"companyId"`
	Requirement       string    `json:"requirement"`
	DealValue         float64   `json:"dealValue"`
	DealApprovalValue float64   `json:"dealApprovalValue"`
	AdvancePayment    float64   `json:"advancePayment"`
	BalanceAmount     float64   `json:"balanceAmount"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`

	// Joined from customers for list views
	CustomerName  string `json:"customerName,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty"`
}

// CreateDealRequest is the body of POST /{companyId}/deals
type CreateDealRequest struct {
	CustomerID        int     `json:"customerId"`
	Requirement       string  `json:"requirement"`
	DealValue         float64 `json:"dealValue"`
	DealApprovalValue float64 `json:"dealApprovalValue"`
	AdvancePayment    float64 `json:"advancePayment"`
	BalanceAmount     float64 `json:"balanceAmount"`
}

// UpdateDealRequest is the body of PUT /{companyId}/deals.
// Nil fields are left untouched.
type UpdateDealRequest struct {
	ID                int      `json:"id"`
	Requirement       *string  `json:"requirement"`
	DealValue         *float64 `json:"dealValue"`
	DealApprovalValue *float64 `json:"dealApprovalValue"`
	AdvancePayment    *float64 `json:"advancePayment"`
}

// DeleteDealRequest is the body of DELETE /{companyId}/deals
type DeleteDealRequest struct {
	ID int `json:"id"`
}

// ListDealsFilter drives pagination, search and sorting of deal listings
type ListDealsFilter struct {
	CompanyID   int
	Page        int
	RowsPerPage int
	Search      string
	OrderBy     string
	Order       string
}

// CustomerDealTotals is one row of the per-customer rollup view
type CustomerDealTotals struct {
	CustomerID     int     `json:"customerId"`
	CustomerName   string  `json:"customerName"`
	CustomerPhone  string  `json:"customerPhone"`
	DealCount      int     `json:"dealCount"`
	TotalDealValue float64 `json:"totalDealValue"`
	TotalBalance   float64 `json:"totalBalance"`
}
