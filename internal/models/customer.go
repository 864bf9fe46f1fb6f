package models

import "time"

// Customer owns zero or more deals and AMS contracts, all scoped to one company
type Customer struct {
	ID        int       `json:"id"`
	CompanyID int       `json:"companyId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateCustomerRequest is the body of POST /{companyId}/customers
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// UpdateCustomerRequest is the body of PUT /{companyId}/customers
type UpdateCustomerRequest struct {
	ID      int     `json:"id"`
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

// DeleteCustomerRequest is the body of DELETE /{companyId}/customers.
// Deletion cascades: payments, deals and AMS contracts go first.
type DeleteCustomerRequest struct {
	ID int `json:"id"`
}
