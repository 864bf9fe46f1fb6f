package models

import "time"

// AMSContract is an Annual Maintenance Service record: a recurring-visit
// service contract tied to a customer and product.
type AMSContract struct {
	ID            int        `json:"id"`
	CustomerID    int        `json:"customerId"`
	CompanyID     int        `json:"companyId"`
	Product       string     `json:"product"`
	StartDate     time.Time  `json:"startDate"`
	EndDate       time.Time  `json:"endDate"`
	VisitsPerYear int        `json:"visitsPerYear"`
	NextVisitDate *time.Time `json:"nextVisitDate"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"` // active or expired
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	CustomerName string `json:"customerName,omitempty"`
}

// CreateAMSRequest is the body of POST /{companyId}/ams
type CreateAMSRequest struct {
	CustomerID    int     `json:"customerId"`
	Product       string  `json:"product"`
	StartDate     string  `json:"startDate"` // YYYY-MM-DD
	EndDate       string  `json:"endDate"`
	VisitsPerYear int     `json:"visitsPerYear"`
	NextVisitDate string  `json:"nextVisitDate"`
	Amount        float64 `json:"amount"`
	Notes         string  `json:"notes"`
}

// UpdateAMSRequest is the body of PUT /{companyId}/ams
type UpdateAMSRequest struct {
	ID            int      `json:"id"`
	Product       *string  `json:"product"`
	EndDate       *string  `json:"endDate"`
	VisitsPerYear *int     `json:"visitsPerYear"`
	NextVisitDate *string  `json:"nextVisitDate"`
	Amount        *float64 `json:"amount"`
	Status        *string  `json:"status"`
	Notes         *string  `json:"notes"`
}

// DeleteAMSRequest is the body of DELETE /{companyId}/ams
type DeleteAMSRequest struct {
	ID int `json:"id"`
}
