package utils

import (
	"encoding/json"
	"net/http"
)

// Envelope is the JSON response shape shared by all API endpoints.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	Total      *int        `json:"total,omitempty"`
	Page       *int        `json:"page,omitempty"`
	TotalPages *int        `json:"totalPages,omitempty"`
}

// JSON writes a success envelope with the given status and data.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, status, Envelope{Success: true, Data: data})
}

// Message writes a success envelope carrying only a message.
func Message(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: true, Message: message})
}

// Paginated writes a success envelope with pagination metadata.
func Paginated(w http.ResponseWriter, data interface{}, total, page, rowsPerPage int) {
	totalPages := 0
	if rowsPerPage > 0 {
		totalPages = (total + rowsPerPage - 1) / rowsPerPage
	}
	write(w, http.StatusOK, Envelope{
		Success:    true,
		Data:       data,
		Total:      &total,
		Page:       &page,
		TotalPages: &totalPages,
	})
}

// Error writes a failure envelope with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Success: false, Error: message})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
