package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"crm-backend/internal/services"
	"crm-backend/internal/timeutil"
	"crm-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ReportHandler struct {
	Service *services.ReportService
	Archive *services.ArchiveService
}

func NewReportHandler(service *services.ReportService, archive *services.ArchiveService) *ReportHandler {
	return &ReportHandler{Service: service, Archive: archive}
}

// DealsPDF streams the company's full deal ledger as a PDF download
func (h *ReportHandler) DealsPDF(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	data, err := h.Service.GenerateDealsPDF(r.Context(), companyID)
	if err != nil {
		serviceError(w, err)
		return
	}

	filename := fmt.Sprintf("deals_%s.pdf", timeutil.Now().Format("20060102"))
	h.Archive.StoreReport(r.Context(), companyID, filename, "application/pdf", data)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// DealsCSV streams the deal ledger as CSV
func (h *ReportHandler) DealsCSV(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}

	data, err := h.Service.GenerateDealsCSV(r.Context(), companyID)
	if err != nil {
		serviceError(w, err)
		return
	}

	filename := fmt.Sprintf("deals_%s.csv", timeutil.Now().Format("20060102"))
	h.Archive.StoreReport(r.Context(), companyID, filename, "text/csv", data)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// DealStatementPDF streams a single deal's statement with payment history
func (h *ReportHandler) DealStatementPDF(w http.ResponseWriter, r *http.Request) {
	companyID, ok := companyScope(w, r)
	if !ok {
		return
	}
	dealID, err := strconv.Atoi(mux.Vars(r)["dealId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid deal ID")
		return
	}

	data, err := h.Service.GenerateDealStatementPDF(r.Context(), companyID, dealID)
	if err != nil {
		serviceError(w, err)
		return
	}

	filename := fmt.Sprintf("deal_%d_statement.pdf", dealID)
	h.Archive.StoreReport(r.Context(), companyID, filename, "application/pdf", data)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}
