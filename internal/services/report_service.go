package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"crm-backend/internal/models"
	"crm-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// ReportService renders deal ledgers as PDF and CSV documents
type ReportService struct {
	Deals    DealStore
	Payments PaymentStore
}

func NewReportService(deals DealStore, payments PaymentStore) *ReportService {
	return &ReportService{Deals: deals, Payments: payments}
}

func (s *ReportService) listAllDeals(ctx context.Context, companyID int) ([]*models.Deal, error) {
	// Pull the full set page by page, the repository caps page size
	var all []*models.Deal
	for page := 1; ; page++ {
		deals, total, err := s.Deals.List(ctx, models.ListDealsFilter{
			CompanyID:   companyID,
			Page:        page,
			RowsPerPage: 100,
			OrderBy:     "dealId",
		})
		if err != nil {
			return nil, err
		}
		all = append(all, deals...)
		if len(all) >= total || len(deals) == 0 {
			break
		}
	}
	return all, nil
}

// GenerateDealsPDF renders a company's full deal list as a landscape A4 PDF
func (s *ReportService) GenerateDealsPDF(ctx context.Context, companyID int) ([]byte, error) {
	deals, err := s.listAllDeals(ctx, companyID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A4", "") // Landscape for more columns
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, "Deal Ledger Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, fmt.Sprintf("Generated: %s", timeutil.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(30, 7, "Deal ID", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 7, "Customer", "1", 0, "C", true, 0, "")
	pdf.CellFormat(72, 7, "Requirement", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Deal Value", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Approved", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Balance", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Date", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	var totalValue, totalBalance float64
	for _, d := range deals {
		if pdf.GetY() > 180 {
			pdf.AddPage()
		}
		name := d.CustomerName
		if len(name) > 28 {
			name = name[:25] + "..."
		}
		requirement := d.Requirement
		if len(requirement) > 42 {
			requirement = requirement[:39] + "..."
		}
		pdf.CellFormat(30, 6, d.DealID, "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(72, 6, requirement, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("Rs. %.2f", d.DealValue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("Rs. %.2f", d.DealApprovalValue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("Rs. %.2f", d.BalanceAmount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, d.CreatedAt.Format("02-01-06"), "1", 1, "C", false, 0, "")
		totalValue += d.DealValue
		totalBalance += d.BalanceAmount
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(152, 7, fmt.Sprintf("Total deals: %d", len(deals)), "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 7, fmt.Sprintf("Rs. %.2f", totalValue), "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "", "1", 0, "R", true, 0, "")
	pdf.CellFormat(55, 7, fmt.Sprintf("Outstanding: Rs. %.2f", totalBalance), "1", 1, "R", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateDealStatementPDF renders one deal with its full payment history
func (s *ReportService) GenerateDealStatementPDF(ctx context.Context, companyID, dealID int) ([]byte, error) {
	deal, err := s.Deals.Get(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal.CompanyID != companyID {
		return nil, fmt.Errorf("deal %d not in company %d", dealID, companyID)
	}
	payments, err := s.Payments.ListByDeal(ctx, companyID, dealID)
	if err != nil {
		return nil, err
	}
	history := RunningBalances(deal.DealApprovalValue, payments)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Deal Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Deal Information", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Deal ID: %s", deal.DealID), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Customer: %s", deal.CustomerName), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Deal Value: Rs. %.2f", deal.DealValue), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Approved: Rs. %.2f", deal.DealApprovalValue), "RB", 1, "L", false, 0, "")
	pdf.Ln(5)

	if len(history) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, "Payment History", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(35, 7, "Date", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 7, "Amount", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 7, "Type", "1", 0, "C", true, 0, "")
		pdf.CellFormat(65, 7, "Balance After", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, h := range history {
			pdf.CellFormat(35, 6, h.PaymentDate.Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 6, fmt.Sprintf("Rs. %.2f", h.Amount), "1", 0, "R", false, 0, "")
			pdf.CellFormat(45, 6, string(h.PaymentType), "1", 0, "C", false, 0, "")
			pdf.CellFormat(65, 6, fmt.Sprintf("Rs. %.2f", h.RunningBalance), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(5)
	}

	if deal.BalanceAmount > 0 {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 14)
	balanceText := fmt.Sprintf("Balance Due: Rs. %.2f", deal.BalanceAmount)
	if deal.BalanceAmount <= 0 {
		balanceText = "FULLY PAID"
	}
	pdf.CellFormat(190, 10, balanceText, "1", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GenerateDealsCSV exports a company's deals as CSV
func (s *ReportService) GenerateDealsCSV(ctx context.Context, companyID int) ([]byte, error) {
	deals, err := s.listAllDeals(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Deal ID", "Customer", "Requirement", "Deal Value", "Approval Value", "Advance", "Balance", "Created"}); err != nil {
		return nil, err
	}
	for _, d := range deals {
		record := []string{
			d.DealID,
			d.CustomerName,
			d.Requirement,
			strconv.FormatFloat(d.DealValue, 'f', 2, 64),
			strconv.FormatFloat(d.DealApprovalValue, 'f', 2, 64),
			strconv.FormatFloat(d.AdvancePayment, 'f', 2, 64),
			strconv.FormatFloat(d.BalanceAmount, 'f', 2, 64),
			d.CreatedAt.Format("2006-01-02"),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
