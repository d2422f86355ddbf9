package httpapi

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"studioledger/backend/internal/domain"
	"studioledger/backend/internal/store"
)

func (a *API) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.service.MonthlyReport(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if wantsCSV(r) {
		body, err := monthlyReportToCSV(report)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeCSV(w, fmt.Sprintf("monthly-report-%s.csv", report.Month), body)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) handleYearlyReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	year, err := parseYear(query.Get("year"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	month, err := parseOptionalMonth(query.Get("month"))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	summary, err := a.service.PeriodSummary(r.Context(), year, month)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	if wantsCSV(r) {
		body, err := periodSummaryToCSV(summary)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		name := fmt.Sprintf("yearly-report-%d.csv", summary.Year)
		if summary.Month != nil {
			name = fmt.Sprintf("period-report-%d-%02d.csv", summary.Year, *summary.Month)
		}
		writeCSV(w, name, body)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func wantsCSV(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("format")), "csv")
}

func parseYear(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: year is required", store.ErrInvalidRecord)
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("%w: year must be a four digit number", store.ErrInvalidRecord)
	}
	return year, nil
}

func parseOptionalMonth(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	month, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: month must be a number", store.ErrInvalidRecord)
	}
	// 0 asks for the whole year, same as leaving month out.
	if month == 0 {
		return nil, nil
	}
	return &month, nil
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func monthlyReportToCSV(report domain.MonthlyReport) ([]byte, error) {
	rows := [][]string{
		{"section", "key", "value"},
		{"summary", "month", report.Month},
		{"summary", "revenue", report.Revenue.String()},
		{"summary", "expenses", report.Expenses.String()},
		{"summary", "profit", report.Profit.String()},
		{"summary", "sales_count", strconv.Itoa(report.SalesCount)},
		{"summary", "expenses_count", strconv.Itoa(report.ExpensesCount)},
	}
	for _, dist := range report.PartnerDistribution {
		rows = append(rows,
			[]string{"partner", dist.Name + " share_percentage", dist.SharePercentage.String()},
			[]string{"partner", dist.Name + " amount", dist.Amount.String()},
		)
	}
	return encodeCSV(rows)
}

func periodSummaryToCSV(summary domain.PeriodSummary) ([]byte, error) {
	rows := [][]string{{"section", "key", "value"}}
	for _, m := range summary.MonthlyData {
		rows = append(rows,
			[]string{"month", m.Month + " revenue", m.Revenue.String()},
			[]string{"month", m.Month + " expenses", m.Expenses.String()},
			[]string{"month", m.Month + " profit", m.Profit.String()},
		)
	}
	for _, p := range summary.PartnerSummary {
		rows = append(rows,
			[]string{"partner", p.PartnerName + " total_share", p.TotalShare.String()},
			[]string{"partner", p.PartnerName + " total_paid", p.TotalPaid.String()},
			[]string{"partner", p.PartnerName + " total_due", p.TotalDue.String()},
		)
	}
	return encodeCSV(rows)
}

func encodeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
