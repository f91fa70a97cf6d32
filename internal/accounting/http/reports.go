package accountinghttp

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type adjustmentRequest struct {
	Description string                 `json:"description" validate:"required,max=500"`
	AccountID   int64                  `json:"accountId" validate:"required,gt=0"`
	Amount      decimal.Decimal        `json:"amount"`
	Kind        reports.AdjustmentKind `json:"type" validate:"required,oneof=accrue defer"`
}

type accrualsRequest struct {
	PeriodID    int64               `json:"periodId" validate:"required,gt=0"`
	Adjustments []adjustmentRequest `json:"adjustments" validate:"required,min=1,dive"`
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	periodID, err := queryInt64(r, "periodId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	is, err := h.svc.Reports.IncomeStatement(r.Context(), periodID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, is)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDate(r, "asOf")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bs, err := h.svc.Reports.BalanceSheet(r.Context(), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, bs)
}

func (h *Handler) cashFlow(w http.ResponseWriter, r *http.Request) {
	periodID, err := requiredPeriodID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cf, err := h.svc.Reports.CashFlowStatement(r.Context(), periodID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, cf)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDate(r, "asOf")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tb, err := h.svc.Reports.TrialBalance(r.Context(), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, tb)
}

func (h *Handler) ratios(w http.ResponseWriter, r *http.Request) {
	periodID, err := requiredPeriodID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ratios, err := h.svc.Reports.FinancialRatios(r.Context(), periodID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, ratios)
}

func (h *Handler) comparative(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("periodIds"))
	var ids []int64
	if raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || id <= 0 {
				h.fail(w, r, fmt.Errorf("%w: periodIds must be a comma separated list of ids", httpx.ErrBadRequest))
				return
			}
			ids = append(ids, id)
		}
	}
	kind := reports.Kind(r.URL.Query().Get("type"))
	if kind == "" {
		kind = reports.KindIncomeStatement
	}
	report, err := h.svc.Reports.ComparativeReport(r.Context(), ids, kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, report)
}

func (h *Handler) accruals(w http.ResponseWriter, r *http.Request) {
	var req accrualsRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	adjustments := make([]reports.Adjustment, 0, len(req.Adjustments))
	for _, adj := range req.Adjustments {
		adjustments = append(adjustments, reports.Adjustment{
			Description: adj.Description,
			AccountID:   adj.AccountID,
			Amount:      adj.Amount,
			Kind:        adj.Kind,
		})
	}
	res, err := h.svc.Reports.CreateAccrualEntries(r.Context(), req.PeriodID, adjustments, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Created(w, res, res.Message)
}

// exportWorkbook builds the whole workbook before writing so failures still
// produce a JSON error.
func (h *Handler) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	periodID, err := requiredPeriodID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f, err := h.svc.Reports.ExportWorkbook(r.Context(), periodID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ledger-period-%d.xlsx"`, periodID))
	w.WriteHeader(http.StatusOK)
	if err := f.Write(w); err != nil {
		h.logger.Error("write workbook", slog.Int64("period_id", periodID), slog.Any("error", err))
	}
}

func requiredPeriodID(r *http.Request) (int64, error) {
	id, err := queryInt64(r, "periodId")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: periodId is required", httpx.ErrBadRequest)
	}
	return id, nil
}
