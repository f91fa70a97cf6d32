package accountinghttp

import (
	"net/http"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type createPeriodRequest struct {
	Name      string                `json:"name" validate:"required,max=100"`
	Type      accounting.PeriodType `json:"type" validate:"required,oneof=MONTHLY QUARTERLY ANNUAL"`
	StartDate string                `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string                `json:"endDate" validate:"required,datetime=2006-01-02"`
	Notes     string                `json:"notes" validate:"max=1000"`
}

type updatePeriodRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	StartDate *string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
}

func (h *Handler) createPeriod(w http.ResponseWriter, r *http.Request) {
	var req createPeriodRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	period, err := h.svc.Periods.CreatePeriod(r.Context(), periods.CreatePeriodInput{
		Name:      req.Name,
		Type:      req.Type,
		StartDate: *start,
		EndDate:   *end,
		Notes:     req.Notes,
		ActorID:   actor(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Created(w, period, "Period created successfully")
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, total, err := h.svc.Periods.ListPeriods(r.Context(), periods.PeriodFilter{
		Page:   page.Page,
		Limit:  page.Limit,
		Status: accounting.PeriodStatus(r.URL.Query().Get("status")),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPaginated(list, page.Page, page.Limit, total))
}

func (h *Handler) currentPeriod(w http.ResponseWriter, r *http.Request) {
	period, err := h.svc.Periods.GetCurrentPeriod(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, period)
}

func (h *Handler) retainedEarnings(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.Periods.RetainedEarnings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, map[string]any{"retainedEarnings": total})
}

func (h *Handler) getPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	period, err := h.svc.Periods.GetPeriod(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, period)
}

func (h *Handler) updatePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updatePeriodRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	start, err := optionalDate("startDate", req.StartDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := optionalDate("endDate", req.EndDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	period, err := h.svc.Periods.UpdatePeriod(r.Context(), id, periods.UpdatePeriodInput{
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		Notes:     req.Notes,
		ActorID:   actor(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Data: period, Message: "Period updated successfully"})
}

func (h *Handler) deletePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Periods.DeletePeriod(r.Context(), id, actor(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, "Period deleted successfully")
}

func (h *Handler) closePeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Periods.ClosePeriod(r.Context(), id, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Data: res, Message: res.Message})
}

func (h *Handler) lockPeriod(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	period, err := h.svc.Periods.LockPeriod(r.Context(), id, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Data: period, Message: "Period locked successfully"})
}

func (h *Handler) periodSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	summary, err := h.svc.Periods.GetPeriodSummary(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, summary)
}
