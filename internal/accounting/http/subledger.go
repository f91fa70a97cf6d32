package accountinghttp

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/subledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/validation"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type createRecordRequest struct {
	Kind              subledger.Kind      `json:"kind" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Name              string              `json:"name" validate:"required,max=200"`
	Amount            decimal.Decimal     `json:"amount"`
	Date              string              `json:"date" validate:"required,datetime=2006-01-02"`
	SharesOutstanding *int64              `json:"sharesOutstanding"`
	ParValue          decimal.NullDecimal `json:"parValue"`
	Description       string              `json:"description" validate:"max=1000"`
}

type updateRecordRequest struct {
	Name              *string              `json:"name" validate:"omitempty,min=1,max=200"`
	Amount            *decimal.Decimal     `json:"amount"`
	Date              *string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
	IsActive          *bool                `json:"isActive"`
	SharesOutstanding *int64               `json:"sharesOutstanding"`
	ParValue          *decimal.NullDecimal `json:"parValue"`
	Description       *string              `json:"description" validate:"omitempty,max=1000"`
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, warnings, err := h.svc.Subledger.Create(r.Context(), subledger.CreateInput{
		Kind:              req.Kind,
		Name:              req.Name,
		Amount:            req.Amount,
		Date:              *date,
		SharesOutstanding: req.SharesOutstanding,
		ParValue:          req.ParValue,
		Description:       req.Description,
		ActorID:           actor(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, httpx.Envelope{
		Success: true,
		Data:    rec,
		Message: "Record created successfully",
		Details: warnings,
	})
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	active := queryBool(r, "activeOnly")
	list, total, err := h.svc.Subledger.List(r.Context(), subledger.ListFilter{
		Kind:       subledger.Kind(r.URL.Query().Get("kind")),
		ActiveOnly: active != nil && *active,
		Page:       page.Page,
		Limit:      page.Limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPaginated(list, page.Page, page.Limit, total))
}

func (h *Handler) subledgerTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.svc.Subledger.Totals(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, map[string]any{
		"totals":           totals,
		"retainedEarnings": totals.RetainedEarnings(),
		"totalEquity":      totals.TotalEquity(),
	})
}

func (h *Handler) reconciliation(w http.ResponseWriter, r *http.Request) {
	asOf, err := queryDate(r, "asOf")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.svc.Subledger.Reconcile(r.Context(), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, rec)
}

func (h *Handler) validateBatch(w http.ResponseWriter, r *http.Request) {
	var req validation.Entry
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, h.svc.Subledger.ValidateBatch(req))
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.svc.Subledger.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, rec)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateRecordRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := optionalDate("date", req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, warnings, err := h.svc.Subledger.Update(r.Context(), id, subledger.UpdateInput{
		Name:              req.Name,
		Amount:            req.Amount,
		Date:              date,
		IsActive:          req.IsActive,
		SharesOutstanding: req.SharesOutstanding,
		ParValue:          req.ParValue,
		Description:       req.Description,
		ActorID:           actor(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{
		Success: true,
		Data:    rec,
		Message: "Record updated successfully",
		Details: warnings,
	})
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Subledger.Delete(r.Context(), id, actor(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, "Record deleted successfully")
}
