package accountinghttp

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyModule = "transactions"
)

type createTransactionRequest struct {
	Type        accounting.TransactionType `json:"type" validate:"required,oneof=SALES PURCHASES PAYMENTS RECEIPTS ADJUSTMENTS DEPRECIATION"`
	Description string                     `json:"description" validate:"required,max=500"`
	Amount      decimal.Decimal            `json:"amount"`
	Date        string                     `json:"date" validate:"required,datetime=2006-01-02"`
	PeriodID    int64                      `json:"periodId" validate:"gte=0"`
	Reference   string                     `json:"reference" validate:"max=100"`
	AssetID     *int64                     `json:"assetId"`
	LiabilityID *int64                     `json:"liabilityId"`
	EquityID    *int64                     `json:"equityId"`
	RevenueID   *int64                     `json:"revenueId"`
	ExpenseID   *int64                     `json:"expenseId"`
	Entries     []journals.EntryInput      `json:"journalEntries"`
}

type validateEntriesRequest struct {
	Entries []journals.EntryInput `json:"journalEntries"`
}

type updateTransactionRequest struct {
	Description *string          `json:"description" validate:"omitempty,min=1,max=500"`
	Reference   *string          `json:"reference" validate:"omitempty,max=100"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, idempotencyModule); err != nil {
			h.fail(w, r, err)
			return
		}
	}

	res, err := h.svc.Journals.CreateTransaction(r.Context(), journals.CreateTransactionInput{
		Type:        req.Type,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        *date,
		PeriodID:    req.PeriodID,
		Reference:   req.Reference,
		AssetID:     req.AssetID,
		LiabilityID: req.LiabilityID,
		EquityID:    req.EquityID,
		RevenueID:   req.RevenueID,
		ExpenseID:   req.ExpenseID,
		Entries:     req.Entries,
		ActorID:     actor(r),
	})
	if err != nil {
		if key != "" && h.idempotency != nil {
			if derr := h.idempotency.Delete(r.Context(), key); derr != nil {
				h.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", derr))
			}
		}
		h.fail(w, r, err)
		return
	}
	message := "Transaction created successfully"
	if !res.Transaction.IsBalanced {
		message = "Transaction created but is not balanced"
	}
	httpx.JSON(w, http.StatusCreated, httpx.Envelope{
		Success: true,
		Data:    res,
		Message: message,
		Details: res.Warnings,
	})
}

func (h *Handler) validateEntries(w http.ResponseWriter, r *http.Request) {
	var req validateEntriesRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Journals.ValidateEntries(r.Context(), req.Entries)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	periodID, err := queryInt64(r, "periodId")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	start, err := queryDate(r, "startDate")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := queryDate(r, "endDate")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	list, total, err := h.svc.Journals.ListTransactions(r.Context(), journals.TransactionFilter{
		Page:       page.Page,
		Limit:      page.Limit,
		Type:       accounting.TransactionType(r.URL.Query().Get("type")),
		PeriodID:   periodID,
		StartDate:  start,
		EndDate:    end,
		IsBalanced: queryBool(r, "isBalanced"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPaginated(list, page.Page, page.Limit, total))
}

func (h *Handler) unbalancedTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Journals.GetUnbalancedTransactions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []accounting.Transaction{}
	}
	httpx.OK(w, list)
}

func (h *Handler) transactionSummary(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "startDate")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := queryDate(r, "endDate")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	summary, err := h.svc.Journals.GetTransactionSummary(r.Context(), start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, summary)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	txn, err := h.svc.Journals.GetTransaction(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, txn)
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateTransactionRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := optionalDate("date", req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	txn, err := h.svc.Journals.UpdateTransaction(r.Context(), id, journals.UpdateTransactionInput{
		Description: req.Description,
		Reference:   req.Reference,
		Amount:      req.Amount,
		Date:        date,
		ActorID:     actor(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Data: txn, Message: "Transaction updated successfully"})
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Journals.DeleteTransaction(r.Context(), id, actor(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, "Transaction deleted successfully")
}

func (h *Handler) balanceTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	txn, err := h.svc.Journals.BalanceTransaction(r.Context(), id, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Data: txn, Message: "Transaction marked as balanced"})
}
