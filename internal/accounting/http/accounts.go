package accountinghttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

type createAccountRequest struct {
	AccountNumber    string                      `json:"accountNumber" validate:"required,max=10"`
	Name             string                      `json:"name" validate:"required,max=200"`
	Type             accounting.AccountType      `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID         *int64                      `json:"parentId" validate:"omitempty,gt=0"`
	Description      string                      `json:"description" validate:"max=1000"`
	BalanceClass     accounting.BalanceClass     `json:"balanceClass" validate:"omitempty,oneof=CURRENT NON_CURRENT"`
	CashFlowActivity accounting.CashFlowActivity `json:"cashFlowActivity" validate:"omitempty,oneof=OPERATING INVESTING FINANCING"`
}

type updateAccountRequest struct {
	Name             *string                      `json:"name" validate:"omitempty,min=1,max=200"`
	Description      *string                      `json:"description" validate:"omitempty,max=1000"`
	Status           *accounting.AccountStatus    `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE ARCHIVED"`
	ParentID         *int64                       `json:"parentId" validate:"omitempty,gt=0"`
	BalanceClass     *accounting.BalanceClass     `json:"balanceClass" validate:"omitempty,oneof=CURRENT NON_CURRENT"`
	CashFlowActivity *accounting.CashFlowActivity `json:"cashFlowActivity" validate:"omitempty,oneof=OPERATING INVESTING FINANCING"`
}

func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	acc, err := h.svc.Accounts.CreateAccount(r.Context(), accounts.CreateAccountInput{
		AccountNumber:    req.AccountNumber,
		Name:             req.Name,
		Type:             req.Type,
		ParentID:         req.ParentID,
		Description:      req.Description,
		BalanceClass:     req.BalanceClass,
		CashFlowActivity: req.CashFlowActivity,
		ActorID:          actor(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Created(w, acc, "Account created successfully")
}

func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	parentOnly := queryBool(r, "parentOnly")
	filter := accounts.ListAccountsFilter{
		Page:       page.Page,
		Limit:      page.Limit,
		Type:       accounting.AccountType(q.Get("type")),
		Status:     accounting.AccountStatus(q.Get("status")),
		ParentOnly: parentOnly != nil && *parentOnly,
	}
	list, total, err := h.svc.Accounts.ListAccounts(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.NewPaginated(list, page.Page, page.Limit, total))
}

func (h *Handler) searchAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.Accounts.SearchAccounts(r.Context(), q.Get("q"), accounting.AccountType(q.Get("type")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, list)
}

func (h *Handler) accountHierarchy(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Accounts.GetAccountHierarchy(r.Context(), accounting.AccountType(r.URL.Query().Get("type")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, tree)
}

func (h *Handler) nextAccountNumber(w http.ResponseWriter, r *http.Request) {
	typ := accounting.AccountType(r.URL.Query().Get("type"))
	next, err := h.svc.Accounts.GetNextAccountNumber(r.Context(), typ)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, map[string]string{"accountNumber": next, "type": string(typ)})
}

func (h *Handler) getAccountByNumber(w http.ResponseWriter, r *http.Request) {
	acc, err := h.svc.Accounts.GetAccountByNumber(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, acc)
}

func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	acc, err := h.svc.Accounts.GetAccount(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, acc)
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateAccountRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	acc, err := h.svc.Accounts.UpdateAccount(r.Context(), id, accounts.UpdateAccountInput{
		Name:             req.Name,
		Description:      req.Description,
		Status:           req.Status,
		ParentID:         req.ParentID,
		BalanceClass:     req.BalanceClass,
		CashFlowActivity: req.CashFlowActivity,
		ActorID:          actor(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Data: acc, Message: "Account updated successfully"})
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Accounts.DeleteAccount(r.Context(), id, actor(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.Message(w, "Account deleted successfully")
}

func (h *Handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	start, err := queryDate(r, "start")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	end, err := queryDate(r, "end")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	balance, err := h.svc.Journals.GetAccountBalance(r.Context(), id, start, end)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, balance)
}
