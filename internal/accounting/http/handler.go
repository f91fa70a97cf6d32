// Package accountinghttp exposes the ledger services as a JSON API.
package accountinghttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/subledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

const dateLayout = "2006-01-02"

// IdempotencyPort claims request keys so retried posts are not recorded twice.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Services groups the ledger services served by the handler.
type Services struct {
	Accounts  *accounts.Service
	Journals  *journals.Service
	Periods   *periods.Service
	Reports   *reports.Service
	Subledger *subledger.Service
}

// Handler serves the /api/v1 ledger routes.
type Handler struct {
	logger      *slog.Logger
	svc         Services
	idempotency IdempotencyPort
	validator   *validator.Validate
	errs        httpx.Mapper
}

// NewHandler builds a Handler. idem may be nil, which disables Idempotency-Key
// handling.
func NewHandler(logger *slog.Logger, svc Services, idem IdempotencyPort) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		svc:         svc,
		idempotency: idem,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
		errs:        errorKinds,
	}
}

var errorKinds = append(httpx.Mapper{
	{Err: shared.ErrIdempotencyConflict, Status: http.StatusConflict, Label: "Conflict"},
	{Err: accounting.ErrValidation, Status: http.StatusBadRequest, Label: "Validation Failed"},
	{Err: accounting.ErrNotFound, Status: http.StatusNotFound, Label: "Not Found"},
	{Err: accounting.ErrStateConflict, Status: http.StatusBadRequest, Label: "Invalid State"},
	{Err: accounting.ErrIntegrity, Status: http.StatusInternalServerError, Label: "Internal Error"},
}, httpx.DefaultKinds...)

// MountRoutes registers ledger routes on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.createAccount)
		r.Get("/", h.listAccounts)
		r.Get("/search", h.searchAccounts)
		r.Get("/hierarchy", h.accountHierarchy)
		r.Get("/next-number", h.nextAccountNumber)
		r.Get("/number/{number}", h.getAccountByNumber)
		r.Get("/{id}", h.getAccount)
		r.Put("/{id}", h.updateAccount)
		r.Delete("/{id}", h.deleteAccount)
		r.Get("/{id}/balance", h.accountBalance)
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Post("/", h.createTransaction)
		r.Post("/validate", h.validateEntries)
		r.Get("/", h.listTransactions)
		r.Get("/unbalanced", h.unbalancedTransactions)
		r.Get("/summary", h.transactionSummary)
		r.Get("/{id}", h.getTransaction)
		r.Put("/{id}", h.updateTransaction)
		r.Delete("/{id}", h.deleteTransaction)
		r.Post("/{id}/balance", h.balanceTransaction)
	})
	r.Route("/periods", func(r chi.Router) {
		r.Post("/", h.createPeriod)
		r.Get("/", h.listPeriods)
		r.Get("/current", h.currentPeriod)
		r.Get("/retained-earnings", h.retainedEarnings)
		r.Get("/{id}", h.getPeriod)
		r.Put("/{id}", h.updatePeriod)
		r.Delete("/{id}", h.deletePeriod)
		r.Post("/{id}/close", h.closePeriod)
		r.Post("/{id}/lock", h.lockPeriod)
		r.Get("/{id}/summary", h.periodSummary)
	})
	r.Route("/reports", func(r chi.Router) {
		r.Get("/income-statement", h.incomeStatement)
		r.Get("/balance-sheet", h.balanceSheet)
		r.Get("/cash-flow", h.cashFlow)
		r.Get("/trial-balance", h.trialBalance)
		r.Get("/ratios", h.ratios)
		r.Get("/comparative", h.comparative)
		r.Post("/accruals", h.accruals)
		r.Get("/export", h.exportWorkbook)
	})
	r.Route("/subledger", func(r chi.Router) {
		r.Post("/", h.createRecord)
		r.Get("/", h.listRecords)
		r.Get("/totals", h.subledgerTotals)
		r.Get("/reconciliation", h.reconciliation)
		r.Post("/validate", h.validateBatch)
		r.Get("/{id}", h.getRecord)
		r.Put("/{id}", h.updateRecord)
		r.Delete("/{id}", h.deleteRecord)
	})
}

// fail writes err using the ledger error kinds. Validation and unbalanced
// errors carry their messages as details.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *accounting.ValidationError
	if errors.As(err, &verr) {
		httpx.Error(w, http.StatusBadRequest, "Validation failed", append(append([]string{}, verr.Errors...), verr.Warnings...)...)
		return
	}
	var uerr *accounting.UnbalancedError
	if errors.As(err, &uerr) {
		httpx.Error(w, http.StatusBadRequest, uerr.Error())
		return
	}
	status, _ := h.errs.Resolve(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("ledger request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	h.errs.RespondError(w, err)
}

// decode reads the JSON body into dst and runs struct validation.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return err
	}
	if err := h.validator.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return accounting.NewValidationError("request", msgs, nil)
		}
		return fmt.Errorf("%w: %v", httpx.ErrBadRequest, err)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", httpx.ErrBadRequest, chi.URLParam(r, "id"))
	}
	return id, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", httpx.ErrBadRequest, key)
	}
	return n, nil
}

func queryInt64(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", httpx.ErrBadRequest, key)
	}
	return n, nil
}

// queryDate parses an optional YYYY-MM-DD query value.
func queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	return parseDate(key, raw)
}

func parseDate(field, raw string) (*time.Time, error) {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a date in YYYY-MM-DD format", httpx.ErrBadRequest, field)
	}
	return &d, nil
}

func optionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	return parseDate(field, *raw)
}

func queryBool(r *http.Request, key string) *bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

func pageParams(r *http.Request) (accounting.Page, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return accounting.Page{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return accounting.Page{}, err
	}
	return accounting.Page{Page: page, Limit: limit}.Normalize(), nil
}

func actor(r *http.Request) string {
	return shared.ActorFromContext(r.Context())
}
