package app

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	accountinghttp "github.com/odyssey-erp/odyssey-ledger/internal/accounting/http"
	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

// APIPrefix is where the ledger API is mounted.
const APIPrefix = "/api/v1"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func init() {
	// http.FileServer picks Content-Type by extension; many base images ship
	// without a mime.types entry for workbooks.
	if mime.TypeByExtension(".xlsx") == "" {
		if err := mime.AddExtensionType(".xlsx", xlsxContentType); err != nil {
			slog.Default().Warn("register xlsx mime type", slog.Any("error", err))
		}
	}
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AccountingHandler *accountinghttp.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with ledger defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.AccountingHandler != nil {
		r.Route(APIPrefix, params.AccountingHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.Config != nil && strings.TrimSpace(params.Config.ExportDir) != "" {
		// Finished workbooks written by the export job.
		fileServer := http.StripPrefix("/exports/", http.FileServer(http.Dir(params.Config.ExportDir)))
		r.Handle("/exports/*", exportCacheHandler(fileServer))
	}

	return r
}

// exportCacheHandler marks exported workbooks as private downloads.
func exportCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.Header().Set("Content-Disposition", "attachment")
		next.ServeHTTP(w, r)
	})
}
