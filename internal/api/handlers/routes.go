package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/money-manager/internal/api/middleware"
)

// NewRouter registers the API endpoints. runs may be nil when no report
// store is configured.
func NewRouter(reports *ReportsHandler, runs *RunsHandler) *http.ServeMux {
	mux := http.NewServeMux()

	// Reports endpoints
	mux.HandleFunc("/api/reports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reports.CreateReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/reports/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			reports.ExportReport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Runs endpoints
	if runs != nil {
		mux.HandleFunc("/api/runs/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			// Extract run ID from /api/runs/:runId/periods
			rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
			runID, ok := strings.CutSuffix(rest, "/periods")
			if !ok || runID == "" || strings.Contains(runID, "/") {
				middleware.WriteError(w, http.StatusNotFound, "Not found")
				return
			}
			runs.GetPeriodCounts(w, r, runID)
		})
	}

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}
