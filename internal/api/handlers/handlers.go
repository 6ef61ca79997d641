package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dvloznov/money-manager/internal/api/middleware"
	"github.com/dvloznov/money-manager/internal/domain"
	"github.com/dvloznov/money-manager/internal/export"
	infraBQ "github.com/dvloznov/money-manager/internal/infra/bigquery"
	"github.com/dvloznov/money-manager/internal/logger"
	"github.com/dvloznov/money-manager/internal/pipeline"
)

// ReportRunner runs the classification pipeline on an uploaded CSV.
type ReportRunner interface {
	RunCSV(ctx context.Context, in io.Reader) (*pipeline.Report, error)
}

// ReportStore persists finished reports. It is optional.
type ReportStore interface {
	InsertReport(ctx context.Context, report *pipeline.Report, source string) error
}

// ReportsHandler handles report endpoints. Every request runs the pipeline
// inline on its own upload.
type ReportsHandler struct {
	runner   ReportRunner
	store    ReportStore
	maxBytes int64
}

// NewReportsHandler creates a new reports handler. store may be nil.
func NewReportsHandler(runner ReportRunner, store ReportStore, maxUploadMB int) *ReportsHandler {
	return &ReportsHandler{
		runner:   runner,
		store:    store,
		maxBytes: int64(maxUploadMB) << 20,
	}
}

// CreateReport handles POST /api/reports
// The CSV is read from the multipart field "file" or, for text/csv
// requests, from the body. With ?store=true the report is also written to
// the report store.
func (h *ReportsHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	report, source, ok := h.run(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("store") == "true" {
		if !h.storeReport(w, r, report, source) {
			return
		}
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}

// ExportReport handles POST /api/reports/export?section=rows|kpi|categories|periods
func (h *ReportsHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")
	if section == "" {
		section = "rows"
	}
	write, found := export.Sections[section]
	if !found {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown section %q", section))
		return
	}

	report, _, ok := h.run(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, report); err != nil {
		if errors.Is(err, export.ErrNotApplicable) {
			middleware.WriteError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Section %q does not apply to this input", section))
			return
		}
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to write export")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to write export")
		return
	}

	filename := export.DefaultFilename
	if section != "rows" {
		filename = section + ".csv"
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("X-Run-ID", report.RunID())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// run reads the upload and runs the pipeline, writing the error response
// itself when anything fails.
func (h *ReportsHandler) run(w http.ResponseWriter, r *http.Request) (*pipeline.Report, string, bool) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	body, source, err := readUpload(r)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read upload")
		middleware.WriteError(w, uploadStatus(err), err.Error())
		return nil, "", false
	}
	defer body.Close()

	report, err := h.runner.RunCSV(ctx, body)
	if err != nil {
		status := StatusForError(err)
		log.Warn().Err(err).Int("status", status).Str("source", source).Msg("Report run failed")
		writeRunError(w, status, err)
		return nil, "", false
	}

	return report, source, true
}

func (h *ReportsHandler) storeReport(w http.ResponseWriter, r *http.Request, report *pipeline.Report, source string) bool {
	if h.store == nil {
		middleware.WriteError(w, http.StatusNotImplemented, "Report storage is not configured")
		return false
	}
	if err := h.store.InsertReport(r.Context(), report, source); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("run_id", report.RunID()).Msg("Failed to store report")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to store report")
		return false
	}
	return true
}

// readUpload returns the CSV stream and a name for it.
func readUpload(r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("read form file: %w", err)
		}
		return file, filepath.Base(header.Filename), nil
	case mediaType == "text/csv" || mediaType == "text/plain":
		return r.Body, "upload.csv", nil
	default:
		return nil, "", errUnsupportedMedia
	}
}

var errUnsupportedMedia = errors.New("expected multipart/form-data with a \"file\" field or a text/csv body")

func uploadStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}

// writeRunError writes the error body. A SchemaError also lists the
// missing columns.
func writeRunError(w http.ResponseWriter, status int, err error) {
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		middleware.WriteJSON(w, status, map[string]interface{}{
			"error":   err.Error(),
			"missing": schemaErr.Missing,
		})
		return
	}
	middleware.WriteError(w, status, err.Error())
}

// StatusForError maps pipeline failures to HTTP status codes: bad input is
// the client's fault, classifier failures are an upstream fault.
func StatusForError(err error) int {
	var (
		schemaErr     *domain.SchemaError
		malformedErr  *domain.MalformedInputError
		classifierErr *domain.ClassifierError
		tooLarge      *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &schemaErr), errors.As(err, &malformedErr):
		return http.StatusBadRequest
	case errors.As(err, &classifierErr):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RunsHandler reads back stored runs.
type RunsHandler struct {
	repo infraBQ.ReportRepository
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo infraBQ.ReportRepository) *RunsHandler {
	return &RunsHandler{repo: repo}
}

// GetPeriodCounts handles GET /api/runs/:runId/periods
func (h *RunsHandler) GetPeriodCounts(w http.ResponseWriter, r *http.Request, runID string) {
	ctx := r.Context()

	rows, err := h.repo.ListPeriodCounts(ctx, runID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("run_id", runID).Msg("Failed to list period counts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list period counts")
		return
	}
	if len(rows) == 0 {
		middleware.WriteError(w, http.StatusNotFound, "Run not found or has no dated rows")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":        runID,
		"period_counts": rows,
		"count":         len(rows),
	})
}
