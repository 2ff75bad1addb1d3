package main

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/toricodesthings/wordcloud-service/internal/export"
	"github.com/toricodesthings/wordcloud-service/internal/extract"
	"github.com/toricodesthings/wordcloud-service/internal/frequency"
	"github.com/toricodesthings/wordcloud-service/internal/layout"
	"github.com/toricodesthings/wordcloud-service/internal/pipeline"
	"github.com/toricodesthings/wordcloud-service/internal/tokenize"
	"github.com/toricodesthings/wordcloud-service/internal/types"
)

const (
	multipartMemory = 32 << 20
	xlsxMIME        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type renderResponse struct {
	Success     bool                `json:"success"`
	JobID       string              `json:"jobId"`
	Filename    string              `json:"filename"`
	ImageFormat string              `json:"imageFormat"`
	Image       string              `json:"image"`
	Table       []frequency.Entry   `json:"table"`
	Words       []layout.PlacedWord `json:"words"`
	Placed      int                 `json:"placed"`
	Skipped     int                 `json:"skipped"`
	Tokens      int                 `json:"tokens"`
	Preview     string              `json:"preview"`
	Source      extract.Result      `json:"source"`
}

type tableResponse struct {
	Success  bool              `json:"success"`
	Table    []frequency.Entry `json:"table"`
	Tokens   int               `json:"tokens"`
	Distinct int               `json:"distinct"`
	Source   extract.Result    `json:"source"`
}

// ---------- Handlers ----------

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	active := s.metrics.snapshot().Active
	status := "healthy"
	code := http.StatusOK

	ratio := s.cfg.HealthDegradeRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.9
	}

	if active >= int64(float64(s.cfg.MaxConcurrentRequests)*ratio) {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"active":  active,
		"version": version,
	})
}

func (s *server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	writeJSON(w, http.StatusOK, map[string]any{
		"requests":   s.metrics.snapshot(),
		"goroutines": runtime.NumGoroutine(),
		"memAllocMB": m.Alloc / (1 << 20),
		"memSysMB":   m.Sys / (1 << 20),
	})
}

func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.NewV7()
	if err != nil {
		jobID = uuid.New()
	}
	log := s.log.With().
		Str("job", jobID.String()).
		Str("request_id", middleware.GetReqID(r.Context())).
		Logger()

	doc, opts, err := s.parseRenderRequest(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RenderTimeout)
	defer cancel()

	res, err := s.pipe.Run(ctx, doc, opts)
	if err != nil {
		log.Warn().Err(err).Str("file", sanitizeLogString(doc.Name)).Msg("render failed")
		s.fail(w, err)
		return
	}
	s.metrics.rendered()
	log.Info().
		Str("file", sanitizeLogString(doc.Name)).
		Str("extractor", res.Text.FileType).
		Int("tokens", res.TokenCount).
		Int("placed", len(res.Placed)).
		Int("skipped", len(res.Skipped)).
		Msg("rendered")

	w.Header().Set("X-Job-ID", jobID.String())
	if accepts(r, res.ImageFormat.MIMEType()) {
		writeFile(w, res.ImageFormat.MIMEType(), res.Filename, res.Image)
		return
	}

	writeJSON(w, http.StatusOK, renderResponse{
		Success:     true,
		JobID:       jobID.String(),
		Filename:    res.Filename,
		ImageFormat: string(res.ImageFormat),
		Image:       export.DataURI(res.Image, res.ImageFormat.MIMEType()),
		Table:       res.Table,
		Words:       res.Placed,
		Placed:      len(res.Placed),
		Skipped:     len(res.Skipped),
		Tokens:      res.TokenCount,
		Preview:     res.TextPreview,
		Source:      res.Text,
	})
}

func (s *server) handleTable(w http.ResponseWriter, r *http.Request) {
	out := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch out {
	case "", "json", "csv", "xlsx":
	default:
		writeErr(w, http.StatusBadRequest, string(types.KindInvalidConfig), "format must be json, csv or xlsx")
		return
	}

	doc, opts, err := s.parseRenderRequest(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RenderTimeout)
	defer cancel()

	table, text, err := s.pipe.Analyze(ctx, doc, opts)
	if err != nil {
		s.fail(w, err)
		return
	}
	rows := table.Sorted()

	switch out {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", attachment("frequencies.csv"))
		if err := export.WriteTableCSV(w, rows); err != nil {
			s.log.Warn().Err(err).Msg("write csv table")
		}
	case "xlsx":
		w.Header().Set("Content-Type", xlsxMIME)
		w.Header().Set("Content-Disposition", attachment("frequencies.xlsx"))
		if err := export.WriteTableXLSX(w, rows); err != nil {
			s.log.Warn().Err(err).Msg("write xlsx table")
		}
	default:
		writeJSON(w, http.StatusOK, tableResponse{
			Success:  true,
			Table:    rows,
			Tokens:   table.Total(),
			Distinct: table.Len(),
			Source:   text,
		})
	}
}

// parseRenderRequest reads the multipart upload and the option fields.
// Omitted fields fall back to the configured render defaults.
func (s *server) parseRenderRequest(w http.ResponseWriter, r *http.Request) (types.Document, pipeline.Options, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return types.Document{}, pipeline.Options{}, badRequest("expected multipart/form-data with a file field: " + sanitizeError(err))
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		return types.Document{}, pipeline.Options{}, badRequest("file field required")
	}
	defer file.Close()

	data, err := extract.ReadLimited(file, s.cfg.MaxUploadBytes)
	if err != nil {
		return types.Document{}, pipeline.Options{}, types.Decode("upload", sanitizeError(err), nil)
	}
	doc := types.Document{Name: hdr.Filename, Data: data}

	opts, err := s.renderOptions(r)
	if err != nil {
		return types.Document{}, pipeline.Options{}, err
	}
	return doc, opts, nil
}

func (s *server) renderOptions(r *http.Request) (pipeline.Options, error) {
	d := s.cfg.Render
	opts := pipeline.DefaultOptions()
	opts.ExtraStopwords = tokenize.ParseExtra(d.ExtraStopwords)
	opts.OutputFilename = d.OutputFilename

	if v, ok := formValue(r, "format"); ok && v != "" {
		f, err := types.ParseFormat(v)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	if v, ok := formValue(r, "extraStopwords"); ok {
		opts.ExtraStopwords = tokenize.ParseExtra(v)
	}

	var err error
	lc := opts.Layout
	if lc.Width, err = intField(r, "width", d.Width); err != nil {
		return opts, err
	}
	if lc.Height, err = intField(r, "height", d.Height); err != nil {
		return opts, err
	}
	if lc.MaxWords, err = intField(r, "maxWords", d.MaxWords); err != nil {
		return opts, err
	}
	if err := s.cfg.Ranges.Check(lc.Width, lc.Height, lc.MaxWords); err != nil {
		return opts, types.InvalidConfig("render options", "%s", err.Error())
	}

	bg := d.Background
	if v, ok := formValue(r, "backgroundColor"); ok && v != "" {
		bg = v
	}
	if lc.Background, err = layout.ParseBackground(bg); err != nil {
		return opts, err
	}

	lc.Seed = d.Seed
	if v, ok := formValue(r, "seed"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, types.InvalidConfig("render options", "seed must be an integer, got %q", v)
		}
		lc.Seed = seed
	}
	opts.Layout = lc

	imgFormat := d.ImageFormat
	if v, ok := formValue(r, "imageFormat"); ok && v != "" {
		imgFormat = v
	}
	if opts.ImageFormat, err = export.ParseImageFormat(imgFormat); err != nil {
		return opts, err
	}

	if v, ok := formValue(r, "outputFilename"); ok && v != "" {
		opts.OutputFilename = v
	}
	return opts, nil
}

// fail maps a pipeline error to its HTTP status and a sanitized message.
func (s *server) fail(w http.ResponseWriter, err error) {
	status, code, msg := classify(err)
	s.metrics.failed(code)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}
	writeErr(w, status, code, msg)
}

func classify(err error) (status int, code, msg string) {
	var br *requestError
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, "bad_request", br.msg
	case errors.Is(err, pipeline.ErrLayoutTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "timeout", "Render timed out; retry with a smaller canvas or fewer words"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled", "Request canceled"
	}

	kind := types.KindOf(err)
	switch kind {
	case types.KindUnsupportedFormat:
		status = http.StatusUnsupportedMediaType
	case types.KindDecode:
		status = http.StatusUnprocessableEntity
	case types.KindInvalidConfig:
		status = http.StatusBadRequest
	case types.KindEncoding:
		status = http.StatusInternalServerError
	default:
		return http.StatusInternalServerError, "internal_error", "Internal server error"
	}
	return status, string(kind), types.UserMessage(err)
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

func formValue(r *http.Request, key string) (string, bool) {
	vs, ok := r.Form[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return strings.TrimSpace(vs[0]), true
}

func intField(r *http.Request, key string, fallback int) (int, error) {
	v, ok := formValue(r, key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, types.InvalidConfig("render options", "%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func accepts(r *http.Request, mimeType string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt == mimeType {
			return true
		}
	}
	return false
}

func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = strings.ReplaceAll(msg, os.TempDir(), "[tmp]")
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return msg
}

func sanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func writeFile(w http.ResponseWriter, contentType, name string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
