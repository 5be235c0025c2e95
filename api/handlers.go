/*
handlers.go - HTTP API handlers for the roster converter

PURPOSE:
  Exposes the roster pipeline via REST API. Handles multipart uploads,
  JSON serialization, and workbook downloads, and delegates everything
  else to workbook/ and roster/. Nothing uploaded is stored.

ENDPOINTS:
  GET    /api/health               Liveness plus calendar snapshot size
  GET    /api/months               Month picker options (last, this, next year)

  Calendar:
    GET    /api/holidays?year=     Holiday and weekend dates in the snapshot
    POST   /api/holidays           Add a date (calendar store only)
    DELETE /api/holidays/{date}    Remove a date (calendar store only)

  Uploads:
    POST   /api/preview            Sheets, identities, staff names of a workbook
    POST   /api/generate           Convert a workbook; xlsx download or JSON

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Config: Ward layout, render options, upload limits
  - Reader: Source workbook parser
  - Store: Optional SQLite calendar store
  - facts: Current calendar snapshot, swapped atomically by the refresher

REQUEST FLOW:
  1. Bound the body and parse the multipart form
  2. Validate the file extension and target month
  3. Read the workbook, convert, render
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input (bad month, wrong file type, missing file)
  - 413: Upload over the configured limit
  - 422: Workbook unreadable or a duty sheet is missing
  - 501: Calendar write without a calendar store
  - 503: No calendar snapshot loaded yet
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - refresher.go: Calendar snapshot reloads
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/config"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/store/sqlite"
	"github.com/warp/roster-engine/workbook"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// allowedExtensions are the upload types excelize can open.
var allowedExtensions = map[string]bool{".xlsx": true, ".xlsm": true}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Config config.Config
	Reader *workbook.Reader
	Store  *sqlite.Store
	Logger *zap.Logger

	// Now is the clock for default months; tests pin it.
	Now func() time.Time

	facts atomic.Pointer[calendar.StaticFacts]
}

// NewHandler creates a handler serving the given calendar snapshot. store
// may be nil, in which case calendar writes are rejected.
func NewHandler(cfg config.Config, facts *calendar.StaticFacts, store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		Config: cfg,
		Reader: workbook.NewReader(cfg.Workbook, logger),
		Store:  store,
		Logger: logger,
		Now:    time.Now,
	}
	if facts != nil {
		h.facts.Store(facts)
	}
	return h
}

// Facts returns the current calendar snapshot, nil before the first load.
func (h *Handler) Facts() *calendar.StaticFacts {
	return h.facts.Load()
}

// SetFacts swaps in a new calendar snapshot. In-flight requests keep the
// snapshot they started with.
func (h *Handler) SetFacts(facts *calendar.StaticFacts) {
	h.facts.Store(facts)
}

// =============================================================================
// STATUS ENDPOINTS
// =============================================================================

// Health reports liveness and the size of the calendar snapshot.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "holidays": 0, "weekends": 0}
	if facts := h.Facts(); facts != nil {
		resp["holidays"] = len(facts.Holidays)
		resp["weekends"] = len(facts.Weekends)
	} else {
		resp["status"] = "no calendar"
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListMonths returns month options for last year, this year, and next year.
// GET /api/months
func (h *Handler) ListMonths(w http.ResponseWriter, r *http.Request) {
	current := h.Now().Year()
	months := make([]MonthOptionDTO, 0, 36)
	for year := current - 1; year <= current+1; year++ {
		for m := 1; m <= 12; m++ {
			months = append(months, MonthOptionDTO{
				Value: fmt.Sprintf("%d-%02d", year, m),
				Label: fmt.Sprintf("%d年%d月", year, m),
				Year:  year,
				Month: m,
			})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": months})
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns the holiday and weekend dates of the snapshot.
// GET /api/holidays?year=2026
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	facts := h.Facts()
	if facts == nil {
		writeError(w, http.StatusServiceUnavailable, "Calendar not loaded", nil)
		return
	}

	resp := HolidaysResponse{}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		resp.Year = year
	}
	resp.Holidays = dateStrings(inYear(facts.Holidays, resp.Year))
	resp.Weekends = dateStrings(inYear(facts.Weekends, resp.Year))

	writeJSON(w, http.StatusOK, resp)
}

// CreateHoliday adds a date to the calendar store and reloads the snapshot.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotImplemented, "Calendar store not configured", nil)
		return
	}

	var req CalendarDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Kind == "" {
		req.Kind = string(sqlite.KindHoliday)
	}
	kind, err := sqlite.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid kind (use holiday or weekend)", err)
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Store.SaveDate(r.Context(), sqlite.CalendarDate{Date: date, Kind: kind, Name: req.Name}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save date", err)
		return
	}
	if err := h.reloadFromStore(r); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload calendar", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"date":   date.String(),
		"kind":   kind,
	})
}

// DeleteHoliday removes a date from the calendar store.
// DELETE /api/holidays/{date}?kind=holiday
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotImplemented, "Calendar store not configured", nil)
		return
	}

	date, err := calendar.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	kindParam := r.URL.Query().Get("kind")
	if kindParam == "" {
		kindParam = string(sqlite.KindHoliday)
	}
	kind, err := sqlite.ParseKind(kindParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid kind (use holiday or weekend)", err)
		return
	}

	if err := h.Store.DeleteDate(r.Context(), kind, date); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete date", err)
		return
	}
	if err := h.reloadFromStore(r); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload calendar", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (h *Handler) reloadFromStore(r *http.Request) error {
	facts, err := h.Store.LoadFacts(r.Context())
	if err != nil {
		return err
	}
	h.SetFacts(facts)
	return nil
}

// =============================================================================
// UPLOAD ENDPOINTS
// =============================================================================

// Preview reads an uploaded workbook and reports what was found in it.
// POST /api/preview (multipart: file)
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	src, filename, status, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, status, uploadMessage(status), err)
		return
	}

	staff := src.Registry.Names()
	writeJSON(w, http.StatusOK, PreviewResponse{
		Filename:    filename,
		Sheets:      src.Sheets,
		StaffList:   staff,
		StaffCount:  len(staff),
		IdentityMap: src.Registry.Categories(),
		RosterNames: src.StaffNames(),
	})
}

// Generate converts an uploaded workbook for one month.
// POST /api/generate (multipart: file, year, month, staff_order, format)
//
// format=json returns the schedule as JSON; anything else downloads
// {prefix}_{YYYYMM}_排班表.xlsx. Every response carries X-Run-ID.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)
	logger := h.Logger.With(zap.String("run_id", runID))

	src, filename, status, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, status, uploadMessage(status), err)
		return
	}

	now := h.Now()
	year, err := formInt(r, "year", now.Year())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	month, err := formInt(r, "month", int(now.Month()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	facts := h.Facts()
	if facts == nil {
		writeError(w, http.StatusServiceUnavailable, "Calendar not loaded", nil)
		return
	}

	order := roster.ParseStaffOrder(r.FormValue("staff_order"))
	logger.Info("generating schedule",
		zap.String("file", filename),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("ordered_names", len(order)))

	res, err := roster.Convert(r.Context(), roster.Input{
		Year:       year,
		Month:      time.Month(month),
		Tables:     src.Tables,
		Registry:   src.Registry,
		Facts:      facts,
		StaffOrder: order,
		Logger:     logger,
	})
	if err != nil {
		writeError(w, statusFor(err), "Failed to generate schedule", err)
		return
	}

	if strings.EqualFold(r.FormValue("format"), "json") {
		writeJSON(w, http.StatusOK, toGenerateResponse(runID, res))
		return
	}

	renderer := workbook.NewRenderer(h.Config.Render, facts, logger)
	data, err := renderer.Bytes(res)
	if err != nil {
		logger.Error("render failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to render workbook", err)
		return
	}

	name := fmt.Sprintf("%s_%d%02d_排班表.xlsx", h.Config.Server.FilenamePrefix, year, month)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// readUpload bounds the request body, validates the "file" part, and parses
// it. On failure it returns the HTTP status to answer with.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*workbook.Source, string, int, error) {
	limit := h.Config.Server.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", http.StatusRequestEntityTooLarge, err
		}
		return nil, "", http.StatusBadRequest, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", http.StatusBadRequest, err
	}
	defer file.Close()

	if !allowedExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		return nil, header.Filename, http.StatusBadRequest,
			fmt.Errorf("unsupported file type %q", header.Filename)
	}

	src, err := h.Reader.Read(file)
	if err != nil {
		return nil, header.Filename, statusFor(err), err
	}
	return src, header.Filename, http.StatusOK, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: errorCode(err)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps pipeline errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case roster.IsStructural(err):
		return http.StatusUnprocessableEntity
	case roster.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, roster.ErrUnreadableWorkbook):
		return "unreadable_workbook"
	case errors.Is(err, roster.ErrSheetNotFound):
		return "sheet_not_found"
	case errors.Is(err, roster.ErrInvalidPeriod):
		return "invalid_period"
	}
	return ""
}

func uploadMessage(status int) string {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return "File too large"
	case http.StatusUnprocessableEntity:
		return "Workbook cannot be used"
	}
	return "Invalid upload"
}

func formInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// inYear returns the sorted dates of set in year, or all of them for 0.
func inYear(set calendar.DateSet, year int) []calendar.Date {
	all := set.Sorted()
	if year == 0 {
		return all
	}
	out := make([]calendar.Date, 0, len(all))
	for _, d := range all {
		if d.Year == year {
			out = append(out, d)
		}
	}
	return out
}
