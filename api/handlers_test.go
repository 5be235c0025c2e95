/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Status endpoints (health, months)
- Calendar snapshot listing and store-backed edits
- Workbook preview and generation (JSON, xlsx, error statuses)
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/roster-engine/calendar"
	"github.com/warp/roster-engine/config"
	"github.com/warp/roster-engine/store/sqlite"
	"github.com/warp/roster-engine/workbook/workbooktest"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestHandler(t *testing.T, store *sqlite.Store) *Handler {
	t.Helper()
	h := NewHandler(config.Default(), workbooktest.Feb2026Facts(), store, nil)
	h.Now = func() time.Time { return time.Date(2026, time.January, 20, 9, 0, 0, 0, time.UTC) }
	return h
}

// wardWorkbook serializes the February ward workbook, optionally without
// its secondary and identity sheets.
func wardWorkbook(t *testing.T, complete bool) []byte {
	t.Helper()
	if complete {
		return workbooktest.Buffer(t, workbooktest.Ward(t)).Bytes()
	}
	return workbooktest.Buffer(t, workbooktest.Build(t, workbooktest.PrimarySheet())).Bytes()
}

// uploadRequest builds a multipart POST with a file part and form fields.
func uploadRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// =============================================================================
// STATUS
// =============================================================================

func TestHealth(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.EqualValues(t, 6, resp["holidays"])
}

func TestListMonths(t *testing.T) {
	// GIVEN: The clock pinned to January 2026
	h := newTestHandler(t, nil)

	// WHEN: Listing month options
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/months", nil))

	// THEN: 2025-01 through 2027-12
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Months []MonthOptionDTO `json:"months"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Months, 36)
	assert.Equal(t, MonthOptionDTO{Value: "2025-01", Label: "2025年1月", Year: 2025, Month: 1}, resp.Months[0])
	assert.Equal(t, "2027-12", resp.Months[35].Value)
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestListHolidays_FiltersByYear(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/holidays?year=2026", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HolidaysResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2026, resp.Year)
	assert.Equal(t, []string{
		"2026-02-16", "2026-02-17", "2026-02-18", "2026-02-19", "2026-02-20", "2026-02-27",
	}, resp.Holidays)
	assert.Equal(t, "2026-01-03", resp.Weekends[0], "first Saturday of 2026")

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/holidays?year=2025", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Holidays)
}

func TestListHolidays_InvalidYear(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/holidays?year=abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListHolidays_NoSnapshot(t *testing.T) {
	h := NewHandler(config.Default(), nil, nil, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/holidays", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateHoliday_WithoutStore(t *testing.T) {
	h := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/holidays", strings.NewReader(`{"date":"2026-04-03"}`))
	rec := serve(h, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestCreateAndDeleteHoliday(t *testing.T) {
	// GIVEN: A handler backed by an empty calendar store
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()
	h := newTestHandler(t, store)

	// WHEN: Adding Children's Day
	body := `{"date":"2026-04-03","kind":"holiday","name":"兒童節"}`
	rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/holidays", strings.NewReader(body)))

	// THEN: It is stored and the snapshot is reloaded from the store
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	d := calendar.MustDate(2026, time.April, 3)
	assert.True(t, h.Facts().IsHoliday(d))
	assert.False(t, h.Facts().IsHoliday(workbooktest.Feb(16)), "snapshot now comes from the store alone")

	// WHEN: Deleting it again
	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/api/holidays/2026-04-03?kind=holiday", nil))

	// THEN: The snapshot no longer has it
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, h.Facts().IsHoliday(d))
}

func TestCreateHoliday_Validation(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()
	h := newTestHandler(t, store)

	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"bad date", `{"date":"2026/04/03"}`},
		{"bad kind", `{"date":"2026-04-03","kind":"festival"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/holidays", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

// =============================================================================
// PREVIEW
// =============================================================================

func TestPreview(t *testing.T) {
	// GIVEN: The ward workbook
	h := newTestHandler(t, nil)
	req := uploadRequest(t, "/api/preview", "11502.xlsx", wardWorkbook(t, true), nil)

	// WHEN: Previewing it
	rec := serve(h, req)

	// THEN: Sheet roles, identities, and roster names are reported
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "11502.xlsx", resp.Filename)
	assert.Equal(t, "11502(主)", resp.Sheets.Primary)
	assert.Equal(t, "11502(副)", resp.Sheets.Secondary)
	assert.Equal(t, "身分", resp.Sheets.Identity)
	assert.Equal(t, []string{"王小明", "陳小美"}, resp.StaffList)
	assert.Equal(t, 2, resp.StaffCount)
	assert.Equal(t, map[string]string{"王小明": "公職", "陳小美": "契約"}, resp.IdentityMap)
	assert.Equal(t, []string{"王小明", "陳小美", "林大同"}, resp.RosterNames)
}

func TestPreview_MissingFile(t *testing.T) {
	h := newTestHandler(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("year", "2026"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/preview", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// GENERATE
// =============================================================================

type generateJSON struct {
	RunID    string `json:"run_id"`
	Schedule struct {
		Year   int                          `json:"year"`
		Month  int                          `json:"month"`
		Order  []string                     `json:"order"`
		People map[string]map[string]string `json:"schedule"`
	} `json:"schedule"`
	Identities map[string]string   `json:"identities"`
	Rules      map[string][]string `json:"rules"`
	Summaries  []SummaryDTO        `json:"summaries"`
}

func TestGenerate_JSON(t *testing.T) {
	// GIVEN: The ward workbook and a staff order naming someone not on the roster
	h := newTestHandler(t, nil)
	req := uploadRequest(t, "/api/generate", "11502.xlsx", wardWorkbook(t, true), map[string]string{
		"year":        "2026",
		"month":       "2",
		"format":      "json",
		"staff_order": "林大同\n王小明 N2\n張新人行助\nHN\n",
	})

	// WHEN: Generating
	rec := serve(h, req)

	// THEN: The run id header matches the body
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	runID := rec.Header().Get("X-Run-ID")
	_, err := uuid.Parse(runID)
	require.NoError(t, err)

	var resp generateJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, runID, resp.RunID)

	// THEN: Rows follow the staff order; unlisted 陳小美 is left out
	assert.Equal(t, 2026, resp.Schedule.Year)
	assert.Equal(t, 2, resp.Schedule.Month)
	assert.Equal(t, []string{"林大同", "王小明", "張新人"}, resp.Schedule.Order)

	wang := resp.Schedule.People["王小明"]
	assert.Len(t, wang, 28)
	assert.Equal(t, "23~7", wang["2026-02-10"])
	assert.Equal(t, "休假", wang["2026-02-02"])
	assert.Equal(t, "國定假", wang["2026-02-16"])
	assert.Equal(t, "公職", resp.Identities["王小明"])

	newcomer := resp.Schedule.People["張新人"]
	assert.Len(t, newcomer, 28)
	assert.Equal(t, "", newcomer["2026-02-03"])

	// THEN: Summaries follow the same order
	require.Len(t, resp.Summaries, 3)
	assert.Equal(t, "王小明", resp.Summaries[1].Name)
	assert.True(t, decimal.NewFromInt(16).Equal(resp.Summaries[1].WorkHours), resp.Summaries[1].WorkHours.String())
	assert.Equal(t, 2, resp.Summaries[1].WorkShifts)
}

func TestGenerate_XLSX(t *testing.T) {
	// GIVEN: The ward workbook
	h := newTestHandler(t, nil)
	req := uploadRequest(t, "/api/generate", "11502.xlsm", wardWorkbook(t, true), map[string]string{
		"year":  "2026",
		"month": "2",
	})

	// WHEN: Generating without a format
	rec := serve(h, req)

	// THEN: A workbook attachment named after the month
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))

	disposition, params, err := mime.ParseMediaType(rec.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, "BOR_202602_排班表.xlsx", params["filename"])

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	name, err := f.GetCellValue("排班表", "B3")
	require.NoError(t, err)
	assert.Equal(t, "王小明", name)
	identity, err := f.GetCellValue("排班表", "A3")
	require.NoError(t, err)
	assert.Equal(t, "公職", identity)
}

func TestGenerate_DefaultsToCurrentMonth(t *testing.T) {
	// GIVEN: The clock in January 2026 and no year/month fields
	h := newTestHandler(t, nil)
	req := uploadRequest(t, "/api/generate", "roster.xlsx", wardWorkbook(t, true), map[string]string{"format": "json"})

	rec := serve(h, req)

	// THEN: January is generated; February annotations fall outside it
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp generateJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Schedule.Month)
	assert.Len(t, resp.Schedule.People["王小明"], 31)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  func(t *testing.T) []byte
		fields   map[string]string
		status   int
		code     string
	}{
		{
			name:     "missing secondary sheet",
			filename: "roster.xlsx",
			content:  func(t *testing.T) []byte { return wardWorkbook(t, false) },
			fields:   map[string]string{"year": "2026", "month": "2"},
			status:   http.StatusUnprocessableEntity,
			code:     "sheet_not_found",
		},
		{
			name:     "not a workbook",
			filename: "roster.xlsx",
			content:  func(t *testing.T) []byte { return []byte("name,rest\n王小明,2/2\n") },
			fields:   map[string]string{"year": "2026", "month": "2"},
			status:   http.StatusUnprocessableEntity,
			code:     "unreadable_workbook",
		},
		{
			name:     "unsupported extension",
			filename: "roster.csv",
			content:  func(t *testing.T) []byte { return wardWorkbook(t, true) },
			fields:   map[string]string{"year": "2026", "month": "2"},
			status:   http.StatusBadRequest,
		},
		{
			name:     "month out of range",
			filename: "roster.xlsx",
			content:  func(t *testing.T) []byte { return wardWorkbook(t, true) },
			fields:   map[string]string{"year": "2026", "month": "13"},
			status:   http.StatusBadRequest,
			code:     "invalid_period",
		},
		{
			name:     "month not a number",
			filename: "roster.xlsx",
			content:  func(t *testing.T) []byte { return wardWorkbook(t, true) },
			fields:   map[string]string{"year": "2026", "month": "二月"},
			status:   http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, nil)
			req := uploadRequest(t, "/api/generate", tt.filename, tt.content(t), tt.fields)

			rec := serve(h, req)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Run-ID"))
			resp := decodeError(t, rec)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestGenerate_UploadTooLarge(t *testing.T) {
	// GIVEN: A 1 MB limit and a 2 MB upload
	h := newTestHandler(t, nil)
	h.Config.Server.MaxUploadMB = 1
	big := bytes.Repeat([]byte("x"), 2<<20)

	rec := serve(h, uploadRequest(t, "/api/generate", "roster.xlsx", big, nil))

	// THEN: Rejected before the workbook is parsed
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	assert.Contains(t, decodeError(t, rec).Details, "too large")
}

func TestGenerate_SnapshotSwap(t *testing.T) {
	// GIVEN: A snapshot without the Lunar New Year holidays
	h := newTestHandler(t, nil)
	h.SetFacts(calendar.NewStaticFacts(nil, calendar.DeriveWeekends(2026)))
	fields := map[string]string{"year": "2026", "month": "2", "format": "json"}

	rec := serve(h, uploadRequest(t, "/api/generate", "roster.xlsx", wardWorkbook(t, true), fields))
	require.Equal(t, http.StatusOK, rec.Code)
	var before generateJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &before))

	// WHEN: The refresher swaps in the full calendar
	h.SetFacts(workbooktest.Feb2026Facts())
	rec = serve(h, uploadRequest(t, "/api/generate", "roster.xlsx", wardWorkbook(t, true), fields))
	require.Equal(t, http.StatusOK, rec.Code)
	var after generateJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))

	// THEN: Only the later request sees 2/16 as a national holiday
	assert.NotEqual(t, "國定假", before.Schedule.People["王小明"]["2026-02-16"])
	assert.Equal(t, "國定假", after.Schedule.People["王小明"]["2026-02-16"])
}

// =============================================================================
// REFRESHER
// =============================================================================

type stubSource struct {
	facts *calendar.StaticFacts
	err   error
	calls int
}

func (s *stubSource) LoadFacts(context.Context) (*calendar.StaticFacts, error) {
	s.calls++
	return s.facts, s.err
}

func TestCalendarRefresher_Refresh(t *testing.T) {
	// GIVEN: A handler with the February snapshot
	h := newTestHandler(t, nil)
	original := h.Facts()

	// WHEN: The source fails
	failing := &stubSource{err: assert.AnError}
	cr := NewCalendarRefresher(failing, h, nil)
	err := cr.Refresh(context.Background())

	// THEN: The old snapshot stays
	require.ErrorIs(t, err, assert.AnError)
	assert.Same(t, original, h.Facts())
	assert.True(t, cr.LastRun().IsZero())

	// WHEN: The source succeeds
	fresh := calendar.NewStaticFacts(calendar.NewDateSet(calendar.MustDate(2026, time.April, 3)), nil)
	cr.Source = &stubSource{facts: fresh}
	require.NoError(t, cr.Refresh(context.Background()))

	// THEN: The snapshot is swapped
	assert.Same(t, fresh, h.Facts())
	assert.False(t, cr.LastRun().IsZero())
}

func TestCalendarRefresher_StartLoadsImmediately(t *testing.T) {
	h := NewHandler(config.Default(), nil, nil, nil)
	cr := NewCalendarRefresher(&stubSource{facts: workbooktest.Feb2026Facts()}, h, nil)
	cr.Interval = time.Hour

	cr.Start()
	defer cr.Stop()

	require.Eventually(t, func() bool { return h.Facts() != nil }, time.Second, 5*time.Millisecond)
	assert.True(t, h.Facts().IsHoliday(workbooktest.Feb(16)))
}

func TestCalendarRefresher_DisabledInterval(t *testing.T) {
	h := NewHandler(config.Default(), nil, nil, nil)
	src := &stubSource{facts: workbooktest.Feb2026Facts()}
	cr := NewCalendarRefresher(src, h, nil)
	cr.Interval = 0

	cr.Start()
	cr.Stop()

	assert.Nil(t, h.Facts())
	assert.Zero(t, src.calls)
}
