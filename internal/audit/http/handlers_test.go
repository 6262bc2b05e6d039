package audithttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lintaskurir/lintaskurir/internal/audit"
)

type stubService struct {
	filters audit.TimelineFilters
	result  audit.Result
}

func (s *stubService) Timeline(_ context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.filters = filters
	return s.result, nil
}

func (s *stubService) Export(_ context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error) {
	s.filters = filters
	return s.result.Rows, nil
}

func newTestHandler(svc TimelineService) *Handler {
	h := NewHandler(nil, svc)
	h.now = func() time.Time { return time.Date(2025, 8, 25, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestTimelineDefaultDateRange(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.handleTimeline(rec, httptest.NewRequest(http.MethodGet, "/audit/timeline", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 7*24*time.Hour, svc.filters.To.Sub(svc.filters.From))
}

func TestTimelineParsesFilters(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.handleTimeline(rec, httptest.NewRequest(http.MethodGet,
		"/audit/timeline?from=2025-08-01&to=2025-08-10&changed_by=7&status=delivered&page=2&page_size=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), svc.filters.From)
	require.Equal(t, time.Date(2025, 8, 11, 0, 0, 0, 0, time.UTC), svc.filters.To)
	require.NotNil(t, svc.filters.ChangedBy)
	require.Equal(t, int64(7), *svc.filters.ChangedBy)
	require.Equal(t, "delivered", svc.filters.ToStatus)
	require.Equal(t, 2, svc.filters.Page)
	require.Equal(t, 10, svc.filters.PageSize)
}

func TestTimelineRejectsBadRange(t *testing.T) {
	h := newTestHandler(&stubService{})

	for _, query := range []string{
		"?from=2025-08-10&to=2025-08-01",
		"?from=2024-01-01&to=2025-08-01",
		"?from=not-a-date",
		"?changed_by=abc",
		"?page=0",
	} {
		rec := httptest.NewRecorder()
		h.handleTimeline(rec, httptest.NewRequest(http.MethodGet, "/audit/timeline"+query, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestTimelineRespondsJSON(t *testing.T) {
	svc := &stubService{result: audit.Result{
		Rows:   []audit.TimelineRow{{PackageID: "PKT-20250825-AAAAAA", ToStatus: "assigned", ChangedBy: 7}},
		Paging: audit.PagingInfo{Page: 1, PageSize: 20},
	}}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.handleTimeline(rec, httptest.NewRequest(http.MethodGet, "/audit/timeline", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body audit.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	require.Equal(t, "PKT-20250825-AAAAAA", body.Rows[0].PackageID)
}

func TestExportWritesCSVAttachment(t *testing.T) {
	svc := &stubService{result: audit.Result{Rows: []audit.TimelineRow{{
		At:        time.Date(2025, 8, 25, 9, 0, 0, 0, time.UTC),
		PackageID: "PKT-20250825-AAAAAA",
		ToStatus:  "delivered",
		ChangedBy: 7,
	}}}}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.handleExport(rec, httptest.NewRequest(http.MethodGet, "/audit/timeline/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "audit-timeline-20250825")
	require.Contains(t, rec.Body.String(), "PKT-20250825-AAAAAA")
}
