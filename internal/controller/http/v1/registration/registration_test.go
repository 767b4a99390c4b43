package registration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/middleware"
	"eventdesk/backend/internal/repository/postgres/registration"
	"eventdesk/backend/internal/repository/redis/stats"
	"eventdesk/backend/internal/service/checkin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var ict = time.FixedZone("ICT", 7*60*60)

type memoryStore struct {
	mu        sync.Mutex
	rows      map[string]checkin.Record
	insertErr error
}

func (s *memoryStore) Insert(_ context.Context, rec checkin.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.rows[rec.EmployeeID]; ok {
		return checkin.ErrDuplicate
	}
	s.rows[rec.EmployeeID] = rec
	return nil
}

func (s *memoryStore) GetByEmployeeID(_ context.Context, id string) (checkin.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[id]
	if !ok {
		return checkin.Record{}, checkin.ErrNotFound
	}
	return rec, nil
}

type fakeRepo struct {
	list     []registration.GetListResponse
	counts   map[checkin.Session]int
	filter   registration.Filter
	deleted  checkin.Record
	countDay time.Time
}

func (r *fakeRepo) GetList(_ context.Context, filter registration.Filter) ([]registration.GetListResponse, int, error) {
	r.filter = filter
	return r.list, len(r.list), nil
}

func (r *fakeRepo) CountBySession(_ context.Context, day time.Time) (map[checkin.Session]int, error) {
	r.countDay = day
	return r.counts, nil
}

func (r *fakeRepo) Delete(_ context.Context, employeeID string) (checkin.Record, error) {
	if employeeID != r.deleted.EmployeeID {
		return checkin.Record{}, web.NewRequestError(errors.New("not found"), http.StatusNotFound)
	}
	return r.deleted, nil
}

type fakeStats struct {
	counts       map[checkin.Session]int
	err          error
	unregistered []string
	seeded       map[checkin.Session]int
}

func (s *fakeStats) Counts(context.Context, time.Time) (map[checkin.Session]int, error) {
	return s.counts, s.err
}

func (s *fakeStats) Unregistered(_ context.Context, rec checkin.Record) error {
	s.unregistered = append(s.unregistered, rec.EmployeeID)
	return nil
}

func (s *fakeStats) Seed(_ context.Context, _ time.Time, counts map[checkin.Session]int) error {
	s.seeded = counts
	return nil
}

type fixture struct {
	app   *web.App
	store *memoryStore
	repo  *fakeRepo
	stats *fakeStats
}

func newFixture(t *testing.T, withStats bool) *fixture {
	t.Helper()

	f := &fixture{
		store: &memoryStore{rows: map[string]checkin.Record{}},
		repo:  &fakeRepo{},
		stats: &fakeStats{},
	}

	clock := checkin.ClockFunc(func() time.Time { return time.Date(2024, 3, 1, 10, 15, 42, 0, ict) })
	reconciler := checkin.NewReconciler(f.store, clock, ict, zap.NewNop())

	var counters Stats
	if withStats {
		counters = f.stats
	}
	ctrl := NewController(reconciler, f.repo, counters, clock, ict, zap.NewNop())

	f.app = web.NewApp(zap.NewNop(), middleware.Locale())
	f.app.Post("/:locale/register/api", ctrl.CheckIn)
	f.app.Get("/api/v1/registration/list", ctrl.GetList)
	f.app.Get("/api/v1/registration/statistics", ctrl.GetStatistics)
	f.app.Get("/api/v1/registration/export", ctrl.Export)
	f.app.Delete("/api/v1/registration/:employee_id", ctrl.Delete)

	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	f.app.ServeHTTP(w, req)
	return w
}

func decodeOutcome(t *testing.T, w *httptest.ResponseRecorder) checkin.Outcome {
	t.Helper()
	var o checkin.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &o))
	return o
}

func TestCheckIn_FirstThenDuplicate(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(http.MethodPost, "/en/register/api", `{"employee_id":"E001","full_name":"Somchai"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	o := decodeOutcome(t, w)
	assert.True(t, o.Success)
	assert.Equal(t, checkin.SessionDay, o.Session)
	assert.Equal(t, "Successfully registered new employee ID: E001. Session: Day", o.Message)
	require.NotNil(t, o.RegisteredData)
	assert.Equal(t, "Somchai", o.RegisteredData.FullName)

	w = f.do(http.MethodPost, "/en/register/api", `{"employee_id":"E001"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	o = decodeOutcome(t, w)
	assert.False(t, o.Success)
	assert.Equal(t, checkin.KindConflict, o.Kind)
	assert.Equal(t, "already registered at 10:15:42", o.Message)
	assert.Equal(t, "E001", o.EmployeeID)
}

func TestCheckIn_Localized(t *testing.T) {
	f := newFixture(t, false)

	f.do(http.MethodPost, "/th/register/api", `{"employee_id":"E001"}`)
	w := f.do(http.MethodPost, "/th/register/api", `{"employee_id":"E001"}`)

	assert.Equal(t, "ลงทะเบียนแล้วเมื่อเวลา 10:15:42", decodeOutcome(t, w).Message)
}

func TestCheckIn_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "No data provided"},
		{"whitespace body", "  \n", "No data provided"},
		{"not json", "hello", "Invalid QR code data format."},
		{"missing id", `{"full_name":"x"}`, "Invalid QR code data format."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)

			w := f.do(http.MethodPost, "/en/register/api", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			o := decodeOutcome(t, w)
			assert.False(t, o.Success)
			assert.Equal(t, tt.message, o.Message)
			assert.Empty(t, f.store.rows)
		})
	}
}

func TestCheckIn_StorageFailure(t *testing.T) {
	f := newFixture(t, false)
	f.store.insertErr = errors.New("connection refused")

	w := f.do(http.MethodPost, "/en/register/api", `{"employee_id":"E001"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	o := decodeOutcome(t, w)
	assert.Equal(t, checkin.KindStorage, o.Kind)
	assert.Contains(t, o.Message, "connection refused")
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusCreated, StatusOf(checkin.Outcome{Success: true}))
	assert.Equal(t, http.StatusBadRequest, StatusOf(checkin.Outcome{Kind: checkin.KindValidation}))
	assert.Equal(t, http.StatusBadRequest, StatusOf(checkin.Outcome{Kind: checkin.KindConflict}))
	assert.Equal(t, http.StatusBadRequest, StatusOf(checkin.Outcome{Kind: checkin.KindAnomaly}))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(checkin.Outcome{Kind: checkin.KindStorage}))
}

func TestGetList_Filter(t *testing.T) {
	f := newFixture(t, false)
	f.repo.list = []registration.GetListResponse{{ID: 1, EmployeeID: "E001", Session: "Day"}}

	w := f.do(http.MethodGet, "/api/v1/registration/list?session=Day&date=2024-03-01&search=som&page=2&limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	filter := f.repo.filter
	require.NotNil(t, filter.Session)
	assert.Equal(t, "Day", *filter.Session)
	require.NotNil(t, filter.Date)
	assert.Equal(t, "2024-03-01", filter.Date.String())
	assert.Equal(t, 2, *filter.Page)
	assert.Equal(t, 10, *filter.Limit)
	assert.Equal(t, "som", *filter.Search)
}

func TestGetList_BadQuery(t *testing.T) {
	f := newFixture(t, false)

	for _, q := range []string{"session=Evening", "date=01/03/2024", "limit=ten"} {
		w := f.do(http.MethodGet, "/api/v1/registration/list?"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestGetStatistics_FromRedis(t *testing.T) {
	f := newFixture(t, true)
	f.stats.counts = map[checkin.Session]int{checkin.SessionDay: 4, checkin.SessionNight: 1}

	w := f.do(http.MethodGet, "/api/v1/registration/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data registration.StatisticsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "redis", body.Data.Source)
	assert.Equal(t, 5, body.Data.Total)
	assert.Equal(t, "2024-03-01", body.Data.Date)
}

func TestGetStatistics_FallsBackToDatabase(t *testing.T) {
	f := newFixture(t, true)
	f.stats.err = errors.New("redis down")
	f.repo.counts = map[checkin.Session]int{checkin.SessionDay: 2, checkin.SessionNight: 0}

	w := f.do(http.MethodGet, "/api/v1/registration/statistics?date=2024-02-29", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data registration.StatisticsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "database", body.Data.Source)
	assert.Equal(t, 2, body.Data.Counts["Day"])
	assert.Equal(t, "2024-02-29", body.Data.Date)
	assert.Equal(t, 29, f.repo.countDay.Day())
}

func TestGetStatistics_ExpiredCountersUseDatabase(t *testing.T) {
	f := newFixture(t, true)
	f.stats.err = errors.Wrap(stats.ErrNoCounters, "2024-02-01")
	f.repo.counts = map[checkin.Session]int{checkin.SessionDay: 3, checkin.SessionNight: 1}

	w := f.do(http.MethodGet, "/api/v1/registration/statistics?date=2024-02-01", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data registration.StatisticsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "database", body.Data.Source)
	assert.Equal(t, 4, body.Data.Total)
	assert.Equal(t, f.repo.counts, f.stats.seeded)
}

func TestGetStatistics_UnavailableRedisIsNotSeeded(t *testing.T) {
	f := newFixture(t, true)
	f.stats.err = errors.New("redis down")
	f.repo.counts = map[checkin.Session]int{checkin.SessionDay: 1, checkin.SessionNight: 0}

	w := f.do(http.MethodGet, "/api/v1/registration/statistics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, f.stats.seeded)
}

func TestExport(t *testing.T) {
	f := newFixture(t, false)
	name := "Somchai"
	f.repo.list = []registration.GetListResponse{{EmployeeID: "E001", FullName: &name, Session: "Day", WorkDay: "2024-03-01", RegisteredAt: "10:15:42"}}

	w := f.do(http.MethodGet, "/api/v1/registration/export?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "registrations-20240301-101542.xlsx")
	assert.Nil(t, f.repo.filter.Limit)

	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Registrations")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Somchai", rows[1][1])
}

func TestDelete(t *testing.T) {
	f := newFixture(t, true)
	f.repo.deleted = checkin.Record{EmployeeID: "E001", Session: checkin.SessionDay}

	w := f.do(http.MethodDelete, "/api/v1/registration/E001", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"E001"}, f.stats.unregistered)

	w = f.do(http.MethodDelete, "/api/v1/registration/E999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
