package registration

import (
	"bytes"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/Azure/go-autorest/autorest/date"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/pkg/i18n"
	"eventdesk/backend/internal/repository/postgres/registration"
	"eventdesk/backend/internal/repository/redis/stats"
	"eventdesk/backend/internal/service"
	"eventdesk/backend/internal/service/checkin"
)

const (
	maxScanBytes = 64 << 10

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Controller struct {
	reconciler   Reconciler
	registration Registration
	stats        Stats
	clock        checkin.Clock
	loc          *time.Location
	log          *zap.Logger
}

// NewController wires the check-in endpoints. counters may be nil when redis
// is not configured.
func NewController(reconciler Reconciler, registration Registration, counters Stats, clock checkin.Clock, loc *time.Location, log *zap.Logger) *Controller {
	if clock == nil {
		clock = checkin.SystemClock
	}
	return &Controller{
		reconciler:   reconciler,
		registration: registration,
		stats:        counters,
		clock:        clock,
		loc:          loc,
		log:          log,
	}
}

// StatusOf maps a check-in outcome to its HTTP status.
func StatusOf(o checkin.Outcome) int {
	switch {
	case o.Success:
		return http.StatusCreated
	case o.Kind == checkin.KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// CheckIn takes the raw text read by the scanner as the request body.
func (uc Controller) CheckIn(c *web.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxScanBytes))
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "reading body"), http.StatusBadRequest))
	}

	raw := string(body)
	if strings.TrimSpace(raw) == "" {
		return c.Respond(checkin.Outcome{Message: i18n.T(c.Ctx, i18n.MsgNoData)}, http.StatusBadRequest)
	}

	outcome := uc.reconciler.CheckIn(c.Ctx, raw)

	return c.Respond(outcome, StatusOf(outcome))
}

func (uc Controller) GetList(c *web.Context) error {
	filter, err := uc.filter(c)
	if err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.registration.GetList(c.Ctx, filter)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"results": list,
			"count":   count,
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetStatistics(c *web.Context) error {
	day := uc.clock.Now()
	if d, ok := c.GetQueryFunc(reflect.String, "date").(*string); ok {
		parsed, err := date.ParseDate(*d)
		if err != nil {
			return c.RespondError(web.NewRequestError(errors.Wrap(err, "date"), http.StatusBadRequest))
		}
		day = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 12, 0, 0, 0, uc.loc)
	}

	counts, source, err := uc.counts(c, day)
	if err != nil {
		return c.RespondError(err)
	}

	response := registration.StatisticsResponse{
		Date:   day.In(uc.loc).Format("2006-01-02"),
		Counts: make(map[string]int, len(counts)),
		Source: source,
	}
	for _, s := range checkin.Sessions {
		response.Counts[string(s)] = counts[s]
		response.Total += counts[s]
	}

	return c.Respond(map[string]interface{}{
		"data":   response,
		"status": true,
	}, http.StatusOK)
}

// counts prefers the live redis counters and falls back to counting rows.
// Counters missing from redis are seeded from the database result.
func (uc Controller) counts(c *web.Context, day time.Time) (map[checkin.Session]int, string, error) {
	var missing bool
	if uc.stats != nil {
		counts, err := uc.stats.Counts(c.Ctx, day)
		if err == nil {
			return counts, "redis", nil
		}
		missing = errors.Is(err, stats.ErrNoCounters)
		if !missing {
			uc.log.Warn("reading live counters, falling back to database", zap.Error(err))
		}
	}

	counts, err := uc.registration.CountBySession(c.Ctx, day)
	if err != nil {
		return nil, "", err
	}

	if missing {
		if err := uc.stats.Seed(c.Ctx, day, counts); err != nil {
			uc.log.Warn("seeding live counters", zap.Error(err))
		}
	}

	return counts, "database", nil
}

func (uc Controller) Export(c *web.Context) error {
	filter, err := uc.filter(c)
	if err != nil {
		return c.RespondError(err)
	}
	filter.Limit, filter.Page, filter.Offset = nil, nil, nil

	list, _, err := uc.registration.GetList(c.Ctx, filter)
	if err != nil {
		return c.RespondError(err)
	}

	rows := make([]service.RegistrationRow, 0, len(list))
	for _, r := range list {
		rows = append(rows, service.RegistrationRow{
			EmployeeID:   r.EmployeeID,
			FullName:     deref(r.FullName),
			Department:   deref(r.Department),
			Session:      r.Session,
			WorkDay:      r.WorkDay,
			RegisteredAt: r.RegisteredAt,
		})
	}

	var buf bytes.Buffer
	if err := service.WriteRegistrations(&buf, rows); err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusInternalServerError))
	}

	name := "registrations-" + uc.clock.Now().In(uc.loc).Format("20060102-150405") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())

	return nil
}

func (uc Controller) Delete(c *web.Context) error {
	employeeID := c.GetParam(reflect.String, "employee_id").(string)

	if err := c.ValidParam(); err != nil {
		return c.RespondError(err)
	}

	rec, err := uc.registration.Delete(c.Ctx, employeeID)
	if err != nil {
		return c.RespondError(err)
	}

	if uc.stats != nil {
		if err := uc.stats.Unregistered(c.Ctx, rec); err != nil {
			uc.log.Warn("reverting live counter", zap.String("employee_id", rec.EmployeeID), zap.Error(err))
		}
	}

	return c.Respond(map[string]interface{}{
		"data":   "ok!",
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) filter(c *web.Context) (registration.Filter, error) {
	var filter registration.Filter

	if limit, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
		filter.Limit = limit
	}
	if offset, ok := c.GetQueryFunc(reflect.Int, "offset").(*int); ok {
		filter.Offset = offset
	}
	if page, ok := c.GetQueryFunc(reflect.Int, "page").(*int); ok {
		filter.Page = page
	}
	if search, ok := c.GetQueryFunc(reflect.String, "search").(*string); ok {
		filter.Search = search
	}
	if session, ok := c.GetQueryFunc(reflect.String, "session").(*string); ok {
		filter.Session = session
	}
	if err := c.ValidQuery(); err != nil {
		return registration.Filter{}, err
	}

	if d, ok := c.GetQueryFunc(reflect.String, "date").(*string); ok {
		parsed, err := date.ParseDate(*d)
		if err != nil {
			return registration.Filter{}, web.NewRequestError(errors.Wrap(err, "date"), http.StatusBadRequest)
		}
		filter.Date = &parsed
	}

	if filter.Session != nil && !checkin.Session(*filter.Session).Valid() {
		return registration.Filter{}, web.NewRequestError(errors.Errorf("session must be one of %v", checkin.Sessions), http.StatusBadRequest)
	}

	return filter, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
