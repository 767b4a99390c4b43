package web

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type createRequest struct {
	EmployeeID *string `json:"employee_id"`
	PrizeID    string  `json:"prize_id"`
	Note       string  `json:"note"`
}

func serve(app *App, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestApp_MiddlewareOrder(t *testing.T) {
	var calls []string
	trace := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(c *Context) error {
				calls = append(calls, name)
				return next(c)
			}
		}
	}

	app := NewApp(zap.NewNop(), trace("app"))
	app.Get("/ping", func(c *Context) error {
		calls = append(calls, "handler")
		return c.Respond(map[string]bool{"status": true}, http.StatusOK)
	}, trace("route"))

	rec := serve(app, http.MethodGet, "/ping", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"app", "route", "handler"}, calls)
}

func TestContext_RespondError(t *testing.T) {
	app := NewApp(zap.NewNop())
	app.Get("/known", func(c *Context) error {
		return c.RespondError(NewRequestError(errors.New("employee_id parameter is required"), http.StatusBadRequest))
	})
	app.Get("/unknown", func(c *Context) error {
		return c.RespondError(errors.New("dial tcp: connection refused"))
	})

	rec := serve(app, http.MethodGet, "/known", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "employee_id parameter is required")

	rec = serve(app, http.MethodGet, "/unknown", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestContext_BindFunc(t *testing.T) {
	app := NewApp(zap.NewNop())
	app.Post("/redeem", func(c *Context) error {
		var req createRequest
		if err := c.BindFunc(&req, "EmployeeID,PrizeID"); err != nil {
			return c.RespondError(err)
		}
		return c.Respond(req, http.StatusOK)
	})

	rec := serve(app, http.MethodPost, "/redeem", `{"employee_id":"E100"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "prize_id")

	rec = serve(app, http.MethodPost, "/redeem", `{"employee_id":"E100","prize_id":"P1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(app, http.MethodPost, "/redeem", `{"employee_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContext_ParamsAndQuery(t *testing.T) {
	app := NewApp(zap.NewNop())
	app.Get("/items/:id", func(c *Context) error {
		id := c.GetParam(reflect.Int, "id").(int)
		if err := c.ValidParam(); err != nil {
			return c.RespondError(err)
		}

		var limit *int
		if v, ok := c.GetQueryFunc(reflect.Int, "limit").(*int); ok {
			limit = v
		}
		if err := c.ValidQuery(); err != nil {
			return c.RespondError(err)
		}

		return c.Respond(map[string]interface{}{"id": id, "limit": limit}, http.StatusOK)
	})

	rec := serve(app, http.MethodGet, "/items/7?limit=20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"limit":20}`, rec.Body.String())

	rec = serve(app, http.MethodGet, "/items/7", "")
	assert.JSONEq(t, `{"id":7,"limit":null}`, rec.Body.String())

	rec = serve(app, http.MethodGet, "/items/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(app, http.MethodGet, "/items/7?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidateFields(t *testing.T) {
	empty := ""
	err := ValidateFields(&createRequest{EmployeeID: &empty, PrizeID: "P1"}, "EmployeeID", "PrizeID")
	require.Error(t, err)

	var webErr *Error
	require.True(t, errors.As(err, &webErr))
	assert.Equal(t, map[string]string{"employee_id": "required"}, webErr.Fields)

	assert.Error(t, ValidateFields(&createRequest{}, "Missing"))
	assert.NoError(t, ValidateFields(&createRequest{PrizeID: "P1"}, "PrizeID"))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusOf(errors.Wrap(NewRequestError(errors.New("x"), http.StatusConflict), "wrapped")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}
