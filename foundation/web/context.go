package web

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Context carries the gin context together with the request scoped
// context.Context that middleware enriches (claims, locale).
type Context struct {
	*gin.Context
	Ctx   context.Context
	Start time.Time

	paramErrs []string
	queryErrs []string
}

// Respond writes data as JSON with the given status.
func (c *Context) Respond(data interface{}, status int) error {
	if status == http.StatusNoContent {
		c.Status(status)
		return nil
	}

	c.JSON(status, data)
	return nil
}

// RespondError writes err to the client and hands it back so the App can log
// it. Errors that are not *Error never leak their message to the client.
func (c *Context) RespondError(err error) error {
	var webErr *Error
	if errors.As(err, &webErr) {
		body := map[string]interface{}{
			"error":  webErr.Error(),
			"status": false,
		}
		if len(webErr.Fields) > 0 {
			body["fields"] = webErr.Fields
		}
		c.AbortWithStatusJSON(StatusOf(webErr), body)
		return err
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, map[string]interface{}{
		"error":  http.StatusText(http.StatusInternalServerError),
		"status": false,
	})
	return err
}

// BindFunc binds the request body into request and verifies that every named
// field is set. Names may be given separately or comma separated.
func (c *Context) BindFunc(request interface{}, required ...string) error {
	if err := c.ShouldBind(request); err != nil {
		return NewRequestError(errors.Wrap(err, "binding request"), http.StatusBadRequest)
	}

	return ValidateFields(request, required...)
}

// GetParam reads a path parameter converted to kind. Conversion failures are
// collected and reported by ValidParam.
func (c *Context) GetParam(kind reflect.Kind, name string) interface{} {
	raw := c.Param(name)

	switch kind {
	case reflect.Int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.paramErrs = append(c.paramErrs, fmt.Sprintf("%s: must be an integer", name))
			return 0
		}
		return v
	default:
		if strings.TrimSpace(raw) == "" {
			c.paramErrs = append(c.paramErrs, fmt.Sprintf("%s: is required", name))
		}
		return raw
	}
}

// GetQueryFunc returns a pointer to the converted query value or nil when the
// query parameter is absent.
func (c *Context) GetQueryFunc(kind reflect.Kind, name string) interface{} {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}

	switch kind {
	case reflect.Int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.queryErrs = append(c.queryErrs, fmt.Sprintf("%s: must be an integer", name))
			return nil
		}
		return &v
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.queryErrs = append(c.queryErrs, fmt.Sprintf("%s: must be a boolean", name))
			return nil
		}
		return &v
	default:
		return &raw
	}
}

func (c *Context) ValidParam() error {
	if len(c.paramErrs) == 0 {
		return nil
	}
	return NewRequestError(errors.New(strings.Join(c.paramErrs, "; ")), http.StatusBadRequest)
}

func (c *Context) ValidQuery() error {
	if len(c.queryErrs) == 0 {
		return nil
	}
	return NewRequestError(errors.New(strings.Join(c.queryErrs, "; ")), http.StatusBadRequest)
}

// ValidateFields checks that the named struct fields of s hold non zero
// values. s must be a pointer to a struct.
func ValidateFields(s interface{}, fields ...string) error {
	v := reflect.ValueOf(s)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return NewRequestError(errors.New("empty request"), http.StatusBadRequest)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.Errorf("validate: expected struct, got %s", v.Kind())
	}

	missing := map[string]string{}
	for _, group := range fields {
		for _, name := range strings.Split(group, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}

			f := v.FieldByName(name)
			if !f.IsValid() {
				return errors.Errorf("validate: unknown field %q", name)
			}
			if f.IsZero() || (f.Kind() == reflect.Ptr && f.Elem().IsZero()) {
				missing[jsonName(v.Type(), name)] = "required"
			}
		}
	}

	if len(missing) == 0 {
		return nil
	}

	keys := make([]string, 0, len(missing))
	for k := range missing {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &Error{
		Err:    errors.Errorf("missing required fields: %s", strings.Join(keys, ", ")),
		Status: http.StatusBadRequest,
		Fields: missing,
	}
}

func jsonName(t reflect.Type, field string) string {
	sf, ok := t.FieldByName(field)
	if !ok {
		return field
	}
	tag := strings.Split(sf.Tag.Get("json"), ",")[0]
	if tag == "" || tag == "-" {
		return field
	}
	return tag
}
