package employee

import (
	"bytes"
	"net/http"
	"os"
	"reflect"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/entity"
	"eventdesk/backend/internal/repository/postgres/employee"
	"eventdesk/backend/internal/service"
)

const qrSize = 512

type Controller struct {
	employee Employee
	mediaDir string
	log      *zap.Logger
}

func NewController(employee Employee, mediaDir string, log *zap.Logger) *Controller {
	return &Controller{employee: employee, mediaDir: mediaDir, log: log}
}

// Import upserts employees from an uploaded xlsx file.
func (uc Controller) Import(c *web.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "file"), http.StatusBadRequest))
	}

	path, err := service.Upload(file, uc.mediaDir, "imports", service.SpreadsheetTypes)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusBadRequest))
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			uc.log.Warn("removing import file", zap.String("path", path), zap.Error(err))
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return c.RespondError(web.NewRequestError(errors.Wrap(err, "opening import"), http.StatusInternalServerError))
	}
	defer f.Close()

	rows, incompleteRows, err := service.ReadEmployees(f)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusBadRequest))
	}

	request := make([]employee.ImportRow, 0, len(rows))
	for _, r := range rows {
		request = append(request, employee.ImportRow{
			EmployeeID: r.EmployeeID,
			FullName:   r.FullName,
			Department: r.Department,
		})
	}

	response, err := uc.employee.Import(c.Ctx, request)
	if err != nil {
		return c.RespondError(err)
	}

	return c.Respond(map[string]interface{}{
		"data": map[string]interface{}{
			"imported":        response.Imported,
			"incomplete_rows": incompleteRows,
		},
		"status": true,
	}, http.StatusOK)
}

func (uc Controller) GetList(c *web.Context) error {
	var filter employee.Filter

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
	if err := c.ValidQuery(); err != nil {
		return c.RespondError(err)
	}

	list, count, err := uc.employee.GetList(c.Ctx, filter)
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

// GetQrCode renders the badge QR code of one employee as PNG.
func (uc Controller) GetQrCode(c *web.Context) error {
	employeeID := c.Query("employee_id")
	if employeeID == "" {
		return c.RespondError(web.NewRequestError(errors.New("employee_id parameter is required"), http.StatusBadRequest))
	}

	detail, err := uc.employee.GetByEmployeeID(c.Ctx, employeeID)
	if err != nil {
		return c.RespondError(err)
	}

	png, err := service.QRCode(row(detail), qrSize)
	if err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusInternalServerError))
	}

	c.Header("Content-Disposition", "inline; filename="+detail.EmployeeID+".png")
	c.Data(http.StatusOK, "image/png", png)

	return nil
}

// GetBadges renders a printable PDF with every employee's badge.
func (uc Controller) GetBadges(c *web.Context) error {
	list, err := uc.employee.All(c.Ctx)
	if err != nil {
		return c.RespondError(err)
	}

	rows := make([]service.EmployeeRow, 0, len(list))
	for _, e := range list {
		rows = append(rows, row(e))
	}

	var buf bytes.Buffer
	if err := service.BadgeSheet(&buf, rows); err != nil {
		return c.RespondError(web.NewRequestError(err, http.StatusInternalServerError))
	}

	c.Header("Content-Disposition", `attachment; filename="badges.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())

	return nil
}

func row(e entity.Employee) service.EmployeeRow {
	r := service.EmployeeRow{EmployeeID: e.EmployeeID}
	if e.FullName != nil {
		r.FullName = *e.FullName
	}
	if e.Department != nil {
		r.Department = *e.Department
	}
	return r
}
