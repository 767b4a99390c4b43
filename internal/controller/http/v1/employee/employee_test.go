package employee

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"eventdesk/backend/foundation/web"
	"eventdesk/backend/internal/entity"
	"eventdesk/backend/internal/repository/postgres/employee"
	"eventdesk/backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEmployee struct {
	rows []employee.ImportRow
}

func (f *fakeEmployee) Import(_ context.Context, rows []employee.ImportRow) (employee.ImportResponse, error) {
	f.rows = append(f.rows, rows...)
	return employee.ImportResponse{Imported: len(rows)}, nil
}

func (f *fakeEmployee) GetByEmployeeID(_ context.Context, id string) (entity.Employee, error) {
	for _, r := range f.rows {
		if r.EmployeeID == id {
			name := r.FullName
			return entity.Employee{EmployeeID: r.EmployeeID, FullName: &name}, nil
		}
	}
	return entity.Employee{}, web.NewRequestError(os.ErrNotExist, http.StatusNotFound)
}

func (f *fakeEmployee) GetList(context.Context, employee.Filter) ([]employee.GetListResponse, int, error) {
	return nil, len(f.rows), nil
}

func (f *fakeEmployee) All(context.Context) ([]entity.Employee, error) {
	list := make([]entity.Employee, 0, len(f.rows))
	for _, r := range f.rows {
		list = append(list, entity.Employee{EmployeeID: r.EmployeeID})
	}
	return list, nil
}

func newApp(t *testing.T, repo *fakeEmployee) (*web.App, string) {
	t.Helper()

	dir := t.TempDir()
	ctrl := NewController(repo, dir, zap.NewNop())

	app := web.NewApp(zap.NewNop())
	app.Post("/api/v1/employee/import", ctrl.Import)
	app.Get("/api/v1/employee/list", ctrl.GetList)
	app.Get("/api/v1/employee/qrcode", ctrl.GetQrCode)
	app.Get("/api/v1/employee/badges", ctrl.GetBadges)

	return app, dir
}

func xlsxUpload(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()

	book := excelize.NewFile()
	for i, row := range [][]interface{}{
		{"employee_id", "full_name", "department"},
		{"E001", "Somchai", "IT"},
		{"E002", "Anna", "HR"},
	} {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, book.SetSheetRow("Sheet1", axis, &r))
	}
	var xlsx bytes.Buffer
	require.NoError(t, book.Write(&xlsx))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "employees.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &body, w.FormDataContentType()
}

func TestImport(t *testing.T) {
	repo := &fakeEmployee{}
	app, dir := newApp(t, repo)

	body, contentType := xlsxUpload(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/employee/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"imported":2`)
	assert.Equal(t, []employee.ImportRow{
		{EmployeeID: "E001", FullName: "Somchai", Department: "IT"},
		{EmployeeID: "E002", FullName: "Anna", Department: "HR"},
	}, repo.rows)

	entries, err := os.ReadDir(filepath.Join(dir, "imports"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImport_NoFile(t *testing.T) {
	app, _ := newApp(t, &fakeEmployee{})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/employee/import", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetQrCode(t *testing.T) {
	repo := &fakeEmployee{rows: []employee.ImportRow{{EmployeeID: "E001", FullName: "Somchai"}}}
	app, _ := newApp(t, repo)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employee/qrcode?employee_id=E001", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	want, err := service.QRCode(service.EmployeeRow{EmployeeID: "E001", FullName: "Somchai"}, qrSize)
	require.NoError(t, err)
	assert.Equal(t, want, w.Body.Bytes())

	w = httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employee/qrcode", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employee/qrcode?employee_id=E404", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBadges(t *testing.T) {
	repo := &fakeEmployee{rows: []employee.ImportRow{{EmployeeID: "E001"}, {EmployeeID: "E002"}}}
	app, _ := newApp(t, repo)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/employee/badges", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}
