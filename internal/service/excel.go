package service

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

const registrationSheet = "Registrations"

type EmployeeRow struct {
	EmployeeID string
	FullName   string
	Department string
}

type RegistrationRow struct {
	EmployeeID   string
	FullName     string
	Department   string
	Session      string
	WorkDay      string
	RegisteredAt string
}

// ReadEmployees reads employee_id, full_name and department from the first
// three columns of the first sheet. The header row is skipped. Rows without
// an employee id are reported by their 1-based row number.
func ReadEmployees(r io.Reader) ([]EmployeeRow, []int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading rows")
	}

	var (
		employees      []EmployeeRow
		incompleteRows []int
	)
	for i, row := range rows {
		if i == 0 {
			continue
		}

		employeeID := cell(row, 0)
		if employeeID == "" {
			if strings.Join(row, "") != "" {
				incompleteRows = append(incompleteRows, i+1)
			}
			continue
		}

		employees = append(employees, EmployeeRow{
			EmployeeID: employeeID,
			FullName:   cell(row, 1),
			Department: cell(row, 2),
		})
	}

	return employees, incompleteRows, nil
}

// WriteRegistrations writes rows as an xlsx workbook to w.
func WriteRegistrations(w io.Writer, rows []RegistrationRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", registrationSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	header := []interface{}{"Employee ID", "Full Name", "Department", "Session", "Date", "Registered At"}
	if err := f.SetSheetRow(registrationSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err := f.SetCellStyle(registrationSheet, "A1", "F1", style); err != nil {
		return errors.Wrap(err, "styling header")
	}
	if err := f.SetColWidth(registrationSheet, "A", "F", 20); err != nil {
		return errors.Wrap(err, "sizing columns")
	}

	for i, r := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{r.EmployeeID, r.FullName, r.Department, r.Session, r.WorkDay, r.RegisteredAt}
		if err := f.SetSheetRow(registrationSheet, axis, &values); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(row[i]))
}
