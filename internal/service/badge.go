package service

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"eventdesk/backend/internal/service/checkin"
)

// Badge sheet layout in millimetres on A4 portrait.
const (
	badgeCols    = 3
	badgeRows    = 4
	badgeWidth   = 60.0
	badgeHeight  = 68.0
	badgeMarginX = 15.0
	badgeMarginY = 12.0
	badgeQR      = 44.0
	qrPixels     = 512
)

// QRContent is the exact text a scanner decodes from a badge.
func QRContent(e EmployeeRow) (string, error) {
	data, err := json.Marshal(checkin.Payload{
		EmployeeID: e.EmployeeID,
		FullName:   e.FullName,
		Department: e.Department,
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding qr payload")
	}
	return string(data), nil
}

// QRCode renders the badge QR code of e as a PNG.
func QRCode(e EmployeeRow, size int) ([]byte, error) {
	content, err := QRContent(e)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "encoding qr code")
	}

	return png, nil
}

// BadgeSheet writes a printable PDF with one QR badge per employee.
func BadgeSheet(w io.Writer, employees []EmployeeRow) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	perPage := badgeCols * badgeRows
	for i, e := range employees {
		if i%perPage == 0 {
			pdf.AddPage()
		}

		slot := i % perPage
		x := badgeMarginX + float64(slot%badgeCols)*badgeWidth
		y := badgeMarginY + float64(slot/badgeCols)*badgeHeight

		png, err := QRCode(e, qrPixels)
		if err != nil {
			return errors.Wrapf(err, "badge for %s", e.EmployeeID)
		}

		name := "qr-" + e.EmployeeID
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
		pdf.ImageOptions(name, x+(badgeWidth-badgeQR)/2, y+2, badgeQR, badgeQR, false, opts, 0, "")

		pdf.SetXY(x, y+badgeQR+3)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(badgeWidth, 6, tr(e.EmployeeID), "", 2, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(badgeWidth, 5, tr(e.FullName), "", 2, "C", false, 0, "")
		pdf.CellFormat(badgeWidth, 5, tr(e.Department), "", 0, "C", false, 0, "")

		pdf.SetDrawColor(200, 200, 200)
		pdf.Rect(x, y, badgeWidth, badgeHeight-2, "D")

		if err := pdf.Error(); err != nil {
			return errors.Wrap(err, "rendering badge sheet")
		}
	}

	if len(employees) == 0 {
		pdf.AddPage()
	}

	return errors.Wrap(pdf.Output(w), "writing badge sheet")
}
