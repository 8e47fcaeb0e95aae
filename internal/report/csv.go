package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/feeledger/feeledger/internal/licensing"
)

// ContentType is the media type of every report download.
const ContentType = "text/csv; charset=utf-8"

const generatedLayout = "2006-01-02 15:04"

// bom makes spreadsheet applications read the file as UTF-8.
var bom = []byte{0xEF, 0xBB, 0xBF}

// WriteTransactions writes the payments and expenses sections.
func WriteTransactions(w io.Writer, t *Transactions) error {
	cw, err := start(w)
	if err != nil {
		return err
	}

	writeHeading(cw, "Financial Transactions Report", t.Heading)

	cw.Write([]string{"--- PAYMENTS ---"})
	cw.Write([]string{"Date", amountColumn("Amount", t.Currency), "Student Name", "Class Name", "Notes"})
	for _, p := range t.Payments {
		cw.Write([]string{p.Date.Format(licensing.DateLayout), p.Amount.String(), text(p.StudentName), text(p.ClassName), text(p.Notes)})
	}

	cw.Write([]string{""})
	cw.Write([]string{""})

	cw.Write([]string{"--- EXPENSES ---"})
	cw.Write([]string{"Date", amountColumn("Amount", t.Currency), "Description", "Notes"})
	for _, e := range t.Expenses {
		cw.Write([]string{e.Date.Format(licensing.DateLayout), e.Amount.String(), text(e.Description), text(e.Notes)})
	}

	return finish(cw)
}

// WriteOutstanding writes the students owing section.
func WriteOutstanding(w io.Writer, o *Outstanding) error {
	cw, err := start(w)
	if err != nil {
		return err
	}

	writeHeading(cw, "Outstanding Balances Report", o.Heading)

	cw.Write([]string{"--- STUDENTS OWING ---"})
	cw.Write([]string{
		"Student Name", "Class",
		amountColumn("Class Fee", o.Currency),
		amountColumn("Total Paid", o.Currency),
		amountColumn("Balance Due", o.Currency),
	})
	if len(o.Students) == 0 {
		cw.Write([]string{"No students found with an outstanding balance."})
	}
	for _, b := range o.Students {
		cw.Write([]string{text(b.StudentName), text(b.ClassName), b.Fee.String(), b.Paid.String(), b.Balance().String()})
	}

	return finish(cw)
}

// WriteStudentHistory writes the student summary and the payment details.
func WriteStudentHistory(w io.Writer, h *StudentHistory) error {
	cw, err := start(w)
	if err != nil {
		return err
	}

	cw.Write([]string{"Payment History Report"})
	cw.Write([]string{"School Name: " + h.SchoolName})
	cw.Write([]string{"Student Name: " + h.Student.Name})
	cw.Write([]string{"Class: " + h.Student.ClassName})
	cw.Write([]string{"Class Fee: " + h.Currency + h.Student.ClassFee.String()})
	cw.Write([]string{"Total Paid (So Far): " + h.Currency + h.TotalPaid.String()})
	cw.Write([]string{"Balance Due: " + h.Currency + h.Balance().String()})
	cw.Write([]string{"Report Date: " + h.GeneratedAt.Format(generatedLayout)})
	cw.Write([]string{""})

	cw.Write([]string{"--- PAYMENT DETAILS ---"})
	cw.Write([]string{"Date", amountColumn("Amount", h.Currency), "Notes"})
	if len(h.Payments) == 0 {
		cw.Write([]string{"No payment records found for this student."})
	}
	for _, p := range h.Payments {
		cw.Write([]string{p.Date.Format(licensing.DateLayout), p.Amount.String(), text(p.Notes)})
	}

	return finish(cw)
}

// Filename builds a download name such as "outstanding_balances_Green_Hill_2024-01-31.csv".
func Filename(prefix, subject string, on time.Time) string {
	subject = strings.Map(func(r rune) rune {
		switch r {
		case ' ':
			return '_'
		case '"', '/', '\\':
			return -1
		}
		return r
	}, subject)
	return fmt.Sprintf("%s_%s_%s.csv", prefix, subject, on.Format(licensing.DateLayout))
}

// text quotes user-entered values that spreadsheets would evaluate as formulas.
func text(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

func start(w io.Writer) (*csv.Writer, error) {
	if _, err := w.Write(bom); err != nil {
		return nil, fmt.Errorf("writing byte order mark: %w", err)
	}
	return csv.NewWriter(w), nil
}

// writeHeading writes the title block and a blank separator row. Write
// errors are sticky on csv.Writer and surface in finish.
func writeHeading(cw *csv.Writer, title string, h Heading) {
	cw.Write([]string{title})
	cw.Write([]string{"School Name: " + h.SchoolName})
	cw.Write([]string{"Report Date: " + h.GeneratedAt.Format(generatedLayout)})
	cw.Write([]string{""})
}

func finish(cw *csv.Writer) error {
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

func amountColumn(label, currency string) string {
	if currency == "" {
		return label
	}
	return fmt.Sprintf("%s (%s)", label, currency)
}
