package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/api/handler"
	"github.com/feeledger/feeledger/internal/ledger"
	"github.com/feeledger/feeledger/internal/money"
	"github.com/feeledger/feeledger/internal/report"
	"github.com/feeledger/feeledger/internal/school"
)

// --- Mock Report Service ---

type mockReports struct {
	dashboardFn      func(ctx context.Context, scope access.Scope, period ledger.Period) (*report.Summary, error)
	transactionsFn   func(ctx context.Context, scope access.Scope) (*report.Transactions, error)
	outstandingFn    func(ctx context.Context, scope access.Scope) (*report.Outstanding, error)
	studentHistoryFn func(ctx context.Context, scope access.Scope, studentID uuid.UUID) (*report.StudentHistory, error)
}

func (m *mockReports) Dashboard(ctx context.Context, scope access.Scope, period ledger.Period) (*report.Summary, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, scope, period)
	}
	return &report.Summary{Period: period, Status: report.StatusBalanced}, nil
}

func (m *mockReports) Transactions(ctx context.Context, scope access.Scope) (*report.Transactions, error) {
	if m.transactionsFn != nil {
		return m.transactionsFn(ctx, scope)
	}
	return &report.Transactions{Heading: sampleHeading()}, nil
}

func (m *mockReports) Outstanding(ctx context.Context, scope access.Scope) (*report.Outstanding, error) {
	if m.outstandingFn != nil {
		return m.outstandingFn(ctx, scope)
	}
	return &report.Outstanding{Heading: sampleHeading()}, nil
}

func (m *mockReports) StudentHistory(ctx context.Context, scope access.Scope, studentID uuid.UUID) (*report.StudentHistory, error) {
	if m.studentHistoryFn != nil {
		return m.studentHistoryFn(ctx, scope, studentID)
	}
	return nil, school.ErrStudentNotFound
}

func sampleHeading() report.Heading {
	return report.Heading{
		SchoolName:  "Green Hill",
		GeneratedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		Currency:    "NGN",
	}
}

// ===== GET /dashboard =====

func TestDashboard_PassesPeriod(t *testing.T) {
	t.Parallel()

	var got ledger.Period
	reports := &mockReports{
		dashboardFn: func(_ context.Context, _ access.Scope, period ledger.Period) (*report.Summary, error) {
			got = period
			return &report.Summary{
				Period:        period,
				Income:        money.FromMajor(900),
				Expenses:      money.FromMajor(1000),
				Balance:       money.FromMajor(-100),
				Status:        report.StatusLoss,
				TotalStudents: 4,
				PaidStudents:  1,
				OwingStudents: 3,
			}, nil
		},
	}
	h := handler.NewDashboardHandler(reports)
	req, w := makeChiRequest(http.MethodGet, "/dashboard?from=2024-01-01&to=2024-03-31", nil, nil, ownerRequest(uuid.New()))

	h.Summary(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.From)
	require.NotNil(t, got.To)
	assert.Equal(t, day("2024-01-01"), *got.From)
	assert.Equal(t, day("2024-03-31"), *got.To)

	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Loss", data["status"])
	assert.Equal(t, float64(-100), data["balance"])
	assert.Equal(t, "2024-01-01", data["from"])
	assert.Equal(t, float64(3), data["owingStudents"])
}

func TestDashboard_OpenPeriod(t *testing.T) {
	t.Parallel()

	h := handler.NewDashboardHandler(&mockReports{})
	req, w := makeChiRequest(http.MethodGet, "/dashboard", nil, nil, teacherRequest(uuid.New(), access.PermViewDashboard))

	h.Summary(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := parseEnvelope(t, w)["data"].(map[string]interface{})
	assert.Nil(t, data["from"])
	assert.Nil(t, data["to"])
}

func TestDashboard_InvalidDate(t *testing.T) {
	t.Parallel()

	h := handler.NewDashboardHandler(&mockReports{})
	req, w := makeChiRequest(http.MethodGet, "/dashboard?from=yesterday", nil, nil, ownerRequest(uuid.New()))

	h.Summary(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errObj := parseEnvelope(t, w)["error"].(map[string]interface{})
	details := errObj["details"].([]interface{})
	require.Len(t, details, 1)
	assert.Equal(t, "from", details[0].(map[string]interface{})["field"])
}

// ===== GET /reports/* =====

func TestReportTransactions_Attachment(t *testing.T) {
	t.Parallel()

	reports := &mockReports{
		transactionsFn: func(context.Context, access.Scope) (*report.Transactions, error) {
			return &report.Transactions{
				Heading:  sampleHeading(),
				Payments: []ledger.Payment{{StudentName: "Ada", ClassName: "JSS 1", Amount: money.FromMajor(10), Date: day("2024-02-01")}},
				Expenses: []ledger.Expense{{Description: "Chalk", Amount: money.FromMajor(3), Date: day("2024-02-02")}},
			}, nil
		},
	}
	h := handler.NewReportHandler(reports)
	req, w := makeChiRequest(http.MethodGet, "/reports/transactions", nil, nil, ownerRequest(uuid.New()))

	h.Transactions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="transactions_Green_Hill_2024-05-01.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "\xef\xbb\xbf"))
	assert.Contains(t, w.Body.String(), "Ada")
	assert.Contains(t, w.Body.String(), "Chalk")
}

func TestReportOutstanding_Attachment(t *testing.T) {
	t.Parallel()

	h := handler.NewReportHandler(&mockReports{})
	req, w := makeChiRequest(http.MethodGet, "/reports/outstanding", nil, nil, ownerRequest(uuid.New()))

	h.Outstanding(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "outstanding_balances_Green_Hill_2024-05-01.csv")
}

func TestReportStudentHistory_OtherTenantNotFound(t *testing.T) {
	t.Parallel()

	h := handler.NewReportHandler(&mockReports{})
	id := uuid.New().String()
	req, w := makeChiRequest(http.MethodGet, "/reports/students/"+id, nil, map[string]string{"id": id}, ownerRequest(uuid.New()))

	h.StudentHistory(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestReportStudentHistory_Attachment(t *testing.T) {
	t.Parallel()

	studentID := uuid.New()
	reports := &mockReports{
		studentHistoryFn: func(_ context.Context, _ access.Scope, id uuid.UUID) (*report.StudentHistory, error) {
			return &report.StudentHistory{
				Heading:   sampleHeading(),
				Student:   school.Student{ID: id, Name: "Ada Obi", ClassName: "JSS 1", ClassFee: money.FromMajor(50)},
				TotalPaid: money.FromMajor(20),
			}, nil
		},
	}
	h := handler.NewReportHandler(reports)
	req, w := makeChiRequest(http.MethodGet, "/reports/students/"+studentID.String(), nil, map[string]string{"id": studentID.String()}, ownerRequest(uuid.New()))

	h.StudentHistory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "payment_history_Ada_Obi_2024-05-01.csv")
}
