package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/feeledger/feeledger/internal/access"
	"github.com/feeledger/feeledger/internal/api/handler"
	"github.com/feeledger/feeledger/internal/api/middleware"
	"github.com/feeledger/feeledger/internal/ledger"
	"github.com/feeledger/feeledger/internal/school"
)

// SessionService resolves, opens and closes sessions.
type SessionService interface {
	middleware.SessionResolver
	handler.SessionManager
}

// AccountService covers every account operation exposed over HTTP.
type AccountService interface {
	handler.Registrar
	handler.ProfileService
	handler.TeacherService
	handler.AccountAdmin
}

// ReportService builds the dashboard and the CSV reports.
type ReportService interface {
	handler.Summarizer
	handler.Reporter
}

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger  handler.Pinger
	Version   string
	Sessions  SessionService
	Cookies   handler.CookieJar
	Accounts  AccountService
	Licensing handler.LicenseAdmin
	School    school.Repository
	Ledger    ledger.Repository
	Reports   ReportService
}

// NewRouter creates and configures a Chi router with all middleware and routes.
// Every route states its guard; tenant routes additionally resolve their scope
// from the request principal.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Session(deps.Sessions, deps.Cookies))

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.Version)
	authHandler := handler.NewAuthHandler(deps.Accounts, deps.Sessions, deps.Cookies)
	dashboardHandler := handler.NewDashboardHandler(deps.Reports)
	reportHandler := handler.NewReportHandler(deps.Reports)
	classHandler := handler.NewClassHandler(deps.School)
	paymentHandler := handler.NewPaymentHandler(deps.Ledger)
	expenseHandler := handler.NewExpenseHandler(deps.Ledger)
	profileHandler := handler.NewProfileHandler(deps.Accounts, deps.Ledger)
	teacherHandler := handler.NewTeacherHandler(deps.Accounts)
	adminHandler := handler.NewAdminHandler(deps.Accounts, deps.Licensing)

	owner := middleware.RequireRole(access.RoleOwner)
	viewDashboard := middleware.RequirePermission(access.PermViewDashboard)
	viewClasses := middleware.RequirePermission(access.PermViewClasses)
	viewPayments := middleware.RequirePermission(access.PermViewPayments)
	recordPayments := middleware.RequirePermission(access.PermRecordPayments)
	viewExpenses := middleware.RequirePermission(access.PermViewExpenses)

	r.Get("/health", healthHandler.ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(middleware.RequireAuthenticated()).Get("/me", authHandler.Me)
	})

	r.With(middleware.RequireAuthenticated()).Get("/license", authHandler.License)

	r.With(viewDashboard).Get("/dashboard", dashboardHandler.Summary)

	r.Route("/reports", func(r chi.Router) {
		r.With(viewDashboard).Get("/transactions", reportHandler.Transactions)
		r.With(viewDashboard).Get("/outstanding", reportHandler.Outstanding)
		r.With(viewPayments).Get("/students/{id}", reportHandler.StudentHistory)
	})

	r.Route("/classes", func(r chi.Router) {
		r.With(viewClasses).Post("/", classHandler.Create)
		r.With(viewClasses).Get("/", classHandler.List)
		r.With(viewClasses).Get("/{id}", classHandler.Get)
		r.With(owner).Delete("/{id}", classHandler.Delete)
		r.With(viewClasses).Post("/{id}/students", classHandler.AddStudent)
	})

	r.Route("/students", func(r chi.Router) {
		r.With(middleware.RequireAnyPermission(access.PermViewClasses, access.PermViewPayments, access.PermRecordPayments)).
			Get("/", classHandler.ListStudents)
		r.With(owner).Delete("/{id}", classHandler.DeleteStudent)
	})

	r.Route("/payments", func(r chi.Router) {
		r.With(recordPayments).Post("/", paymentHandler.Record)
		r.With(viewPayments).Get("/", paymentHandler.ListRecent)
		r.With(viewPayments).Get("/{id}/receipt", paymentHandler.Receipt)
		r.With(owner).Delete("/{id}", paymentHandler.Delete)
	})

	r.Route("/expenses", func(r chi.Router) {
		r.With(viewExpenses).Post("/", expenseHandler.Record)
		r.With(viewExpenses).Get("/", expenseHandler.List)
		r.With(viewExpenses).Get("/{id}", expenseHandler.Get)
		r.With(owner).Delete("/{id}", expenseHandler.Delete)
	})

	r.Route("/profile", func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated())
		r.Get("/", profileHandler.Get)
		r.Put("/username", profileHandler.ChangeUsername)
		r.Put("/password", profileHandler.ChangePassword)
		r.With(owner).Put("/school-name", profileHandler.ChangeSchoolName)
		r.With(owner).Post("/clear-transactions", profileHandler.ClearTransactions)
	})

	r.Route("/teachers", func(r chi.Router) {
		r.Use(owner)
		r.Post("/", teacherHandler.Create)
		r.Get("/", teacherHandler.List)
		r.Put("/{id}/permissions", teacherHandler.UpdatePermissions)
		r.Delete("/{id}", teacherHandler.Delete)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(access.RoleSuperAdmin))
		r.Get("/owners", adminHandler.ListOwners)
		r.Post("/owners/{id}/license", adminHandler.IssueLicense)
		r.Put("/owners/{id}/trial", adminHandler.UpdateTrial)
		r.Get("/settings", adminHandler.GetSettings)
		r.Put("/settings", adminHandler.UpdateSettings)
		r.Delete("/users/{id}", adminHandler.DeleteUser)
	})

	return r
}
