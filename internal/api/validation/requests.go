package validation

import "github.com/feeledger/feeledger/internal/money"

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,notblank,max=50"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	SchoolName      string `json:"schoolName" validate:"max=150"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

// CreateClassRequest is the body of POST /classes.
type CreateClassRequest struct {
	Name string       `json:"name" validate:"required,notblank,max=100"`
	Fee  money.Amount `json:"fee" validate:"gte=0"`
}

// CreateStudentRequest is the body of POST /classes/{id}/students.
type CreateStudentRequest struct {
	Name string `json:"name" validate:"required,notblank,max=150"`
}

// RecordPaymentRequest is the body of POST /payments.
type RecordPaymentRequest struct {
	StudentID string       `json:"studentId" validate:"required,uuid"`
	Amount    money.Amount `json:"amount" validate:"gt=0"`
	Date      string       `json:"date" validate:"required,date"`
	Notes     string       `json:"notes" validate:"max=500"`
}

// RecordExpenseRequest is the body of POST /expenses.
type RecordExpenseRequest struct {
	Description string       `json:"description" validate:"required,notblank,max=255"`
	Amount      money.Amount `json:"amount" validate:"gt=0"`
	Date        string       `json:"date" validate:"required,date"`
	Notes       string       `json:"notes" validate:"max=500"`
}

// PeriodQuery holds the optional date range of the dashboard.
type PeriodQuery struct {
	From string `json:"from" validate:"omitempty,date"`
	To   string `json:"to" validate:"omitempty,date"`
}

// ChangeUsernameRequest is the body of PUT /profile/username.
type ChangeUsernameRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewUsername     string `json:"newUsername" validate:"required,notblank,max=50"`
}

// ChangePasswordRequest is the body of PUT /profile/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ChangeSchoolNameRequest is the body of PUT /profile/school-name.
type ChangeSchoolNameRequest struct {
	SchoolName string `json:"schoolName" validate:"max=150"`
}

// CreateTeacherRequest is the body of POST /teachers.
type CreateTeacherRequest struct {
	Username    string   `json:"username" validate:"required,notblank,max=50"`
	Password    string   `json:"password" validate:"required,min=6"`
	Permissions []string `json:"permissions" validate:"dive,permission"`
}

// UpdatePermissionsRequest is the body of PUT /teachers/{id}/permissions.
type UpdatePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"dive,permission"`
}

// UpdateSettingsRequest is the body of PUT /admin/settings.
type UpdateSettingsRequest struct {
	DefaultTrialDays    *int `json:"defaultTrialDays" validate:"required,gte=0,lte=3650"`
	LicenseValidityDays *int `json:"licenseValidityDays" validate:"required,gt=0,lte=3650"`
}

// IssueLicenseRequest is the body of POST /admin/owners/{id}/license.
// Zero validity days uses the configured default.
type IssueLicenseRequest struct {
	ValidityDays int `json:"validityDays" validate:"gte=0,lte=3650"`
}

// UpdateTrialRequest is the body of PUT /admin/owners/{id}/trial.
// Zero days clears the trial.
type UpdateTrialRequest struct {
	Days *int `json:"days" validate:"required,gte=0,lte=3650"`
}
