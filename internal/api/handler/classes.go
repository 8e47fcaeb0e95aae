package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/feeledger/feeledger/internal/api/middleware"
	"github.com/feeledger/feeledger/internal/api/response"
	"github.com/feeledger/feeledger/internal/api/validation"
	"github.com/feeledger/feeledger/internal/money"
	"github.com/feeledger/feeledger/internal/school"
)

type classResponse struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Fee          money.Amount `json:"fee"`
	StudentCount int          `json:"studentCount"`
	CreatedAt    string       `json:"createdAt"`
}

type classDetailResponse struct {
	classResponse
	Students []studentResponse `json:"students"`
}

type studentResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	ClassID   string       `json:"classId"`
	ClassName string       `json:"className"`
	ClassFee  money.Amount `json:"classFee"`
	CreatedAt string       `json:"createdAt"`
}

func toClassResponse(c *school.Class) classResponse {
	return classResponse{
		ID:           c.ID.String(),
		Name:         c.Name,
		Fee:          c.Fee,
		StudentCount: c.StudentCount,
		CreatedAt:    formatTimestamp(c.CreatedAt),
	}
}

func toStudentResponse(s *school.Student) studentResponse {
	return studentResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		ClassID:   s.ClassID.String(),
		ClassName: s.ClassName,
		ClassFee:  s.ClassFee,
		CreatedAt: formatTimestamp(s.CreatedAt),
	}
}

func toStudentResponses(students []school.Student) []studentResponse {
	items := make([]studentResponse, 0, len(students))
	for i := range students {
		items = append(items, toStudentResponse(&students[i]))
	}
	return items
}

// ClassHandler handles class and student endpoints.
type ClassHandler struct {
	repo school.Repository
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(repo school.Repository) *ClassHandler {
	return &ClassHandler{repo: repo}
}

// Create handles POST /classes.
func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	var req validation.CreateClassRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c := &school.Class{Name: strings.TrimSpace(req.Name), Fee: req.Fee}
	if err := h.repo.CreateClass(r.Context(), scope, c); err != nil {
		if errors.Is(err, school.ErrDuplicateClassName) {
			response.Err(w, http.StatusConflict, "DUPLICATE_NAME", fmt.Sprintf("A class named %q already exists", c.Name), requestID)
			return
		}
		internalError(w, r, "failed to create class", err)
		return
	}

	response.Success(w, http.StatusCreated, toClassResponse(c), requestID)
}

// List handles GET /classes.
func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	classes, err := h.repo.ListClasses(r.Context(), scope)
	if err != nil {
		internalError(w, r, "failed to list classes", err)
		return
	}

	items := make([]classResponse, 0, len(classes))
	for i := range classes {
		items = append(items, toClassResponse(&classes[i]))
	}
	response.SuccessList(w, http.StatusOK, items, len(items), middleware.GetRequestID(r.Context()))
}

// Get handles GET /classes/{id}. The response includes the class's students.
func (h *ClassHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.repo.GetClass(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, school.ErrClassNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Class not found", requestID)
			return
		}
		internalError(w, r, "failed to get class", err, "id", id)
		return
	}

	students, err := h.repo.ListStudentsInClass(r.Context(), scope, id)
	if err != nil {
		internalError(w, r, "failed to list students", err, "classId", id)
		return
	}

	response.Success(w, http.StatusOK, classDetailResponse{
		classResponse: toClassResponse(c),
		Students:      toStudentResponses(students),
	}, requestID)
}

// Delete handles DELETE /classes/{id}.
func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteClass(r.Context(), scope, id); err != nil {
		if errors.Is(err, school.ErrClassNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Class not found", middleware.GetRequestID(r.Context()))
			return
		}
		internalError(w, r, "failed to delete class", err, "id", id)
		return
	}

	response.NoContent(w)
}

// AddStudent handles POST /classes/{id}/students.
func (h *ClassHandler) AddStudent(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	classID, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var req validation.CreateStudentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s := &school.Student{ClassID: classID, Name: strings.TrimSpace(req.Name)}
	if err := h.repo.CreateStudent(r.Context(), scope, s); err != nil {
		switch {
		case errors.Is(err, school.ErrClassNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Class not found", requestID)
		case errors.Is(err, school.ErrDuplicateStudentName):
			response.Err(w, http.StatusConflict, "DUPLICATE_NAME", fmt.Sprintf("A student named %q is already in this class", s.Name), requestID)
		default:
			internalError(w, r, "failed to add student", err, "classId", classID)
		}
		return
	}

	created, err := h.repo.GetStudent(r.Context(), scope, s.ID)
	if err != nil {
		internalError(w, r, "failed to load created student", err, "id", s.ID)
		return
	}
	response.Success(w, http.StatusCreated, toStudentResponse(created), requestID)
}

// ListStudents handles GET /students, the student picker of the payments page.
func (h *ClassHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}

	students, err := h.repo.ListStudents(r.Context(), scope)
	if err != nil {
		internalError(w, r, "failed to list students", err)
		return
	}

	items := toStudentResponses(students)
	response.SuccessList(w, http.StatusOK, items, len(items), middleware.GetRequestID(r.Context()))
}

// DeleteStudent handles DELETE /students/{id}.
func (h *ClassHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	scope, ok := tenant(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.repo.DeleteStudent(r.Context(), scope, id); err != nil {
		if errors.Is(err, school.ErrStudentNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Student not found", middleware.GetRequestID(r.Context()))
			return
		}
		internalError(w, r, "failed to delete student", err, "id", id)
		return
	}

	response.NoContent(w)
}
