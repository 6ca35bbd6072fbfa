package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/studytrack/study-dashboard/internal/application/command"
	"github.com/studytrack/study-dashboard/internal/domain/study"
	"github.com/studytrack/study-dashboard/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("exam_form", func(fl validator.FieldLevel) bool {
		_, err := study.ParseExamForm(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("enrollment_kind", func(fl validator.FieldLevel) bool {
		_, err := study.ParseEnrollmentKind(fl.Field().String())
		return err == nil
	})

	return v
}

// requestError is a malformed or invalid request body. A zero status means
// 400 Bad Request.
type requestError struct {
	status  int
	code    string
	message string
	details map[string]string
}

func (e *requestError) httpStatus() int {
	if e.status == 0 {
		return http.StatusBadRequest
	}
	return e.status
}

func (e *requestError) Error() string {
	return e.message
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &requestError{code: "invalid_json", message: "Request body is empty"}
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{
				status:  http.StatusRequestEntityTooLarge,
				code:    "payload_too_large",
				message: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit),
			}
		}
		return &requestError{code: "invalid_json", message: fmt.Sprintf("Malformed JSON: %v", err)}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &requestError{code: "validation_failed", message: err.Error()}
		}
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fieldMessage(fe)
		}
		return &requestError{code: "validation_failed", message: "Request validation failed", details: details}
	}

	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "exam_form":
		return "must be one of written-exam, term-paper, portfolio, oral-exam, project"
	case "enrollment_kind":
		return "must be planned or current (alias: passed)"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func invalidParam(entity, field, message string) error {
	return &study.ValidationError{Entity: entity, Field: field, Message: message}
}

// ══════════════════════════════════════════════════════════════════════════════
// OPTIONAL JSON FIELDS
// ══════════════════════════════════════════════════════════════════════════════

// optional distinguishes an absent JSON member from an explicit null.
type optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON is only called when the member is present.
func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// ══════════════════════════════════════════════════════════════════════════════
// MODULE REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

// CreateModuleRequest is the body of POST /api/v1/modules.
type CreateModuleRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Code     string `json:"code" validate:"required,max=50"`
	Credits  int    `json:"credits" validate:"gt=0"`
	ExamForm string `json:"exam_form" validate:"required,exam_form"`
}

func (req CreateModuleRequest) command() (command.CreateModuleCommand, error) {
	form, err := study.ParseExamForm(req.ExamForm)
	if err != nil {
		return command.CreateModuleCommand{}, invalidParam("module", "exam_form", err.Error())
	}
	return command.CreateModuleCommand{
		Name:     req.Name,
		Code:     req.Code,
		Credits:  req.Credits,
		ExamForm: form,
	}, nil
}

// UpdateModuleRequest is the body of PATCH /api/v1/modules/{code}.
type UpdateModuleRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Code     *string `json:"code" validate:"omitempty,max=50"`
	Credits  *int    `json:"credits" validate:"omitempty,gt=0"`
	ExamForm *string `json:"exam_form" validate:"omitempty,exam_form"`
}

func (req UpdateModuleRequest) command(code string) (command.UpdateModuleCommand, error) {
	cmd := command.UpdateModuleCommand{
		Code:    code,
		Name:    req.Name,
		NewCode: req.Code,
		Credits: req.Credits,
	}
	if req.ExamForm != nil {
		form, err := study.ParseExamForm(*req.ExamForm)
		if err != nil {
			return cmd, invalidParam("module", "exam_form", err.Error())
		}
		cmd.ExamForm = &form
	}
	return cmd, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAM RESULT REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

// CreateExamResultRequest is the body of POST /api/v1/modules/{code}/exam-results.
type CreateExamResultRequest struct {
	Description string   `json:"description" validate:"required,max=500"`
	Date        *string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Grade       *float64 `json:"grade" validate:"omitempty,gte=1,lte=5"`
	Attempt     int      `json:"attempt" validate:"gte=0"`
}

func (req CreateExamResultRequest) command(moduleCode string) (command.CreateExamResultCommand, error) {
	cmd := command.CreateExamResultCommand{
		ModuleCode:  moduleCode,
		Description: req.Description,
		Attempt:     req.Attempt,
	}
	if req.Date != nil {
		d, err := dateutil.Parse(*req.Date)
		if err != nil {
			return cmd, invalidParam("exam_result", "date", err.Error())
		}
		cmd.Date = &d
	}
	if req.Grade != nil {
		g := study.Grade(*req.Grade)
		cmd.Grade = &g
	}
	return cmd, nil
}

// UpdateExamResultRequest is the body of PATCH /api/v1/exam-results/{id}.
// An explicit null clears the date or the grade.
type UpdateExamResultRequest struct {
	Description *string           `json:"description" validate:"omitempty,max=500"`
	Date        optional[string]  `json:"date" validate:"-"`
	Grade       optional[float64] `json:"grade" validate:"-"`
	Attempt     *int              `json:"attempt" validate:"omitempty,gt=0"`
}

func (req UpdateExamResultRequest) command(id int64) (command.UpdateExamResultCommand, error) {
	cmd := command.UpdateExamResultCommand{
		ID:          id,
		Description: req.Description,
		Attempt:     req.Attempt,
	}

	switch {
	case req.Date.Null:
		cmd.Date = study.Clear[time.Time]()
	case req.Date.Set:
		d, err := dateutil.Parse(req.Date.Value)
		if err != nil {
			return cmd, invalidParam("exam_result", "date", err.Error())
		}
		cmd.Date = study.SetTo(d)
	}

	switch {
	case req.Grade.Null:
		cmd.Grade = study.Clear[study.Grade]()
	case req.Grade.Set:
		cmd.Grade = study.SetTo(study.Grade(req.Grade.Value))
	}

	return cmd, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT REQUESTS
// ══════════════════════════════════════════════════════════════════════════════

// CreateEnrollmentRequest is the body of POST /api/v1/enrollments.
type CreateEnrollmentRequest struct {
	Semester   int    `json:"semester" validate:"gt=0"`
	ModuleCode string `json:"module_code" validate:"required"`
	Kind       string `json:"kind" validate:"required,enrollment_kind"`
	Comment    string `json:"comment" validate:"max=1000"`
}

func (req CreateEnrollmentRequest) command() (command.CreateEnrollmentCommand, error) {
	kind, err := study.ParseEnrollmentKind(req.Kind)
	if err != nil {
		return command.CreateEnrollmentCommand{}, invalidParam("enrollment", "kind", err.Error())
	}
	return command.CreateEnrollmentCommand{
		SemesterNumber: req.Semester,
		ModuleCode:     req.ModuleCode,
		Kind:           kind,
		Comment:        req.Comment,
	}, nil
}

// UpdateEnrollmentRequest is the body of PATCH /api/v1/enrollments/{semester}/{code}/{kind}.
type UpdateEnrollmentRequest struct {
	Kind    *string `json:"kind" validate:"omitempty,enrollment_kind"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

func (req UpdateEnrollmentRequest) command(key study.EnrollmentKey) (command.UpdateEnrollmentCommand, error) {
	cmd := command.UpdateEnrollmentCommand{Key: key, Comment: req.Comment}
	if req.Kind != nil {
		kind, err := study.ParseEnrollmentKind(*req.Kind)
		if err != nil {
			return cmd, invalidParam("enrollment", "kind", err.Error())
		}
		cmd.Kind = &kind
	}
	return cmd, nil
}

// EnrollmentKeyResponse identifies a created enrollment.
type EnrollmentKeyResponse struct {
	Semester   int    `json:"semester"`
	ModuleCode string `json:"module_code"`
	Kind       string `json:"kind"`
}

// ══════════════════════════════════════════════════════════════════════════════
// PATH & QUERY PARAMETERS
// ══════════════════════════════════════════════════════════════════════════════

func examResultIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidParam("exam_result", "id", "must be a positive integer")
	}
	return id, nil
}

func enrollmentKeyParam(r *http.Request) (study.EnrollmentKey, error) {
	n, err := strconv.Atoi(r.PathValue("semester"))
	if err != nil || n <= 0 {
		return study.EnrollmentKey{}, invalidParam("enrollment", "semester", "must be a positive integer")
	}
	kind, err := study.ParseEnrollmentKind(r.PathValue("kind"))
	if err != nil {
		return study.EnrollmentKey{}, invalidParam("enrollment", "kind", err.Error())
	}
	return study.EnrollmentKey{
		SemesterNumber: n,
		ModuleCode:     r.PathValue("code"),
		Kind:           kind,
	}, nil
}

func enrollmentFilterParam(r *http.Request) (study.EnrollmentFilter, error) {
	filter := study.EnrollmentFilter{
		ModuleCode: strings.TrimSpace(r.URL.Query().Get("module")),
	}
	if v := strings.TrimSpace(r.URL.Query().Get("semester")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return filter, invalidParam("enrollment", "semester", "must be a positive integer")
		}
		filter.SemesterNumber = n
	}
	return filter, nil
}
