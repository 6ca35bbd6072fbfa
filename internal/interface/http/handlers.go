package http

import (
	"errors"
	"net/http"

	"github.com/studytrack/study-dashboard/internal/application/command"
	"github.com/studytrack/study-dashboard/internal/application/query"
	"github.com/studytrack/study-dashboard/internal/domain/study"
	"github.com/studytrack/study-dashboard/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"name":    "Study Dashboard API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":      "/health",
			"dashboard":   "/api/v1/dashboard",
			"program":     "/api/v1/program",
			"modules":     "/api/v1/modules",
			"enrollments": "/api/v1/enrollments",
		},
	}

	writeJSON(w, r, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Healthy {
		writeJSON(w, r, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": status.Message,
		})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// READ MODEL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetDashboard handles GET /api/v1/dashboard
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Dashboard.Handle(r.Context(), query.GetDashboardQuery{})
	if err != nil {
		s.writeError(w, r, "get_dashboard", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleGetProgram handles GET /api/v1/program
func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Program.Handle(r.Context(), query.GetProgramQuery{})
	if err != nil {
		s.writeError(w, r, "get_program", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleListSemesters handles GET /api/v1/semesters
func (s *Server) handleListSemesters(w http.ResponseWriter, r *http.Request) {
	numbers, err := s.deps.Listings.ListSemesters(r.Context())
	if err != nil {
		s.writeError(w, r, "list_semesters", err)
		return
	}
	writeList(w, r, numbers)
}

// ══════════════════════════════════════════════════════════════════════════════
// MODULE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListModules handles GET /api/v1/modules
func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := s.deps.Listings.ListModules(r.Context())
	if err != nil {
		s.writeError(w, r, "list_modules", err)
		return
	}
	writeList(w, r, modules)
}

// handleGetModule handles GET /api/v1/modules/{code}
func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	module, err := s.deps.Listings.GetModule(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeError(w, r, "get_module", err)
		return
	}
	writeJSON(w, r, http.StatusOK, module)
}

// handleCreateModule handles POST /api/v1/modules
func (s *Server) handleCreateModule(w http.ResponseWriter, r *http.Request) {
	var req CreateModuleRequest
	if !s.bind(w, r, &req) {
		return
	}

	cmd, err := req.command()
	if err != nil {
		s.writeError(w, r, "create_module", err)
		return
	}

	result, err := s.deps.CreateModule.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, "create_module", err)
		return
	}

	s.logger.Info("module created", logger.ModuleCode(result.Code))
	writeJSON(w, r, http.StatusCreated, moduleResponse(result))
}

// handleUpdateModule handles PATCH /api/v1/modules/{code}
func (s *Server) handleUpdateModule(w http.ResponseWriter, r *http.Request) {
	var req UpdateModuleRequest
	if !s.bind(w, r, &req) {
		return
	}

	cmd, err := req.command(r.PathValue("code"))
	if err != nil {
		s.writeError(w, r, "update_module", err)
		return
	}

	result, err := s.deps.UpdateModule.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, "update_module", err)
		return
	}
	writeJSON(w, r, http.StatusOK, moduleResponse(result))
}

// handleDeleteModule handles DELETE /api/v1/modules/{code}
func (s *Server) handleDeleteModule(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if err := s.deps.DeleteModule.Handle(r.Context(), command.DeleteModuleCommand{Code: code}); err != nil {
		s.writeError(w, r, "delete_module", err)
		return
	}

	s.logger.Info("module deleted", logger.ModuleCode(code))
	w.WriteHeader(http.StatusNoContent)
}

func moduleResponse(m *command.ModuleResult) query.ModuleDTO {
	return query.ModuleFromRecord(study.ModuleRecord{
		Name:     m.Name,
		Code:     m.Code,
		Credits:  m.Credits,
		ExamForm: m.ExamForm,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAM RESULT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListExamResults handles GET /api/v1/modules/{code}/exam-results
func (s *Server) handleListExamResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.Listings.ListExamResults(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeError(w, r, "list_exam_results", err)
		return
	}
	writeList(w, r, results)
}

// handleCreateExamResult handles POST /api/v1/modules/{code}/exam-results
func (s *Server) handleCreateExamResult(w http.ResponseWriter, r *http.Request) {
	var req CreateExamResultRequest
	if !s.bind(w, r, &req) {
		return
	}

	cmd, err := req.command(r.PathValue("code"))
	if err != nil {
		s.writeError(w, r, "create_exam_result", err)
		return
	}

	result, err := s.deps.CreateExamResult.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, "create_exam_result", err)
		return
	}

	s.logger.Info("exam result recorded",
		logger.ModuleCode(result.ModuleCode),
		logger.ExamResultID(result.ID),
	)
	writeJSON(w, r, http.StatusCreated, map[string]any{
		"id":          result.ID,
		"module_code": result.ModuleCode,
	})
}

// handleUpdateExamResult handles PATCH /api/v1/exam-results/{id}
func (s *Server) handleUpdateExamResult(w http.ResponseWriter, r *http.Request) {
	id, err := examResultIDParam(r)
	if err != nil {
		s.writeError(w, r, "update_exam_result", err)
		return
	}

	var req UpdateExamResultRequest
	if !s.bind(w, r, &req) {
		return
	}

	cmd, err := req.command(id)
	if err != nil {
		s.writeError(w, r, "update_exam_result", err)
		return
	}

	record, err := s.deps.UpdateExamResult.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, "update_exam_result", err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.ExamResultFromRecord(*record))
}

// handleDeleteExamResult handles DELETE /api/v1/exam-results/{id}
func (s *Server) handleDeleteExamResult(w http.ResponseWriter, r *http.Request) {
	id, err := examResultIDParam(r)
	if err != nil {
		s.writeError(w, r, "delete_exam_result", err)
		return
	}

	if err := s.deps.DeleteExamResult.Handle(r.Context(), command.DeleteExamResultCommand{ID: id}); err != nil {
		s.writeError(w, r, "delete_exam_result", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListEnrollments handles GET /api/v1/enrollments?module=&semester=
func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	filter, err := enrollmentFilterParam(r)
	if err != nil {
		s.writeError(w, r, "list_enrollments", err)
		return
	}

	enrollments, err := s.deps.Listings.ListEnrollments(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, "list_enrollments", err)
		return
	}
	writeList(w, r, enrollments)
}

// handleCreateEnrollment handles POST /api/v1/enrollments
func (s *Server) handleCreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req CreateEnrollmentRequest
	if !s.bind(w, r, &req) {
		return
	}

	cmd, err := req.command()
	if err != nil {
		s.writeError(w, r, "create_enrollment", err)
		return
	}

	key, err := s.deps.CreateEnrollment.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, "create_enrollment", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, EnrollmentKeyResponse{
		Semester:   key.SemesterNumber,
		ModuleCode: key.ModuleCode,
		Kind:       key.Kind.String(),
	})
}

// handleUpdateEnrollment handles PATCH /api/v1/enrollments/{semester}/{code}/{kind}
func (s *Server) handleUpdateEnrollment(w http.ResponseWriter, r *http.Request) {
	key, err := enrollmentKeyParam(r)
	if err != nil {
		s.writeError(w, r, "update_enrollment", err)
		return
	}

	var req UpdateEnrollmentRequest
	if !s.bind(w, r, &req) {
		return
	}

	cmd, err := req.command(key)
	if err != nil {
		s.writeError(w, r, "update_enrollment", err)
		return
	}

	view, err := s.deps.UpdateEnrollment.Handle(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, "update_enrollment", err)
		return
	}
	writeJSON(w, r, http.StatusOK, query.EnrollmentFromView(*view))
}

// handleDeleteEnrollment handles DELETE /api/v1/enrollments/{semester}/{code}/{kind}
func (s *Server) handleDeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	key, err := enrollmentKeyParam(r)
	if err != nil {
		s.writeError(w, r, "delete_enrollment", err)
		return
	}

	if err := s.deps.DeleteEnrollment.Handle(r.Context(), command.DeleteEnrollmentCommand{Key: key}); err != nil {
		s.writeError(w, r, "delete_enrollment", err)
		return
	}

	s.logger.Info("enrollment deleted",
		logger.SemesterNumber(key.SemesterNumber),
		logger.ModuleCode(key.ModuleCode),
	)
	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST BINDING
// ══════════════════════════════════════════════════════════════════════════════

// bind decodes and validates the body, writing a 400 response on failure.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeAndValidate(r, dst)
	if err == nil {
		return true
	}

	var rerr *requestError
	if errors.As(err, &rerr) {
		writeJSONError(w, r, rerr.httpStatus(), rerr.code, rerr.message, rerr.details)
		return false
	}

	s.writeError(w, r, "bind", err)
	return false
}
