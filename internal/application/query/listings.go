package query

import (
	"context"
	"fmt"

	"github.com/studytrack/study-dashboard/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// LISTING QUERIES
// Списки для форм: модули, результаты экзаменов, записи в семестры и номера
// семестров. Эти запросы читают записи шлюза напрямую, без построения графа.
// ══════════════════════════════════════════════════════════════════════════════

// ListingHandler обслуживает все запросы списков.
type ListingHandler struct {
	gateway study.Gateway
}

// NewListingHandler создаёт новый обработчик списков.
func NewListingHandler(gateway study.Gateway) *ListingHandler {
	return &ListingHandler{gateway: gateway}
}

// ListModules возвращает модули, упорядоченные по названию.
func (h *ListingHandler) ListModules(ctx context.Context) ([]ModuleDTO, error) {
	records, err := h.gateway.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_modules: %w", err)
	}

	out := make([]ModuleDTO, 0, len(records))
	for _, r := range records {
		out = append(out, ModuleFromRecord(r))
	}
	return out, nil
}

// GetModule возвращает модуль по коду.
func (h *ListingHandler) GetModule(ctx context.Context, code string) (*ModuleDTO, error) {
	r, err := h.gateway.GetModule(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get_module: %w", err)
	}

	dto := ModuleFromRecord(*r)
	return &dto, nil
}

// ListExamResults возвращает результаты модуля по номеру попытки.
func (h *ListingHandler) ListExamResults(ctx context.Context, moduleCode string) ([]ExamResultDTO, error) {
	records, err := h.gateway.ListExamResults(ctx, moduleCode)
	if err != nil {
		return nil, fmt.Errorf("list_exam_results: %w", err)
	}

	out := make([]ExamResultDTO, 0, len(records))
	for _, r := range records {
		out = append(out, ExamResultFromRecord(r))
	}
	return out, nil
}

// ListEnrollments возвращает записи с необязательными фильтрами.
func (h *ListingHandler) ListEnrollments(ctx context.Context, filter study.EnrollmentFilter) ([]EnrollmentDTO, error) {
	views, err := h.gateway.ListEnrollments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list_enrollments: %w", err)
	}

	out := make([]EnrollmentDTO, 0, len(views))
	for _, v := range views {
		out = append(out, EnrollmentFromView(v))
	}
	return out, nil
}

// ListSemesters возвращает номера семестров по возрастанию.
func (h *ListingHandler) ListSemesters(ctx context.Context) ([]int, error) {
	numbers, err := h.gateway.ListSemesterNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_semesters: %w", err)
	}
	return numbers, nil
}
