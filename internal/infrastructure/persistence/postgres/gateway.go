package postgres

import "github.com/studytrack/study-dashboard/internal/domain/study"

// Gateway bundles the PostgreSQL repositories into a study.Gateway.
type Gateway struct {
	*ProgramRepository
	*ModuleRepository
	*ExamResultRepository
	*EnrollmentRepository
}

var _ study.Gateway = (*Gateway)(nil)

// NewGateway creates a Gateway sharing one connection pool.
func NewGateway(conn *Connection) *Gateway {
	return &Gateway{
		ProgramRepository:    NewProgramRepository(conn),
		ModuleRepository:     NewModuleRepository(conn),
		ExamResultRepository: NewExamResultRepository(conn),
		EnrollmentRepository: NewEnrollmentRepository(conn),
	}
}
