package study

// Semester - семестр программы с двумя независимыми списками модулей.
type Semester struct {
	number  int
	label   string
	planned []*Module
	current []*Module
}

func newSemester(r SemesterRecord) *Semester {
	return &Semester{
		number: r.Number,
		label:  r.Label,
	}
}

// Number возвращает порядковый номер семестра.
func (s *Semester) Number() int {
	return s.number
}

// Label возвращает подпись семестра.
func (s *Semester) Label() string {
	return s.label
}

// PlannedModules возвращает копию списка запланированных модулей.
func (s *Semester) PlannedModules() []*Module {
	return copyModules(s.planned)
}

// CurrentModules возвращает копию списка текущих (сданных) модулей.
func (s *Semester) CurrentModules() []*Module {
	return copyModules(s.current)
}

// Modules возвращает модули указанного вида.
func (s *Semester) Modules(kind EnrollmentKind) []*Module {
	if kind == KindCurrent {
		return s.CurrentModules()
	}
	return s.PlannedModules()
}

// PlannedCredits - сумма кредитов запланированных модулей.
func (s *Semester) PlannedCredits() int {
	total := 0
	for _, m := range s.planned {
		total += m.Credits()
	}
	return total
}

// EarnedCredits - сумма кредитов сданных модулей из списка current.
func (s *Semester) EarnedCredits() int {
	total := 0
	for _, m := range s.current {
		if m.IsPassed() {
			total += m.Credits()
		}
	}
	return total
}

// Progress - доля заработанных кредитов от запланированных, 0 если план пуст.
func (s *Semester) Progress() float64 {
	planned := s.PlannedCredits()
	if planned == 0 {
		return 0
	}
	return float64(s.EarnedCredits()) / float64(planned)
}

func (s *Semester) enroll(m *Module, kind EnrollmentKind) {
	if kind == KindCurrent {
		s.current = append(s.current, m)
		return
	}
	s.planned = append(s.planned, m)
}

func copyModules(in []*Module) []*Module {
	out := make([]*Module, len(in))
	copy(out, in)
	return out
}
