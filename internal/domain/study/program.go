package study

// Program - учебная программа (например, бакалавриат).
// Единственный корень графа: владеет семестрами и модулями.
type Program struct {
	name            string
	totalCredits    int
	nominalDuration int
	semesters       []*Semester
	modules         []*Module
}

// Name возвращает название программы.
func (p *Program) Name() string {
	return p.name
}

// TotalCredits возвращает целевое количество кредитов.
func (p *Program) TotalCredits() int {
	return p.totalCredits
}

// NominalDuration возвращает номинальную длительность в семестрах.
func (p *Program) NominalDuration() int {
	return p.nominalDuration
}

// Semesters возвращает копию списка семестров, упорядоченных по номеру.
func (p *Program) Semesters() []*Semester {
	out := make([]*Semester, len(p.semesters))
	copy(out, p.semesters)
	return out
}

// Modules возвращает копию списка модулей, упорядоченных по названию.
func (p *Program) Modules() []*Module {
	return copyModules(p.modules)
}

// Module ищет модуль по коду.
func (p *Program) Module(code string) (*Module, bool) {
	for _, m := range p.modules {
		if m.code == code {
			return m, true
		}
	}
	return nil, false
}

// Semester ищет семестр по номеру.
func (p *Program) Semester(number int) (*Semester, bool) {
	for _, s := range p.semesters {
		if s.number == number {
			return s, true
		}
	}
	return nil, false
}

// EarnedCredits - сумма кредитов сданных модулей. Каждый модуль
// учитывается один раз, независимо от числа семестров, где он записан.
func (p *Program) EarnedCredits() int {
	total := 0
	for _, m := range p.modules {
		if m.IsPassed() {
			total += m.Credits()
		}
	}
	return total
}

// Progress - доля заработанных кредитов от целевых, 0 если цель не задана.
func (p *Program) Progress() float64 {
	if p.totalCredits <= 0 {
		return 0
	}
	return float64(p.EarnedCredits()) / float64(p.totalCredits)
}

// WeightedAverage вычисляет среднюю оценку, взвешенную по кредитам.
// Учитываются только модули со средней оценкой.
func (p *Program) WeightedAverage() (Grade, bool) {
	var weighted float64
	weights := 0
	for _, m := range p.modules {
		avg, ok := m.Average()
		if !ok {
			continue
		}
		weighted += avg.Float64() * float64(m.Credits())
		weights += m.Credits()
	}
	if weights == 0 {
		return 0, false
	}
	return Grade(round2(weighted / float64(weights))), true
}
