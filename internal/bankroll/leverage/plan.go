package leverage

// Plan é o plano de alavancagem editável pelo usuário. Invariante:
// len(OddsByDay) == Days a todo momento; Resize é o único jeito de mudar Days.
type Plan struct {
	Days              int       `json:"days"`
	InitialInvestment float64   `json:"initial_investment"`
	DefaultOdds       float64   `json:"default_odds"`
	OddsByDay         []float64 `json:"odds_by_day"`
}

// NewPlan monta um plano com a odd default replicada em todos os dias.
func NewPlan(days int, initialInvestment, defaultOdds float64) Plan {
	p := Plan{Days: 0, InitialInvestment: initialInvestment, DefaultOdds: defaultOdds}
	p.Resize(days)
	return p
}

// Resize ajusta o horizonte do plano preservando as odds já digitadas nos dias
// que continuam existindo. Crescimento preenche com DefaultOdds; encolhimento
// trunca. Nunca duplica nem descarta linhas silenciosamente.
func (p *Plan) Resize(days int) {
	if days < MinDays {
		days = MinDays
	}
	if days > MaxDays {
		days = MaxDays
	}

	switch {
	case days < len(p.OddsByDay):
		p.OddsByDay = p.OddsByDay[:days]
	case days > len(p.OddsByDay):
		for len(p.OddsByDay) < days {
			p.OddsByDay = append(p.OddsByDay, p.DefaultOdds)
		}
	}
	p.Days = days
}

// SetDayOdd sobrescreve a odd de um dia específico (1-based). Índice fora do
// horizonte é ignorado.
func (p *Plan) SetDayOdd(day int, odd float64) {
	if day < 1 || day > len(p.OddsByDay) {
		return
	}
	p.OddsByDay[day-1] = odd
}

// SetDefaultOdds troca a odd default sem mexer nos overrides por dia.
func (p *Plan) SetDefaultOdds(odd float64) {
	p.DefaultOdds = odd
}

// Normalize garante o invariante do plano depois de um load externo
// (persistência pode devolver um array de tamanho errado).
func (p *Plan) Normalize() {
	days := p.Days
	if days == 0 && len(p.OddsByDay) > 0 {
		days = len(p.OddsByDay)
	}
	p.Resize(days)
}

// Project roda a progressão sobre o estado atual do plano.
func (p Plan) Project() []Row {
	return Progression(p.InitialInvestment, p.OddsByDay, p.Days)
}
