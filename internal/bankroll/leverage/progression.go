package leverage

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Limites de validação do plano de alavancagem.
const (
	MinOdd        = 1.01
	MaxOdd        = 50
	MinDays       = 1
	MaxDays       = 30
	MaxInvestment = 1_000_000
)

// degenerateOdd substitui uma odd fora da faixa no dia em que ela aparece:
// a linha fica visivelmente flat em vez de abortar a projeção inteira.
const degenerateOdd = 1.0

// Row é um dia da projeção. O investimento do dia n+1 é exatamente o retorno
// do dia n (reinvestimento integral, sem retirada).
type Row struct {
	Day        int             `json:"day"`
	Investment decimal.Decimal `json:"investment"`
	Return     decimal.Decimal `json:"return"`
	Odd        float64         `json:"odd"`
}

// ValidationResult é o retorno estruturado da validação: nunca um erro Go,
// para a borda renderizar feedback inline.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateParams checa os parâmetros do plano antes de projetar.
func ValidateParams(initialInvestment float64, odd float64, days int) ValidationResult {
	if math.IsNaN(initialInvestment) || math.IsInf(initialInvestment, 0) || initialInvestment <= 0 || initialInvestment > MaxInvestment {
		return ValidationResult{Error: fmt.Sprintf("initial investment must be in (0, %d]", MaxInvestment)}
	}
	if math.IsNaN(odd) || odd < MinOdd || odd > MaxOdd {
		return ValidationResult{Error: fmt.Sprintf("odd must be in [%.2f, %.0f]", MinOdd, float64(MaxOdd))}
	}
	if days < MinDays || days > MaxDays {
		return ValidationResult{Error: fmt.Sprintf("days must be in [%d, %d]", MinDays, MaxDays)}
	}
	return ValidationResult{Valid: true}
}

// Progression projeta a cadeia composta dia a dia. A aritmética usa decimal
// com arredondamento a centavo por dia, para não acumular drift de float em
// cadeias longas. Odds fora de [MinOdd, MaxOdd] degradam para 1.0 só naquele
// dia (política explícita, não skip silencioso).
func Progression(initialInvestment float64, oddsPerDay []float64, days int) []Row {
	if days < MinDays {
		return nil
	}
	if days > MaxDays {
		days = MaxDays
	}

	rows := make([]Row, 0, days)
	investment := decimal.NewFromFloat(initialInvestment).Round(2)

	for day := 1; day <= days; day++ {
		odd := degenerateOdd
		if day-1 < len(oddsPerDay) {
			if v := oddsPerDay[day-1]; !math.IsNaN(v) && v >= MinOdd && v <= MaxOdd {
				odd = v
			}
		}

		ret := investment.Mul(decimal.NewFromFloat(odd)).Round(2)
		rows = append(rows, Row{Day: day, Investment: investment, Return: ret, Odd: odd})
		investment = ret
	}
	return rows
}

// FixedProgression é a variante de odd fixa: broadcast de uma única odd para
// todos os dias. Equivale a Progression com o slice repetido.
func FixedProgression(initialInvestment float64, odd float64, days int) []Row {
	odds := make([]float64, 0, days)
	for i := 0; i < days; i++ {
		odds = append(odds, odd)
	}
	return Progression(initialInvestment, odds, days)
}
