package dto

type CreateBetRequest struct {
	UserID   string  `json:"userId"`
	Amount   float64 `json:"amount"` // stake em reais; convertida para centavos na borda
	OddValue float64 `json:"odd_value"`
}

type UpdateBetRequest struct {
	Amount   float64 `json:"amount"`
	OddValue float64 `json:"odd_value"`
}

type SettleBetRequest struct {
	NewStatus string `json:"new_status"` // "won" | "lost" | "cancelled"
}

type SetBankRequest struct {
	UserID   string  `json:"userId"`
	Cash     float64 `json:"cash"`
	Currency string  `json:"currency,omitempty"`
}

type LeveragePlanRequest struct {
	UserID            string    `json:"userId"`
	Days              int       `json:"days"`
	InitialInvestment float64   `json:"initial_investment"`
	DefaultOdds       float64   `json:"default_odds"`
	OddsByDay         []float64 `json:"odds_by_day,omitempty"`
}

type AnalysisRequest struct {
	ProbabilityPct  float64  `json:"probability_pct"`
	OddValue        float64  `json:"odd_value"`
	MarginPct       float64  `json:"margin_pct"`
	Probability2Pct *float64 `json:"probability2_pct,omitempty"` // segunda perna, quando combinada
}
