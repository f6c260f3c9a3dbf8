package dto

import (
	"time"

	"github.com/radieske/bankroll-tracker/internal/bankroll/ledger"
	"github.com/radieske/bankroll-tracker/internal/bankroll/leverage"
)

type BetResponse struct {
	BetID           string     `json:"betId"`
	UserID          string     `json:"userId"`
	Amount          float64    `json:"amount"`
	OddValue        float64    `json:"odd_value"`
	PotentialReturn float64    `json:"potential_return"`
	PotentialProfit float64    `json:"potential_profit"`
	Status          string     `json:"status"`
	PlacedAt        time.Time  `json:"placed_at"`
	ResultAt        *time.Time `json:"result_at,omitempty"`
}

type SettleAcceptedResponse struct {
	BetID  string `json:"betId"`
	Status string `json:"status"` // "settle_requested"
}

type BankResponse struct {
	UserID    string    `json:"userId"`
	Cash      float64   `json:"cash"`
	Currency  string    `json:"currency"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LedgerResponse struct {
	Series      []ledger.CurvePoint `json:"series"`
	Summary     ledger.Summary      `json:"summary"`
	FinalCash   float64             `json:"final_cash"`
	FinalEquity float64             `json:"final_equity"`
	NetDelta    float64             `json:"net_delta"`
	FromCache   bool                `json:"from_cache,omitempty"`
}

type ProjectionResponse struct {
	Valid bool           `json:"valid"`
	Error string         `json:"error,omitempty"`
	Rows  []leverage.Row `json:"rows,omitempty"`
}

type AnalysisResponse struct {
	ExpectedValuePct       float64  `json:"expected_value_pct"`
	EdgePP                 float64  `json:"edge_pp"`
	ImpliedProbabilityPct  float64  `json:"implied_probability_pct"`
	CombinedProbabilityPct *float64 `json:"combined_probability_pct,omitempty"`
}
