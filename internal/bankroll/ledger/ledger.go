package ledger

import (
	"sort"
	"time"

	"github.com/radieske/bankroll-tracker/internal/bankroll/lifecycle"
	"github.com/radieske/bankroll-tracker/internal/bankroll/money"
)

// Bet é a visão que o ledger tem de uma aposta. O core só lê: criação e edição
// são responsabilidade da aplicação em volta.
type Bet struct {
	ID                   string
	AmountCents          int64
	Odd                  float64
	PotentialReturnCents int64
	Status               lifecycle.Status
	PlacedAt             time.Time
	ResultAt             *time.Time
	CreatedAt            time.Time
}

// eventKind ordena place antes de settle em empate de timestamp.
type eventKind int

const (
	kindPlace eventKind = iota
	kindSettle
)

// event é derivado, nunca persistido: duas entradas por aposta liquidada,
// uma por aposta ainda pendente.
type event struct {
	ts     time.Time
	kind   eventKind
	betID  string
	amount int64
	ret    int64
	status lifecycle.Status
}

// CurvePoint é um ponto da curva caixa/patrimônio, um por dia com movimento.
// Equity = caixa + soma das stakes pendentes naquele instante.
type CurvePoint struct {
	Label       string    `json:"label"`
	Timestamp   time.Time `json:"timestamp"`
	CashCents   int64     `json:"cash_cents"`
	EquityCents int64     `json:"equity_cents"`
}

// Summary agrega o resultado realizado da banca.
type Summary struct {
	RealizedProfitCents  int64   `json:"realized_profit_cents"`
	InvestedSettledCents int64   `json:"invested_settled_cents"`
	ROISettledPct        float64 `json:"roi_settled_pct"`
	PendingBets          int     `json:"pending_bets"`
	WonBets              int     `json:"won_bets"`
	LostBets             int     `json:"lost_bets"`
	CancelledBets        int     `json:"cancelled_bets"`
	ExposureCents        int64   `json:"exposure_cents"`
}

// Result é a saída completa de uma reconstrução do ledger.
type Result struct {
	Series           []CurvePoint `json:"series"`
	Summary          Summary      `json:"summary"`
	FinalCashCents   int64        `json:"final_cash_cents"`
	FinalEquityCents int64        `json:"final_equity_cents"`
}

// LabelFunc formata o rótulo de dia de um ponto da curva. Injetada pela borda
// para respeitar o locale do usuário.
type LabelFunc func(time.Time) string

// DefaultLabel é o formato dia/mês usado quando a borda não injeta nada.
func DefaultLabel(t time.Time) string { return t.Format("02/01") }

// Builder reconstrói a curva da banca a partir de um conjunto de apostas.
// É uma função pura re-executável: mesmo input, mesmo output, sem estado oculto.
// Loc define o fuso do agrupamento por dia-calendário (nil = fuso local).
type Builder struct {
	Label LabelFunc
	Loc   *time.Location
}

// Build deriva os eventos de place/settle das apostas, ordena cronologicamente
// e faz o replay contra caixa e exposição correntes, emitindo um ponto por dia.
//
// Regras de saneamento: aposta com stake não positiva é ignorada; placed_at
// ausente cai no created_at; settle nunca precede o place (max com placed_at).
func (b Builder) Build(bets []Bet, startingCashCents int64) Result {
	label := b.Label
	if label == nil {
		label = DefaultLabel
	}
	loc := b.Loc
	if loc == nil {
		loc = time.Local
	}

	events := deriveEvents(bets)

	// Ponto inicial sintético com o caixa de partida.
	start := CurvePoint{
		Label:       "start",
		CashCents:   money.ClampNonNegative(startingCashCents),
		EquityCents: money.ClampNonNegative(startingCashCents),
	}
	if len(events) > 0 {
		start.Timestamp = events[0].ts
	}

	res := Result{Series: []CurvePoint{start}}

	// Replay sequencial. O caixa corre sem piso internamente para que o valor
	// final feche com startingCash + netCashDelta; o piso em zero é aplicado
	// em cada ponto emitido.
	cash := startingCashCents
	var exposure int64

	var dayKey string
	for _, ev := range events {
		switch ev.kind {
		case kindPlace:
			cash -= ev.amount
			exposure += ev.amount
		case kindSettle:
			exposure -= ev.amount
			switch ev.status {
			case lifecycle.StatusWon:
				cash += ev.ret
			case lifecycle.StatusCancelled:
				cash += ev.amount
			}
			// lost: a stake já saiu no place, nada mais a movimentar
		}

		point := CurvePoint{
			Label:       label(ev.ts),
			Timestamp:   ev.ts,
			CashCents:   money.ClampNonNegative(cash),
			EquityCents: money.ClampNonNegative(cash) + exposure,
		}

		// Um ponto por dia-calendário: o último evento do dia sobrescreve o anterior.
		key := ev.ts.In(loc).Format("2006-01-02")
		if key == dayKey {
			res.Series[len(res.Series)-1] = point
		} else {
			res.Series = append(res.Series, point)
			dayKey = key
		}
	}

	res.Summary = summarize(bets)
	res.FinalCashCents = money.ClampNonNegative(cash)
	res.FinalEquityCents = res.FinalCashCents + exposure
	return res
}

// deriveEvents sintetiza e ordena o stream de eventos de um conjunto de apostas.
func deriveEvents(bets []Bet) []event {
	events := make([]event, 0, 2*len(bets))
	for _, bet := range bets {
		if bet.AmountCents <= 0 {
			continue // registro corrompido, não fatal
		}
		placedAt := money.SafeTime(bet.PlacedAt, bet.CreatedAt)
		events = append(events, event{
			ts:     placedAt,
			kind:   kindPlace,
			betID:  bet.ID,
			amount: bet.AmountCents,
			ret:    bet.PotentialReturnCents,
			status: bet.Status,
		})

		if bet.Status.Settled() {
			settledAt := placedAt
			if bet.ResultAt != nil && bet.ResultAt.After(placedAt) {
				settledAt = *bet.ResultAt
			}
			events = append(events, event{
				ts:     settledAt,
				kind:   kindSettle,
				betID:  bet.ID,
				amount: bet.AmountCents,
				ret:    bet.PotentialReturnCents,
				status: bet.Status,
			})
		}
	}

	// Ordenação determinística: timestamp, place antes de settle, betID.
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].ts.Equal(events[j].ts) {
			return events[i].ts.Before(events[j].ts)
		}
		if events[i].kind != events[j].kind {
			return events[i].kind < events[j].kind
		}
		return events[i].betID < events[j].betID
	})
	return events
}

// summarize agrega contadores e resultado realizado sobre o estado atual das apostas.
func summarize(bets []Bet) Summary {
	var s Summary
	for _, bet := range bets {
		if bet.AmountCents <= 0 {
			continue
		}
		switch bet.Status {
		case lifecycle.StatusPending:
			s.PendingBets++
			s.ExposureCents += bet.AmountCents
		case lifecycle.StatusWon:
			s.WonBets++
			s.RealizedProfitCents += bet.PotentialReturnCents - bet.AmountCents
			s.InvestedSettledCents += bet.AmountCents
		case lifecycle.StatusLost:
			s.LostBets++
			s.RealizedProfitCents -= bet.AmountCents
			s.InvestedSettledCents += bet.AmountCents
		case lifecycle.StatusCancelled:
			s.CancelledBets++
		}
	}
	if s.InvestedSettledCents > 0 {
		s.ROISettledPct = float64(s.RealizedProfitCents) / float64(s.InvestedSettledCents) * 100
	}
	return s
}
