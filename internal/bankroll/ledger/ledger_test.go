package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/bankroll-tracker/internal/bankroll/lifecycle"
	"github.com/radieske/bankroll-tracker/internal/bankroll/money"
)

var baseTime = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func pendingBet(id string, stakeCents int64, odd float64, placedAt time.Time) Bet {
	return Bet{
		ID:                   id,
		AmountCents:          stakeCents,
		Odd:                  odd,
		PotentialReturnCents: money.MulOdd(stakeCents, odd),
		Status:               lifecycle.StatusPending,
		PlacedAt:             placedAt,
		CreatedAt:            placedAt,
	}
}

func settledBet(id string, stakeCents int64, odd float64, status lifecycle.Status, placedAt, resultAt time.Time) Bet {
	b := pendingBet(id, stakeCents, odd, placedAt)
	b.Status = status
	b.ResultAt = &resultAt
	return b
}

func TestBuildPendingBet(t *testing.T) {
	t.Parallel()

	res := Builder{}.Build([]Bet{pendingBet("b1", 1000, 2, baseTime)}, 10000)

	assert.Equal(t, int64(9000), res.FinalCashCents)
	assert.Equal(t, int64(10000), res.FinalEquityCents)
	assert.Equal(t, 1, res.Summary.PendingBets)
	assert.Equal(t, int64(1000), res.Summary.ExposureCents)
	require.Len(t, res.Series, 2) // start + dia do place
	assert.Equal(t, "start", res.Series[0].Label)
}

func TestBuildWonBet(t *testing.T) {
	t.Parallel()

	bet := settledBet("b1", 1000, 2, lifecycle.StatusWon, baseTime, baseTime.Add(time.Hour))
	res := Builder{}.Build([]Bet{bet}, 10000)

	assert.Equal(t, int64(11000), res.FinalCashCents)
	assert.Equal(t, int64(11000), res.FinalEquityCents)
	assert.Equal(t, int64(1000), res.Summary.RealizedProfitCents)
	assert.Equal(t, float64(100), res.Summary.ROISettledPct)
	assert.Equal(t, 1, res.Summary.WonBets)
	assert.Zero(t, res.Summary.ExposureCents)
}

func TestBuildLostBet(t *testing.T) {
	t.Parallel()

	bet := settledBet("b1", 1000, 2, lifecycle.StatusLost, baseTime, baseTime.Add(time.Hour))
	res := Builder{}.Build([]Bet{bet}, 10000)

	assert.Equal(t, int64(9000), res.FinalCashCents)
	assert.Equal(t, int64(9000), res.FinalEquityCents)
	assert.Equal(t, int64(-1000), res.Summary.RealizedProfitCents)
	assert.Equal(t, 1, res.Summary.LostBets)
}

func TestBuildCancelledBet(t *testing.T) {
	t.Parallel()

	bet := settledBet("b1", 1000, 2, lifecycle.StatusCancelled, baseTime, baseTime.Add(time.Hour))
	res := Builder{}.Build([]Bet{bet}, 10000)

	assert.Equal(t, int64(10000), res.FinalCashCents)
	assert.Equal(t, int64(10000), res.FinalEquityCents)
	assert.Equal(t, 1, res.Summary.CancelledBets)
	assert.Zero(t, res.Summary.RealizedProfitCents)
}

func TestNetCashDeltaMixedList(t *testing.T) {
	t.Parallel()

	bets := []Bet{
		settledBet("b1", 1000, 2, lifecycle.StatusWon, baseTime, baseTime.Add(time.Hour)),
		settledBet("b2", 500, 2, lifecycle.StatusLost, baseTime.Add(time.Minute), baseTime.Add(2*time.Hour)),
		pendingBet("b3", 700, 1.8, baseTime.Add(2*time.Minute)),
		settledBet("b4", 300, 3, lifecycle.StatusCancelled, baseTime.Add(3*time.Minute), baseTime.Add(3*time.Hour)),
	}

	// +10 - 5 - 7 + 0 = -2
	assert.Equal(t, int64(-200), NetCashDelta(bets))
}

func TestBuildEmptyList(t *testing.T) {
	t.Parallel()

	res := Builder{}.Build(nil, 5000)

	require.Len(t, res.Series, 1)
	assert.Equal(t, int64(5000), res.FinalCashCents)
	assert.Equal(t, int64(5000), res.FinalEquityCents)
	assert.Equal(t, Summary{}, res.Summary)
}

func TestBuildSkipsCorruptedAmounts(t *testing.T) {
	t.Parallel()

	bets := []Bet{
		{ID: "zero", AmountCents: 0, Status: lifecycle.StatusPending, PlacedAt: baseTime},
		{ID: "negative", AmountCents: -500, Status: lifecycle.StatusWon, PlacedAt: baseTime},
		pendingBet("ok", 1000, 2, baseTime),
	}

	res := Builder{}.Build(bets, 10000)
	assert.Equal(t, int64(9000), res.FinalCashCents)
	assert.Equal(t, 1, res.Summary.PendingBets)
	assert.Equal(t, res.FinalCashCents, 10000+NetCashDelta(bets))
}

func TestBuildMissingTimestampsFallBack(t *testing.T) {
	t.Parallel()

	created := baseTime
	resultBefore := baseTime.Add(-time.Hour) // result_at corrompido, antes do place

	bet := Bet{
		ID:                   "b1",
		AmountCents:          1000,
		Odd:                  2,
		PotentialReturnCents: 2000,
		Status:               lifecycle.StatusWon,
		// PlacedAt zerado: cai no CreatedAt.
		CreatedAt: created,
		ResultAt:  &resultBefore,
	}

	res := Builder{}.Build([]Bet{bet}, 10000)

	// settle nunca precede o place: ambos caem no mesmo instante, place primeiro.
	assert.Equal(t, int64(11000), res.FinalCashCents)
	for i := 1; i < len(res.Series); i++ {
		assert.False(t, res.Series[i].Timestamp.Before(created))
	}
}

func TestBuildOnePointPerDay(t *testing.T) {
	t.Parallel()

	day1 := baseTime
	day2 := baseTime.Add(26 * time.Hour)
	bets := []Bet{
		pendingBet("b1", 1000, 2, day1),
		pendingBet("b2", 500, 2, day1.Add(time.Hour)),
		pendingBet("b3", 700, 2, day2),
	}

	res := Builder{Loc: time.UTC}.Build(bets, 10000)

	// start + 1 ponto pro dia 1 (dois places colapsam) + 1 ponto pro dia 2.
	require.Len(t, res.Series, 3)
	assert.Equal(t, int64(8500), res.Series[1].CashCents)
	assert.Equal(t, int64(7800), res.Series[2].CashCents)
}

func TestBuildCustomLabel(t *testing.T) {
	t.Parallel()

	b := Builder{Label: func(ts time.Time) string { return ts.Format("2006-01-02") }}
	res := b.Build([]Bet{pendingBet("b1", 1000, 2, baseTime)}, 10000)

	require.Len(t, res.Series, 2)
	assert.Equal(t, baseTime.Format("2006-01-02"), res.Series[1].Label)
}

func TestBuildClampsAtZero(t *testing.T) {
	t.Parallel()

	// Stake maior que o caixa: o ponto emitido tem piso em zero.
	res := Builder{}.Build([]Bet{pendingBet("b1", 10000, 2, baseTime)}, 500)

	for _, p := range res.Series {
		assert.GreaterOrEqual(t, p.CashCents, int64(0))
		assert.GreaterOrEqual(t, p.EquityCents, int64(0))
	}
	assert.Equal(t, int64(0), res.FinalCashCents)
}

func TestBuildIdempotentRebuild(t *testing.T) {
	t.Parallel()

	bets := []Bet{
		settledBet("b1", 1000, 2, lifecycle.StatusWon, baseTime, baseTime.Add(time.Hour)),
		pendingBet("b2", 700, 1.8, baseTime.Add(2*time.Minute)),
	}

	first := Builder{}.Build(bets, 10000)
	second := Builder{}.Build(bets, 10000)
	assert.Equal(t, first, second)
}

// TestConservationProperty é o teste de regressão primário do módulo:
// o atalho NetCashDelta precisa fechar com o replay completo para qualquer input.
func TestConservationProperty(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	statuses := []lifecycle.Status{
		lifecycle.StatusPending, lifecycle.StatusWon, lifecycle.StatusLost, lifecycle.StatusCancelled,
	}

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(20)
		bets := make([]Bet, 0, n)
		for i := 0; i < n; i++ {
			stake := int64(rng.Intn(50000)) - 1000 // inclui stakes inválidas de propósito
			odd := 1 + rng.Float64()*10
			placedAt := baseTime.Add(time.Duration(rng.Intn(72)) * time.Hour)
			status := statuses[rng.Intn(len(statuses))]

			bet := pendingBet(string(rune('a'+i)), stake, odd, placedAt)
			bet.Status = status
			if status.Settled() {
				resultAt := placedAt.Add(time.Duration(rng.Intn(48)-24) * time.Hour)
				bet.ResultAt = &resultAt
			}
			bets = append(bets, bet)
		}

		startingCash := int64(rng.Intn(200000))
		res := Builder{}.Build(bets, startingCash)

		want := money.ClampNonNegative(startingCash + NetCashDelta(bets))
		require.Equal(t, want, res.FinalCashCents, "trial %d", trial)

		// Decomposição do patrimônio e não-negatividade em todos os pontos.
		for _, p := range res.Series {
			require.GreaterOrEqual(t, p.CashCents, int64(0))
			require.GreaterOrEqual(t, p.EquityCents, p.CashCents)
		}
		require.Equal(t, res.FinalCashCents+res.Summary.ExposureCents, res.FinalEquityCents)
	}
}
