package leverage

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressionChainIdentity(t *testing.T) {
	t.Parallel()

	odds := []float64{1.5, 2.0, 1.3, 1.8, 1.01}
	rows := Progression(100, odds, len(odds))
	require.Len(t, rows, len(odds))

	// Identidade da cadeia: investimento do dia n+1 == retorno do dia n.
	for i := 0; i < len(rows)-1; i++ {
		assert.True(t, rows[i+1].Investment.Equal(rows[i].Return),
			"dia %d: investimento %s != retorno %s", i+2, rows[i+1].Investment, rows[i].Return)
	}
	assert.True(t, rows[0].Investment.Equal(decimal.NewFromInt(100)))
}

func TestProgressionCompounds(t *testing.T) {
	t.Parallel()

	rows := Progression(100, []float64{2, 2, 2}, 3)
	require.Len(t, rows, 3)
	assert.True(t, rows[2].Return.Equal(decimal.NewFromInt(800)))
}

func TestProgressionDegradesInvalidOdds(t *testing.T) {
	t.Parallel()

	// Odd fora da faixa degrada para 1.0 só naquele dia: linha flat, projeção segue.
	rows := Progression(100, []float64{2, 0.5, 2}, 3)
	require.Len(t, rows, 3)

	assert.Equal(t, 1.0, rows[1].Odd)
	assert.True(t, rows[1].Return.Equal(rows[1].Investment))
	assert.True(t, rows[2].Return.Equal(decimal.NewFromInt(400)))
}

func TestProgressionMissingOddsDegrade(t *testing.T) {
	t.Parallel()

	// Slice menor que o horizonte: dias sem odd também ficam flat.
	rows := Progression(50, []float64{1.5}, 3)
	require.Len(t, rows, 3)
	assert.Equal(t, 1.0, rows[1].Odd)
	assert.Equal(t, 1.0, rows[2].Odd)
	assert.True(t, rows[2].Return.Equal(rows[0].Return))
}

func TestProgressionRoundsToCents(t *testing.T) {
	t.Parallel()

	rows := Progression(10, []float64{1.33, 1.33}, 2)
	require.Len(t, rows, 2)

	// 10 * 1.33 = 13.30; 13.30 * 1.33 = 17.6890 -> 17.69
	assert.True(t, rows[0].Return.Equal(decimal.RequireFromString("13.30")), rows[0].Return.String())
	assert.True(t, rows[1].Return.Equal(decimal.RequireFromString("17.69")), rows[1].Return.String())
}

func TestFixedProgressionMatchesBroadcast(t *testing.T) {
	t.Parallel()

	perDay := make([]float64, 15)
	for i := range perDay {
		perDay[i] = 1.3
	}

	assert.Equal(t, Progression(5, perDay, 15), FixedProgression(5, 1.3, 15))
}

func TestProgressionHorizonBounds(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Progression(100, nil, 0))
	assert.Len(t, FixedProgression(100, 1.5, 99), MaxDays)
}

func TestValidateParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		initial float64
		odd     float64
		days    int
		valid   bool
	}{
		{"plano válido", 100, 1.5, 15, true},
		{"limites exatos", 1_000_000, 50, 30, true},
		{"odd mínima", 0.01, 1.01, 1, true},
		{"stake zero", 0, 1.5, 15, false},
		{"stake negativa", -10, 1.5, 15, false},
		{"stake acima do teto", 1_000_001, 1.5, 15, false},
		{"odd abaixo do piso", 100, 1.0, 15, false},
		{"odd acima do teto", 100, 51, 15, false},
		{"horizonte zero", 100, 1.5, 0, false},
		{"horizonte longo demais", 100, 1.5, 31, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateParams(tt.initial, tt.odd, tt.days)
			assert.Equal(t, tt.valid, res.Valid)
			if !tt.valid {
				assert.NotEmpty(t, res.Error)
			}
		})
	}
}
