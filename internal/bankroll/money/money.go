package money

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Valores monetários circulam no core como int64 em centavos (mesma convenção
// do banco: *_cents). Conversões de/para float só acontecem na borda da API.

// ToCents converte um valor em reais (float da borda) para centavos,
// arredondando na segunda casa decimal. Valores não finitos viram 0.
func ToCents(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()
}

// FromCents converte centavos para o valor em reais exposto na borda.
func FromCents(c int64) float64 {
	f, _ := decimal.New(c, -2).Float64()
	return f
}

// ClampNonNegative aplica o piso em zero: a banca nunca é modelada como negativa.
func ClampNonNegative(c int64) int64 {
	if c < 0 {
		return 0
	}
	return c
}

// MulOdd multiplica uma stake em centavos por uma odd decimal, arredondando
// para o centavo. É a conta de potential_return.
func MulOdd(stakeCents int64, odd float64) int64 {
	if math.IsNaN(odd) || math.IsInf(odd, 0) {
		return 0
	}
	return decimal.New(stakeCents, 0).Mul(decimal.NewFromFloat(odd)).Round(0).IntPart()
}

// SafeTime retorna ts se válido; senão cai no timestamp de criação do registro.
// Protege a reconstrução do ledger contra registros com datas corrompidas.
func SafeTime(ts, createdAt time.Time) time.Time {
	if ts.IsZero() {
		return createdAt
	}
	return ts
}
