// Package oddsmath reúne as contas puras de valor esperado e edge usadas para
// contextualizar uma aposta. Probabilidades circulam em percentual (0..100);
// odds na convenção decimal europeia.
package oddsmath

// ExpectedValuePct é o EV percentual de uma aposta: ((p/100) * odd - 1) * 100.
// EV positivo significa retorno esperado acima da stake.
func ExpectedValuePct(probabilityPct, odd float64) float64 {
	return ((probabilityPct/100)*odd - 1) * 100
}

// ImpliedProbabilityPct converte uma odd decimal na probabilidade implícita do
// bookmaker, removendo o overround assumido antes da comparação. O sinal do
// ajuste importa: a margem infla a probabilidade implícita bruta, então ela é
// dividida por (1 + margem), nunca multiplicada.
func ImpliedProbabilityPct(odd, marginPct float64) float64 {
	if odd <= 0 {
		return 0
	}
	raw := 100 / odd
	return raw / (1 + marginPct/100)
}

// EdgePP é a vantagem do modelo sobre o mercado, em pontos percentuais:
// probabilidade do modelo menos a implícita ajustada pela margem.
func EdgePP(probabilityPct, odd, marginPct float64) float64 {
	return probabilityPct - ImpliedProbabilityPct(odd, marginPct)
}

// CombinedProbabilityPct é a probabilidade conjunta de duas pernas
// independentes selecionadas juntas: o produto das individuais.
func CombinedProbabilityPct(p1Pct, p2Pct float64) float64 {
	return p1Pct * p2Pct / 100
}
