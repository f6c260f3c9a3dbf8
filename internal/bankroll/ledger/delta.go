package ledger

import "github.com/radieske/bankroll-tracker/internal/bankroll/lifecycle"

// NetCashDelta é o atalho que soma o impacto de caixa do status atual de cada
// aposta, sem reconstruir a linha do tempo. Propriedade de conservação:
//
//	clamp(startingCash + NetCashDelta(bets)) == Builder{}.Build(bets, startingCash).FinalCashCents
//
// para qualquer input. Qualquer mudança aqui ou no Build precisa preservar isso.
func NetCashDelta(bets []Bet) int64 {
	var delta int64
	for _, bet := range bets {
		if bet.AmountCents <= 0 {
			continue // mesmo saneamento do Build
		}
		delta += lifecycle.CashImpact(bet.Status, bet.AmountCents, bet.PotentialReturnCents)
	}
	return delta
}
