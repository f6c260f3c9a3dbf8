package lifecycle

import "errors"

// Status é o ciclo de vida de uma aposta. A transição é monotônica:
// uma aposta liquidada não reabre.
type Status string

const (
	StatusPending   Status = "pending"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
	StatusCancelled Status = "cancelled"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// Valid informa se s é um dos quatro status conhecidos.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusWon, StatusLost, StatusCancelled:
		return true
	}
	return false
}

// Settled informa se o status representa uma aposta já liquidada.
func (s Status) Settled() bool {
	return s == StatusWon || s == StatusLost || s == StatusCancelled
}

// CashImpact é o efeito acumulado de uma aposta sobre o caixa, dado seu status
// atual. Status vazio/desconhecido não movimenta dinheiro.
//
//	pending   -> -stake (dinheiro saiu, ainda em risco)
//	lost      -> -stake (dinheiro saiu e não volta)
//	won       -> retorno - stake (lucro líquido)
//	cancelled -> 0 (stake devolvida)
func CashImpact(s Status, amountCents, potentialReturnCents int64) int64 {
	switch s {
	case StatusPending, StatusLost:
		return -amountCents
	case StatusWon:
		return potentialReturnCents - amountCents
	default:
		return 0
	}
}

// TransitionDelta é o movimento de caixa ao passar uma aposta de um estado para
// outro. Uma única conta cobre colocação, vitória, derrota, cancelamento e
// edição de stake/odd: delta = impacto(novo) - impacto(antigo).
func TransitionDelta(oldStatus Status, oldAmountCents, oldReturnCents int64, newStatus Status, newAmountCents, newReturnCents int64) int64 {
	return CashImpact(newStatus, newAmountCents, newReturnCents) - CashImpact(oldStatus, oldAmountCents, oldReturnCents)
}

// CanTransition valida a máquina de estados: só pending -> {won, lost, cancelled}.
// Transição para o próprio status é permitida e tratada como no-op pelo chamador
// (protege contra apply duplicado de uma request reenviada).
func CanTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if from == StatusPending && to.Settled() {
		return nil
	}
	return ErrIllegalTransition
}
