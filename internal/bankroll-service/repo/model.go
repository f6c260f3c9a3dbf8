package repo

import (
	"time"

	"github.com/radieske/bankroll-tracker/internal/bankroll/lifecycle"
)

// Bet é o modelo persistido no Postgres. Os campos derivados
// (potential_return/profit) são recalculados a cada escrita de stake/odd,
// nunca lidos de valor antigo.
type Bet struct {
	ID                   string
	UserID               string
	AmountCents          int64
	OddValue             float64
	PotentialReturnCents int64
	PotentialProfitCents int64
	Status               lifecycle.Status
	PlacedAt             time.Time
	ResultAt             *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// BankSettings é o saldo autoritativo da banca, um registro por usuário.
// Version é incrementado a cada escrita para detecção de escrita perdida.
type BankSettings struct {
	UserID    string
	CashCents int64
	Currency  string
	Version   int64
	UpdatedAt time.Time
}

// TransitionResult descreve o efeito de uma transição aplicada na banca.
// Applied=false significa no-op idempotente (aposta já estava no status alvo).
type TransitionResult struct {
	Applied      bool
	OldStatus    lifecycle.Status
	NewStatus    lifecycle.Status
	DeltaCents   int64
	NewCashCents int64
}
