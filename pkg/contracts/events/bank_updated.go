package events

import "time"

// Evento publicado no canal Redis de broadcast após cada transição efetivada.
// Outros devices/abas do mesmo usuário usam isso para atualizar o saldo exibido.
type BankUpdated struct {
	UserID       string    `json:"user_id"`
	BetID        string    `json:"bet_id,omitempty"`
	OldStatus    string    `json:"old_status,omitempty"`
	NewStatus    string    `json:"new_status,omitempty"`
	DeltaCents   int64     `json:"delta_cents"`
	NewCashCents int64     `json:"new_cash_cents"`
	UpdatedAt    time.Time `json:"updated_at"`
}
