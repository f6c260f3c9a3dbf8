package events

// Comando publicado pela API no tópico "bet_settle_requested": pede que o
// settlement-worker aplique a transição de status da aposta junto com o
// ajuste de caixa, como uma unidade atômica.
type BetSettleRequested struct {
	BetID     string `json:"bet_id"`
	UserID    string `json:"user_id"`
	NewStatus string `json:"new_status"` // "won" | "lost" | "cancelled"
	TsUnixMs  int64  `json:"ts_unix_ms"`
}
