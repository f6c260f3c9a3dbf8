package topics

const (
	// Settlement
	BetSettleRequested = "bet_settle_requested"

	// DLQs
	BetSettleRequestedDLQ = "bet_settle_requested_dlq"
)
