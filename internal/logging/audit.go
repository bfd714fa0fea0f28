package logging

// AuditEvent records one on-chain action submitted on behalf of the user.
type AuditEvent struct {
	Operation string // e.g. "stake", "unstake_intent", "wallet_connect"
	Actor     string // wallet address
	Target    string // contract address
	TxHash    string
	Result    string // "success", "failure", "unconfirmed", "skipped"
	Details   string
}

// Audit logs an action at info level tagged with audit=true so it can be
// filtered out of regular diagnostics.
func Audit(event AuditEvent) {
	Logger().Info("audit",
		"audit", true,
		"operation", event.Operation,
		"actor", event.Actor,
		"target", event.Target,
		"tx_hash", event.TxHash,
		"result", event.Result,
		"details", event.Details,
	)
}
