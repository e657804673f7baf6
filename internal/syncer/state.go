package syncer

// State identifies where a sync run is in its lifecycle. A run moves
// IDLE → PLANNING → {per revision: BUILDING → MERGING → COMMITTING} and
// ends back at IDLE, or at FAILED. FAILED is terminal for the invocation;
// the next run re-plans from the last durable ledger entry.
type State string

// Run states.
const (
	StateIdle       State = "IDLE"
	StatePlanning   State = "PLANNING"
	StateBuilding   State = "BUILDING"
	StateMerging    State = "MERGING"
	StateCommitting State = "COMMITTING"
	StateFailed     State = "FAILED"
)
