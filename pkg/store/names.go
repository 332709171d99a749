package store

// Collection names shared by every package that reads or writes the store.
const (
	Codebases    = "codebases"
	Goals        = "goals"
	WorkItems    = "work_items"
	Dependencies = "dependencies"
	Workers      = "workers"
	Sandboxes    = "sandboxes"
	Signals      = "signals"
	CostEntries  = "cost_entries"
)
