// Package types defines the record shapes that flow through the store,
// the bus, and every controller built on top of them.
package types

import "time"

// Record holds the fields every stored entity carries regardless of kind.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID, SetID, GetCreatedAt, SetCreatedAt and SetUpdatedAt let the store
// stamp and key any record type that embeds Record by value.
func (r *Record) GetID() string             { return r.ID }
func (r *Record) SetID(id string)           { r.ID = id }
func (r *Record) GetCreatedAt() time.Time   { return r.CreatedAt }
func (r *Record) SetCreatedAt(t time.Time)  { r.CreatedAt = t }
func (r *Record) GetUpdatedAt() time.Time   { return r.UpdatedAt }
func (r *Record) SetUpdatedAt(t time.Time)  { r.UpdatedAt = t }

// MergePolicy controls how a sandbox branch is folded back into a codebase.
type MergePolicy string

const (
	MergePolicyManual MergePolicy = "manual"
	MergePolicyAuto   MergePolicy = "auto"
	MergePolicyPR     MergePolicy = "pr"
)

// Codebase is a registered source repository.
type Codebase struct {
	Record
	Name             string      `json:"name"`
	Path             string      `json:"path,omitempty"`
	OriginURL        string      `json:"origin_url,omitempty"`
	MergePolicy      MergePolicy `json:"merge_policy"`
	ValidationCmd    string      `json:"validation_command,omitempty"`
	CodeHostOwner    string      `json:"code_host_owner,omitempty"`
	CodeHostRepo     string      `json:"code_host_repo,omitempty"`
	DefaultBranch    string      `json:"default_branch,omitempty"`
}

// GoalStatus is the derived status of a Goal.
type GoalStatus string

const (
	GoalPending   GoalStatus = "pending"
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalFailed    GoalStatus = "failed"
)

// Goal is a high-level user intent decomposed into work items.
type Goal struct {
	Record
	Name       string     `json:"name"`
	Text       string     `json:"text"`
	Status     GoalStatus `json:"status"`
	CodebaseID string     `json:"codebase_id,omitempty"`
	BudgetUSD  *float64   `json:"budget_usd,omitempty"`
}

// WorkItemStatus is the lifecycle state of a WorkItem.
type WorkItemStatus string

const (
	ItemPending   WorkItemStatus = "pending"
	ItemAssigned  WorkItemStatus = "assigned"
	ItemRunning   WorkItemStatus = "running"
	ItemDone      WorkItemStatus = "done"
	ItemFailed    WorkItemStatus = "failed"
	ItemBlocked   WorkItemStatus = "blocked"
)

// WorkItem is a single unit of assignable work.
type WorkItem struct {
	Record
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      WorkItemStatus `json:"status"`
	GoalID      string         `json:"goal_id"`
	CodebaseID  string         `json:"codebase_id"`
	WorkerID    string         `json:"worker_id,omitempty"`
	Priority    int            `json:"priority"`
}

// Dependency is a directed "from cannot start until to is done" edge.
type Dependency struct {
	Record
	From string `json:"from"`
	To   string `json:"to"`
}

// WorkerStatus is the lifecycle state of a Worker.
type WorkerStatus string

const (
	WorkerStarting WorkerStatus = "starting"
	WorkerWorking  WorkerStatus = "working"
	WorkerStopped  WorkerStatus = "stopped"
	WorkerCrashed  WorkerStatus = "crashed"
)

// Worker is an active or terminated agent.
type Worker struct {
	Record
	Name        string       `json:"name"`
	Status      WorkerStatus `json:"status"`
	WorkItemID  string       `json:"work_item_id,omitempty"`
	SandboxPath string       `json:"sandbox_path,omitempty"`
	PID         int          `json:"pid,omitempty"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	StoppedAt   *time.Time   `json:"stopped_at,omitempty"`
}

// SandboxStatus is the lifecycle state of a Sandbox.
type SandboxStatus string

const (
	SandboxActive  SandboxStatus = "active"
	SandboxRemoved SandboxStatus = "removed"
)

// Sandbox is a per-worker isolated working directory.
type Sandbox struct {
	Record
	CodebaseID string        `json:"codebase_id"`
	WorkerID   string        `json:"worker_id"`
	Path       string        `json:"path"`
	Branch     string        `json:"branch"`
	Status     SandboxStatus `json:"status"`
	RemovedAt  *time.Time    `json:"removed_at,omitempty"`
}

// Signal is a bus message.
type Signal struct {
	Record
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Read     bool   `json:"read"`
	Metadata string `json:"metadata,omitempty"`
}

// CostEntry is a usage record attributable to a worker.
type CostEntry struct {
	Record
	WorkerID         string    `json:"worker_id"`
	InputTokens      int64     `json:"input_tokens"`
	OutputTokens     int64     `json:"output_tokens"`
	CacheReadTokens  int64     `json:"cache_read_tokens"`
	CacheWriteTokens int64     `json:"cache_write_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	Model            string    `json:"model"`
	RecordedAt       time.Time `json:"recorded_at"`
}
