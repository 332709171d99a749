// Package ids generates the `<kind-prefix>-<6-hex>` identifiers used by
// every record the store manages.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// Kind prefixes, stable because they appear in user-facing IDs.
const (
	PrefixCodebase   = "cmb"
	PrefixGoal       = "qst"
	PrefixWorkItem   = "job"
	PrefixDependency = "jdp"
	PrefixWorker     = "bee"
	PrefixSandbox    = "cel"
	PrefixSignal     = "wag"
	PrefixCostEntry  = "cst"
)

// New returns a fresh `<prefix>-<6 hex>` identifier.
func New(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + raw[:6]
}
