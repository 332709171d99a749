package workitem

import "github.com/cuemby/foreman/pkg/types"

type action string

const (
	actionAssign   action = "assign"
	actionStart    action = "start"
	actionComplete action = "complete"
	actionFail     action = "fail"
	actionBlock    action = "block"
	actionUnblock  action = "unblock"
	actionReset    action = "reset"
)

// table encodes the exact transition matrix: absent cell means invalid.
var table = map[types.WorkItemStatus]map[action]types.WorkItemStatus{
	types.ItemPending: {
		actionAssign: types.ItemAssigned,
		actionBlock:  types.ItemBlocked,
	},
	types.ItemAssigned: {
		actionStart: types.ItemRunning,
	},
	types.ItemRunning: {
		actionComplete: types.ItemDone,
		actionFail:     types.ItemFailed,
		actionBlock:    types.ItemBlocked,
	},
	types.ItemDone: {},
	types.ItemFailed: {
		actionReset: types.ItemPending,
	},
	types.ItemBlocked: {
		actionUnblock: types.ItemPending,
	},
}

// next returns the resulting status of applying act to from, or ok=false
// if the transition is invalid.
func next(from types.WorkItemStatus, act action) (types.WorkItemStatus, bool) {
	row, ok := table[from]
	if !ok {
		return "", false
	}
	to, ok := row[act]
	return to, ok
}
