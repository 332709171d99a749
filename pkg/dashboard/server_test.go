package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuemby/foreman/pkg/bus"
	"github.com/cuemby/foreman/pkg/cost"
	"github.com/cuemby/foreman/pkg/store"
	"github.com/cuemby/foreman/pkg/types"
	"github.com/cuemby/foreman/pkg/workitem"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)
	b := bus.New(s)
	items := workitem.New(s, nil, nil)
	costs := cost.New(s, b, items, cost.DefaultPricingTable(), 10.0)
	return New(s, items, costs), s
}

func TestHealthzReportsOK(t *testing.T) {
	d, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestGoalsListsInsertedGoals(t *testing.T) {
	d, s := newTestServer(t)
	goal := &types.Goal{Name: "ship it", Text: "ship it", Status: types.GoalPending}
	require.NoError(t, store.Insert[types.Goal, *types.Goal](s, store.Goals, "qst", goal))

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/goals", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var goals []*types.Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &goals))
	require.Len(t, goals, 1)
	require.Equal(t, goal.ID, goals[0].ID)
}

func TestItemsFiltersByGoalQueryParam(t *testing.T) {
	d, s := newTestServer(t)
	goal := &types.Goal{Text: "g"}
	require.NoError(t, store.Insert[types.Goal, *types.Goal](s, store.Goals, "qst", goal))
	other := &types.Goal{Text: "other"}
	require.NoError(t, store.Insert[types.Goal, *types.Goal](s, store.Goals, "qst", other))

	item := &types.WorkItem{Title: "do it", GoalID: goal.ID, CodebaseID: "cmb-x"}
	require.NoError(t, store.Insert[types.WorkItem, *types.WorkItem](s, store.WorkItems, "job", item))
	otherItem := &types.WorkItem{Title: "do other", GoalID: other.ID, CodebaseID: "cmb-x"}
	require.NoError(t, store.Insert[types.WorkItem, *types.WorkItem](s, store.WorkItems, "job", otherItem))

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items?goal="+goal.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []*types.WorkItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.Equal(t, item.ID, items[0].ID)
}

func TestBudgetRequiresGoalParam(t *testing.T) {
	d, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/budget", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBudgetReportsStatusForGoal(t *testing.T) {
	d, s := newTestServer(t)
	goal := &types.Goal{Text: "g"}
	require.NoError(t, store.Insert[types.Goal, *types.Goal](s, store.Goals, "qst", goal))

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/budget?goal="+goal.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status cost.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.True(t, status.OK)
}
