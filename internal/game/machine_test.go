package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tatianab/nutrition-heroes/internal/models"
)

func startBattle(t *testing.T, m *Machine) models.GameState {
	t.Helper()
	snap, load := m.Start()
	require.Equal(t, models.PhaseLoadingScenario, snap.Phase)
	require.NotNil(t, load)
	snap = load(context.Background())
	require.Equal(t, models.PhaseBattle, snap.Phase)
	return snap
}

func TestMachineWinningTurn(t *testing.T) {
	m, scenarios, _ := newTestMachine()
	ctx := context.Background()

	startBattle(t, m)
	assert.Equal(t, []int{1}, scenarios.levels)

	snap, eval, err := m.SelectFood("a")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseEvaluating, snap.Phase)

	snap = eval(ctx)
	assert.Equal(t, models.PhaseResult, snap.Phase)
	assert.Equal(t, 50, snap.Score)
	assert.Len(t, snap.CurrentFoods, 4)
	require.NotNil(t, snap.LastResult)
	assert.True(t, snap.LastResult.Success)

	snap, load, err := m.Advance()
	require.NoError(t, err)
	assert.Equal(t, models.PhaseLoadingScenario, snap.Phase)
	assert.Equal(t, 2, snap.Level)
	require.NotNil(t, load)

	snap = load(ctx)
	assert.Equal(t, models.PhaseBattle, snap.Phase)
	assert.Equal(t, 2, snap.Level)
	assert.Equal(t, 50, snap.Score)
	assert.Equal(t, []int{1, 2}, scenarios.levels)
}

func TestMachineLosingTurn(t *testing.T) {
	m, _, _ := newTestMachine()
	ctx := context.Background()
	startBattle(t, m)

	_, eval, err := m.SelectFood("b")
	require.NoError(t, err)
	snap := eval(ctx)
	assert.Equal(t, models.PhaseResult, snap.Phase)
	assert.Equal(t, 80, snap.HeroHealth)
	assert.Equal(t, []string{"a", "c", "d"}, foodIDs(snap.CurrentFoods))

	snap, next, err := m.Advance()
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Equal(t, models.PhaseBattle, snap.Phase)
	assert.Nil(t, snap.LastResult)
	assert.Len(t, snap.CurrentFoods, 3)

	_, _, err = m.SelectFood("b")
	assert.ErrorIs(t, err, ErrUnknownFood, "a proven-wrong food cannot be picked again")
}

func TestMachineDeathPriority(t *testing.T) {
	m, _, evaluator := newTestMachine()
	ctx := context.Background()
	startBattle(t, m)

	// One miss away from defeat.
	evaluator.winners = nil
	m.state.HeroHealth = 20

	_, eval, err := m.SelectFood("c")
	require.NoError(t, err)
	snap := eval(ctx)
	assert.Equal(t, 0, snap.HeroHealth)
	assert.Equal(t, models.PhaseResult, snap.Phase, "result is shown before the run ends")

	snap, next, err := m.Advance()
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Equal(t, models.PhaseGameOver, snap.Phase)
}

func TestMachineScenarioFailure(t *testing.T) {
	m, scenarios, _ := newTestMachine()
	scenarios.err = errUnavailable

	snap, load := m.Start()
	require.Equal(t, models.PhaseLoadingScenario, snap.Phase)

	snap = load(context.Background())
	assert.Equal(t, models.PhaseStart, snap.Phase)
	assert.Nil(t, snap.CurrentVillain)
	assert.Empty(t, snap.CurrentFoods)
}

func TestMachineInvalidScenarioIsFailure(t *testing.T) {
	m, scenarios, _ := newTestMachine()
	bad := testScenario()
	bad.Foods[1].ID = bad.Foods[0].ID
	scenarios.scenario = bad

	_, load := m.Start()
	snap := load(context.Background())
	assert.Equal(t, models.PhaseStart, snap.Phase)
	assert.Nil(t, snap.CurrentVillain)
}

func TestMachineEvaluationFailureIsFree(t *testing.T) {
	m, _, evaluator := newTestMachine()
	ctx := context.Background()
	before := startBattle(t, m)

	evaluator.err = errUnavailable
	_, eval, err := m.SelectFood("b")
	require.NoError(t, err)
	snap := eval(ctx)

	assert.Equal(t, models.PhaseBattle, snap.Phase)
	assert.Equal(t, before.CurrentFoods, snap.CurrentFoods)
	assert.Equal(t, before.HeroHealth, snap.HeroHealth)
	assert.Equal(t, before.Score, snap.Score)
	assert.Nil(t, snap.LastResult)

	// The same food can be retried.
	evaluator.err = nil
	_, eval, err = m.SelectFood("b")
	require.NoError(t, err)
	snap = eval(ctx)
	assert.Equal(t, models.PhaseResult, snap.Phase)
	assert.Equal(t, []string{"b", "b"}, evaluator.calls)
}

func TestMachinePhaseLegality(t *testing.T) {
	m, _, evaluator := newTestMachine()

	before := m.State()
	snap, eff, err := m.SelectFood("a")
	assert.ErrorIs(t, err, ErrIllegalPhase)
	assert.Nil(t, eff)
	assert.Equal(t, before, snap)

	snap, eff, err = m.Advance()
	assert.ErrorIs(t, err, ErrIllegalPhase)
	assert.Nil(t, eff)
	assert.Equal(t, before, snap)

	startBattle(t, m)
	_, _, err = m.Advance()
	assert.ErrorIs(t, err, ErrIllegalPhase)

	_, eval, err := m.SelectFood("a")
	require.NoError(t, err)
	_, _, err = m.SelectFood("b")
	assert.ErrorIs(t, err, ErrIllegalPhase, "only one request at a time")
	eval(context.Background())

	assert.Equal(t, []string{"a"}, evaluator.calls)
}

func TestMachineResetFromAnyPhase(t *testing.T) {
	m, _, _ := newTestMachine()
	ctx := context.Background()

	startBattle(t, m)
	_, eval, err := m.SelectFood("a")
	require.NoError(t, err)
	eval(ctx)
	require.Equal(t, 50, m.State().Score)

	firstRun := m.RunID()
	snap, _ := m.Start()
	assert.Equal(t, Reset(), snap)
	assert.NotEqual(t, firstRun, m.RunID())
}

func TestMachineDiscardsStaleResponses(t *testing.T) {
	m, _, _ := newTestMachine()
	ctx := context.Background()

	_, staleLoad := m.Start()
	_, freshLoad := m.Start()

	snap := staleLoad(ctx)
	assert.Equal(t, models.PhaseLoadingScenario, snap.Phase, "stale scenario must not open the battle")

	snap = freshLoad(ctx)
	assert.Equal(t, models.PhaseBattle, snap.Phase)

	_, eval, err := m.SelectFood("a")
	require.NoError(t, err)
	m.Start()
	snap = eval(ctx)
	assert.Equal(t, models.PhaseLoadingScenario, snap.Phase, "evaluation from a previous run is dropped")
	assert.Equal(t, 0, snap.Score)
}

func TestMachineStateIsACopy(t *testing.T) {
	m, _, _ := newTestMachine()
	snap := startBattle(t, m)

	snap.CurrentFoods[0].ID = "mutated"
	snap.CurrentVillain.Name = "mutated"

	state := m.State()
	assert.Equal(t, "a", state.CurrentFoods[0].ID)
	assert.Equal(t, "The Sneezer", state.CurrentVillain.Name)
}

func TestMachineSubscribe(t *testing.T) {
	m, _, _ := newTestMachine()
	ctx := context.Background()

	var mu sync.Mutex
	var phases []models.GamePhase
	cancel := m.Subscribe(func(s models.GameState) {
		mu.Lock()
		defer mu.Unlock()
		phases = append(phases, s.Phase)
	})

	startBattle(t, m)
	_, eval, err := m.SelectFood("b")
	require.NoError(t, err)
	eval(ctx)
	_, _, err = m.Advance()
	require.NoError(t, err)

	cancel()
	m.Start()

	assert.Equal(t, []models.GamePhase{
		models.PhaseLoadingScenario,
		models.PhaseBattle,
		models.PhaseEvaluating,
		models.PhaseResult,
		models.PhaseBattle,
	}, phases)
}

func TestFetchErrorsUnwrap(t *testing.T) {
	var err error = &ScenarioFetchError{Level: 3, Err: errUnavailable}
	assert.True(t, errors.Is(err, errUnavailable))
	assert.Contains(t, err.Error(), "level 3")

	err = &EvaluationError{FoodID: "a", Err: errUnavailable}
	assert.True(t, errors.Is(err, errUnavailable))
	assert.Contains(t, err.Error(), `"a"`)
}
