package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tatianab/nutrition-heroes/internal/logger"
	"github.com/tatianab/nutrition-heroes/internal/models"
)

// ScenarioProvider produces a villain and its candidate foods for a level.
type ScenarioProvider interface {
	FetchScenario(ctx context.Context, level int) (models.Scenario, error)
}

// TurnEvaluator decides whether a food beats a villain.
type TurnEvaluator interface {
	EvaluateTurn(ctx context.Context, villain models.Villain, food models.FoodItem) (models.BattleResult, error)
}

// Effect performs the outbound request an entry point issued and applies
// its outcome. It returns the snapshot current after that.
type Effect func(ctx context.Context) models.GameState

// ScenarioFetchError wraps any failure to obtain a usable scenario.
type ScenarioFetchError struct {
	Level int
	Err   error
}

func (e *ScenarioFetchError) Error() string {
	return fmt.Sprintf("fetch scenario for level %d: %v", e.Level, e.Err)
}

func (e *ScenarioFetchError) Unwrap() error { return e.Err }

// EvaluationError wraps any failure to obtain a turn verdict.
type EvaluationError struct {
	FoodID string
	Err    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate food %q: %v", e.FoodID, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

type subscriber struct {
	id int
	fn func(models.GameState)
}

// Machine owns the canonical snapshot of a run. At most one request is
// outstanding at a time; each carries a ticket, and a response whose ticket
// is no longer the outstanding one is dropped.
type Machine struct {
	scenarios ScenarioProvider
	evaluator TurnEvaluator
	logger    *slog.Logger

	mu      sync.Mutex
	state   models.GameState
	seq     uint64
	pending uint64 // ticket of the outstanding request, 0 if none
	runID   string
	runLog  *slog.Logger

	// subMu is taken before mu is released so snapshots reach
	// subscribers in commit order.
	subMu       sync.Mutex
	subscribers []subscriber
	nextSub     int
}

// New returns a machine in the Start phase.
func New(scenarios ScenarioProvider, evaluator TurnEvaluator, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		scenarios: scenarios,
		evaluator: evaluator,
		logger:    log,
		state:     Initial(),
		runLog:    log,
	}
}

// State returns a copy of the current snapshot.
func (m *Machine) State() models.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// RunID identifies the current run in logs. Empty before the first Start.
func (m *Machine) RunID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runID
}

// Subscribe registers fn to receive every new snapshot. fn must not call
// back into the machine.
func (m *Machine) Subscribe(fn func(models.GameState)) (cancel func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.nextSub++
	id := m.nextSub
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, s := range m.subscribers {
			if s.id == id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Start begins a fresh run from any phase. The returned effect loads the
// first scenario.
func (m *Machine) Start() (models.GameState, Effect) {
	m.mu.Lock()
	m.runID = uuid.NewString()
	m.runLog = logger.WithRunID(m.logger, m.runID)
	log := m.runLog
	ticket := m.issue()
	snap := m.publish(Reset())

	log.Info("run started")
	return snap, m.loadScenario(ticket, snap.Level, log)
}

// SelectFood throws the food with the given id at the villain. It is only
// legal during Battle; misuse leaves the snapshot untouched.
func (m *Machine) SelectFood(foodID string) (models.GameState, Effect, error) {
	m.mu.Lock()
	log := m.runLog
	next, food, err := SelectFood(m.state, foodID)
	if err != nil {
		snap := m.state.Clone()
		m.mu.Unlock()
		logger.WithError(log, err).Error("rejected food selection", "food_id", foodID, "phase", snap.Phase)
		return snap, nil, err
	}
	villain := *next.CurrentVillain
	ticket := m.issue()
	snap := m.publish(next)

	log.Debug("food selected", "food_id", food.ID, "food", food.Name)
	return snap, m.evaluateTurn(ticket, villain, food, log), nil
}

// Advance leaves the Result screen. The effect is non-nil only when a new
// scenario has to be loaded.
func (m *Machine) Advance() (models.GameState, Effect, error) {
	m.mu.Lock()
	log := m.runLog
	next, fetch, err := Advance(m.state)
	if err != nil {
		snap := m.state.Clone()
		m.mu.Unlock()
		logger.WithError(log, err).Error("rejected advance", "phase", snap.Phase)
		return snap, nil, err
	}

	var ticket uint64
	if fetch {
		ticket = m.issue()
	}
	snap := m.publish(next)

	switch {
	case snap.Phase == models.PhaseGameOver:
		log.Info("run ended", "score", snap.Score, "level", snap.Level)
		return snap, nil, nil
	case fetch:
		log.Info("loading scenario", "level", snap.Level)
		return snap, m.loadScenario(ticket, snap.Level, log), nil
	default:
		return snap, nil, nil
	}
}

func (m *Machine) loadScenario(ticket uint64, level int, log *slog.Logger) Effect {
	return func(ctx context.Context) models.GameState {
		sc, err := m.scenarios.FetchScenario(ctx, level)
		if err == nil {
			err = sc.Validate()
		}

		m.mu.Lock()
		if !m.claim(ticket, models.PhaseLoadingScenario) {
			snap := m.state.Clone()
			m.mu.Unlock()
			log.Debug("discarding stale scenario", "level", level)
			return snap
		}

		if err != nil {
			ferr := &ScenarioFetchError{Level: level, Err: err}
			snap := m.publish(ScenarioFailed(m.state))
			logger.WithError(log, ferr).Warn("scenario fetch failed")
			return snap
		}

		snap := m.publish(ApplyScenario(m.state, sc))
		log.Info("scenario loaded", "level", level, "villain", sc.Villain.Name, "weakness", sc.Villain.WeaknessHint, "foods", len(sc.Foods))
		return snap
	}
}

func (m *Machine) evaluateTurn(ticket uint64, villain models.Villain, food models.FoodItem, log *slog.Logger) Effect {
	return func(ctx context.Context) models.GameState {
		result, err := m.evaluator.EvaluateTurn(ctx, villain, food)

		m.mu.Lock()
		if !m.claim(ticket, models.PhaseEvaluating) {
			snap := m.state.Clone()
			m.mu.Unlock()
			log.Debug("discarding stale evaluation", "food_id", food.ID)
			return snap
		}

		if err != nil {
			eerr := &EvaluationError{FoodID: food.ID, Err: err}
			snap := m.publish(EvaluationFailed(m.state))
			logger.WithError(log, eerr).Warn("evaluation failed")
			return snap
		}

		snap := m.publish(ResolveTurn(m.state, food, result))
		log.Info("turn resolved",
			"food_id", food.ID,
			"success", result.Success,
			"score", snap.Score,
			"hero_health", snap.HeroHealth,
			"foods_left", len(snap.CurrentFoods),
		)
		return snap
	}
}

// issue hands out a new ticket and makes it the outstanding one. mu must
// be held.
func (m *Machine) issue() uint64 {
	m.seq++
	m.pending = m.seq
	return m.seq
}

// claim reports whether a response for ticket may still be applied and
// clears the outstanding ticket if so. mu must be held.
func (m *Machine) claim(ticket uint64, phase models.GamePhase) bool {
	if ticket == 0 || ticket != m.pending || m.state.Phase != phase {
		return false
	}
	m.pending = 0
	return true
}

// publish commits next, releases mu and notifies subscribers. mu must be
// held on entry and is released on return.
func (m *Machine) publish(next models.GameState) models.GameState {
	m.state = next
	snap := next.Clone()

	m.subMu.Lock()
	m.mu.Unlock()
	defer m.subMu.Unlock()

	for _, s := range m.subscribers {
		s.fn(snap.Clone())
	}
	return snap
}
