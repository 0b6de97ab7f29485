package game

import (
	"context"
	"errors"
	"sync"

	"github.com/tatianab/nutrition-heroes/internal/models"
)

var errUnavailable = errors.New("service unavailable")

// stubScenarios returns canned scenarios and records requested levels.
type stubScenarios struct {
	mu       sync.Mutex
	scenario models.Scenario
	err      error
	levels   []int
}

func (s *stubScenarios) FetchScenario(ctx context.Context, level int) (models.Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels = append(s.levels, level)
	if s.err != nil {
		return models.Scenario{}, s.err
	}
	return s.scenario, nil
}

// stubEvaluator succeeds only for the food ids in winners.
type stubEvaluator struct {
	mu      sync.Mutex
	winners map[string]bool
	damage  int
	err     error
	calls   []string
}

func (e *stubEvaluator) EvaluateTurn(ctx context.Context, villain models.Villain, food models.FoodItem) (models.BattleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, food.ID)
	if e.err != nil {
		return models.BattleResult{}, e.err
	}
	if e.winners[food.ID] {
		return models.BattleResult{Success: true, DamageDealt: e.damage, Narrative: "POW!"}, nil
	}
	return models.BattleResult{Success: false, Narrative: "GROSS!"}, nil
}

func testScenario() models.Scenario {
	return models.Scenario{
		Villain: models.Villain{
			Name:         "The Sneezer",
			Description:  "Spreads sniffles",
			WeaknessHint: "Vitamin C",
			Appearance:   "🤧",
			Health:       100,
		},
		Foods: []models.FoodItem{
			{ID: "a", Name: "Orange", Emoji: "🍊", Type: models.FoodFruit, PowerDescription: "Bursting with Vitamin C"},
			{ID: "b", Name: "Donut", Emoji: "🍩", Type: models.FoodJunk, PowerDescription: "Sugar glaze"},
			{ID: "c", Name: "Chicken", Emoji: "🍗", Type: models.FoodProtein, PowerDescription: "Lean protein"},
			{ID: "d", Name: "Chips", Emoji: "🥔", Type: models.FoodJunk, PowerDescription: "Salty crunch"},
		},
	}
}

func newTestMachine() (*Machine, *stubScenarios, *stubEvaluator) {
	scenarios := &stubScenarios{scenario: testScenario()}
	evaluator := &stubEvaluator{winners: map[string]bool{"a": true}, damage: 50}
	return New(scenarios, evaluator, nil), scenarios, evaluator
}

func battleState() models.GameState {
	return ApplyScenario(Reset(), testScenario())
}

func foodIDs(foods []models.FoodItem) []string {
	ids := make([]string, len(foods))
	for i, f := range foods {
		ids[i] = f.ID
	}
	return ids
}
