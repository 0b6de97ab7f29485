// Package game holds the rules of a run: the legal phase transitions and
// how a turn's result changes score, health and the food pool.
//
// The functions in this file are pure. They take a snapshot and return a
// new one without touching the input, so a snapshot handed to a renderer
// stays consistent no matter what happens afterwards.
package game

import (
	"errors"
	"fmt"

	"github.com/tatianab/nutrition-heroes/internal/models"
)

var (
	ErrIllegalPhase = errors.New("entry point not legal in current phase")
	ErrUnknownFood  = errors.New("food not in current pool")
	ErrNoVillain    = errors.New("no villain to fight")
)

// Initial is the state shown before the first run.
func Initial() models.GameState {
	return models.GameState{
		Phase:        models.PhaseStart,
		Score:        0,
		Level:        models.StartingLevel,
		HeroHealth:   models.StartingHealth,
		CurrentFoods: []models.FoodItem{},
	}
}

// Reset starts a fresh run that is waiting for its first scenario.
func Reset() models.GameState {
	s := Initial()
	s.Phase = models.PhaseLoadingScenario
	return s
}

// ApplyScenario commits a fetched scenario and opens the battle.
func ApplyScenario(s models.GameState, sc models.Scenario) models.GameState {
	next := s.Clone()
	v := sc.Villain
	next.Phase = models.PhaseBattle
	next.CurrentVillain = &v
	next.CurrentFoods = append([]models.FoodItem{}, sc.Foods...)
	next.LastResult = nil
	return next
}

// ScenarioFailed sends the player back to the start screen without
// committing any part of the scenario.
func ScenarioFailed(s models.GameState) models.GameState {
	next := s.Clone()
	next.Phase = models.PhaseStart
	next.CurrentVillain = nil
	next.CurrentFoods = []models.FoodItem{}
	next.LastResult = nil
	return next
}

// SelectFood moves a battle into evaluation of the chosen food.
func SelectFood(s models.GameState, foodID string) (models.GameState, models.FoodItem, error) {
	if s.Phase != models.PhaseBattle {
		return s, models.FoodItem{}, fmt.Errorf("select food in %s: %w", s.Phase, ErrIllegalPhase)
	}
	if s.CurrentVillain == nil {
		return s, models.FoodItem{}, ErrNoVillain
	}
	food, ok := s.FindFood(foodID)
	if !ok {
		return s, models.FoodItem{}, fmt.Errorf("%q: %w", foodID, ErrUnknownFood)
	}

	next := s.Clone()
	next.Phase = models.PhaseEvaluating
	return next, food, nil
}

// ResolveTurn applies an evaluator verdict for food and shows the result.
//
// A success adds the damage to the score. A failure costs FailurePenalty
// health, floored at zero, and removes the food from the pool so it cannot
// be picked again against this villain. Running out of health does not end
// the game here; the result is shown first and Advance decides.
func ResolveTurn(s models.GameState, food models.FoodItem, result models.BattleResult) models.GameState {
	next := s.Clone()
	result.DamageDealt = max(0, result.DamageDealt)

	if result.Success {
		next.Score += result.DamageDealt
	} else {
		next.HeroHealth = max(0, next.HeroHealth-models.FailurePenalty)
		remaining := make([]models.FoodItem, 0, len(next.CurrentFoods))
		for _, f := range next.CurrentFoods {
			if f.ID != food.ID {
				remaining = append(remaining, f)
			}
		}
		next.CurrentFoods = remaining
	}

	next.Phase = models.PhaseResult
	next.LastResult = &result
	return next
}

// EvaluationFailed returns to the battle as if nothing was chosen. No
// penalty is charged for a failed request.
func EvaluationFailed(s models.GameState) models.GameState {
	next := s.Clone()
	next.Phase = models.PhaseBattle
	return next
}

// Advance leaves the result screen. The returned bool is true when a
// scenario for next.Level has to be fetched.
//
// Health is checked before the verdict: an exhausted hero always ends the
// run, even if the last result reads as a success.
func Advance(s models.GameState) (models.GameState, bool, error) {
	if s.Phase != models.PhaseResult {
		return s, false, fmt.Errorf("advance in %s: %w", s.Phase, ErrIllegalPhase)
	}

	next := s.Clone()
	switch {
	case next.HeroHealth <= 0:
		next.Phase = models.PhaseGameOver
		next.LastResult = nil
		return next, false, nil
	case next.LastResult != nil && next.LastResult.Success:
		next.Phase = models.PhaseLoadingScenario
		next.Level++
		next.LastResult = nil
		return next, true, nil
	case len(next.CurrentFoods) == 0:
		// Every food was wrong. A new scenario for the same level keeps
		// the battle winnable.
		next.Phase = models.PhaseLoadingScenario
		next.LastResult = nil
		return next, true, nil
	default:
		next.Phase = models.PhaseBattle
		next.LastResult = nil
		return next, false, nil
	}
}
