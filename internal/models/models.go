package models

import (
	"errors"
	"fmt"
	"slices"
)

const (
	StartingHealth = 100
	StartingLevel  = 1
	FailurePenalty = 20 // health lost per failed turn
)

// GamePhase drives rendering and which entry points are legal.
type GamePhase string

const (
	PhaseStart           GamePhase = "START"
	PhaseLoadingScenario GamePhase = "LOADING_SCENARIO"
	PhaseBattle          GamePhase = "BATTLE"
	PhaseEvaluating      GamePhase = "EVALUATING"
	PhaseResult          GamePhase = "RESULT"
	PhaseGameOver        GamePhase = "GAME_OVER"
	PhaseVictory         GamePhase = "VICTORY" // declared, no transition reaches it yet
)

func (p GamePhase) String() string {
	return string(p)
}

// FoodType is the closed set of food categories.
type FoodType string

const (
	FoodProtein FoodType = "Protein"
	FoodCarb    FoodType = "Carb"
	FoodFruit   FoodType = "Fruit"
	FoodVeggie  FoodType = "Veggie"
	FoodDairy   FoodType = "Dairy"
	FoodJunk    FoodType = "Junk"
)

// FoodTypes lists every valid FoodType in display order.
var FoodTypes = []FoodType{FoodProtein, FoodCarb, FoodFruit, FoodVeggie, FoodDairy, FoodJunk}

func (t FoodType) Valid() bool {
	return slices.Contains(FoodTypes, t)
}

// Villain represents a nutrient deficiency the hero has to beat.
type Villain struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	WeaknessHint string `yaml:"weaknessHint"` // e.g. "Vitamin C"
	Appearance   string `yaml:"appearance"`   // a single emoji
	Health       int    `yaml:"health"`
}

// FoodItem is one candidate the player can throw at the villain.
type FoodItem struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Emoji            string   `yaml:"emoji"`
	Type             FoodType `yaml:"type"`
	PowerDescription string   `yaml:"powerDescription"`
}

// BattleResult is the outcome of a single turn. DamageDealt is points
// scored, not damage to the villain.
type BattleResult struct {
	Success     bool   `yaml:"success"`
	DamageDealt int    `yaml:"damageDealt"`
	Narrative   string `yaml:"narrative"`
}

// Scenario pairs a villain with its candidate foods for one level.
type Scenario struct {
	Villain Villain    `yaml:"villain"`
	Foods   []FoodItem `yaml:"foods"`
}

var ErrInvalidScenario = errors.New("invalid scenario")

// Validate reports whether the scenario can be committed to a game.
func (s Scenario) Validate() error {
	if s.Villain.Name == "" {
		return fmt.Errorf("%w: villain has no name", ErrInvalidScenario)
	}
	if s.Villain.WeaknessHint == "" {
		return fmt.Errorf("%w: villain %q has no weakness", ErrInvalidScenario, s.Villain.Name)
	}
	if len(s.Foods) < 2 {
		return fmt.Errorf("%w: need at least 2 foods, got %d", ErrInvalidScenario, len(s.Foods))
	}
	seen := make(map[string]bool, len(s.Foods))
	for _, f := range s.Foods {
		if f.ID == "" {
			return fmt.Errorf("%w: food %q has no id", ErrInvalidScenario, f.Name)
		}
		if seen[f.ID] {
			return fmt.Errorf("%w: duplicate food id %q", ErrInvalidScenario, f.ID)
		}
		seen[f.ID] = true
		if !f.Type.Valid() {
			return fmt.Errorf("%w: food %q has unknown type %q", ErrInvalidScenario, f.ID, f.Type)
		}
	}
	return nil
}

// GameState is one immutable snapshot of a run. Transitions build a new
// snapshot instead of mutating an existing one.
type GameState struct {
	Phase          GamePhase     `yaml:"phase"`
	Score          int           `yaml:"score"`
	Level          int           `yaml:"level"`
	HeroHealth     int           `yaml:"hero_health"`
	CurrentVillain *Villain      `yaml:"current_villain,omitempty"`
	CurrentFoods   []FoodItem    `yaml:"current_foods"`
	LastResult     *BattleResult `yaml:"last_result,omitempty"`
}

// Clone returns a deep copy that shares no memory with s.
func (s GameState) Clone() GameState {
	c := s
	if s.CurrentVillain != nil {
		v := *s.CurrentVillain
		c.CurrentVillain = &v
	}
	if s.LastResult != nil {
		r := *s.LastResult
		c.LastResult = &r
	}
	c.CurrentFoods = slices.Clone(s.CurrentFoods)
	if c.CurrentFoods == nil {
		c.CurrentFoods = []FoodItem{}
	}
	return c
}

// FindFood looks up a food in the current pool by id.
func (s GameState) FindFood(id string) (FoodItem, bool) {
	for _, f := range s.CurrentFoods {
		if f.ID == id {
			return f, true
		}
	}
	return FoodItem{}, false
}
