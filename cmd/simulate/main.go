package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/tatianab/nutrition-heroes/internal/config"
	"github.com/tatianab/nutrition-heroes/internal/engine"
	"github.com/tatianab/nutrition-heroes/internal/game"
	"github.com/tatianab/nutrition-heroes/internal/logger"
	"github.com/tatianab/nutrition-heroes/internal/models"
	"google.golang.org/api/option"
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	slogger := logger.Setup(cfg, os.Stderr)

	// Initialize the Game Engine (scenarios and verdicts)
	gmEngine, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to create GM engine: %v", err)
	}
	defer gmEngine.Close()

	// Initialize the Player LLM
	playerClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create player client: %v", err)
	}
	defer playerClient.Close()
	playerModel := playerClient.GenerativeModel(cfg.Model)

	machine := game.New(gmEngine, gmEngine, slogger)
	cancel := machine.Subscribe(func(s models.GameState) {
		slogger.Debug("transition", "phase", s.Phase, "level", s.Level, "score", s.Score, "hero_health", s.HeroHealth)
	})
	defer cancel()

	fmt.Println("--- Starting run ---")
	state, load := machine.Start()
	state = load(ctx)
	if state.Phase != models.PhaseBattle {
		log.Fatalf("Failed to load the first scenario")
	}

	for turn := 1; turn <= cfg.MaxTurns; turn++ {
		fmt.Printf("--- Turn %d (level %d) ---\n", turn, state.Level)
		fmt.Printf("Villain: %s %s, weak to %s\n", state.CurrentVillain.Appearance, state.CurrentVillain.Name, state.CurrentVillain.WeaknessHint)

		// Ask Player LLM what to throw
		foodID := choose(ctx, playerModel, state)
		food, _ := state.FindFood(foodID)
		fmt.Printf("Player throws: %s %s\n", food.Emoji, food.Name)

		_, eval, err := machine.SelectFood(foodID)
		if err != nil {
			log.Fatalf("Rejected selection: %v", err)
		}
		state = eval(ctx)
		if state.Phase != models.PhaseResult {
			fmt.Println("Evaluation failed, trying again.")
			continue
		}

		fmt.Printf("Narrative: %s\n", state.LastResult.Narrative)
		fmt.Printf("Stats: Score=%d, Health=%d, Foods left=%d\n\n", state.Score, state.HeroHealth, len(state.CurrentFoods))

		state, load, err = machine.Advance()
		if err != nil {
			log.Fatalf("Failed to advance: %v", err)
		}
		if state.Phase == models.PhaseGameOver {
			fmt.Printf("Game Over! Final score: %d\n", state.Score)
			return
		}
		if load != nil {
			state = load(ctx)
			if state.Phase != models.PhaseBattle {
				log.Fatalf("Failed to load scenario for level %d", state.Level)
			}
		}
	}

	fmt.Printf("Out of turns. Level %d, score %d, health %d\n", state.Level, state.Score, state.HeroHealth)
}

// choose asks the player model for a food id, falling back to the first
// food when the answer is unusable.
func choose(ctx context.Context, model *genai.GenerativeModel, state models.GameState) string {
	fallback := state.CurrentFoods[0].ID

	var foods strings.Builder
	for _, f := range state.CurrentFoods {
		fmt.Fprintf(&foods, "- id=%s: %s (%s, %s)\n", f.ID, f.Name, f.Type, f.PowerDescription)
	}

	prompt := fmt.Sprintf(`You are playing a nutrition game. The villain %s is weak to %s.
Which food defeats it?

%s
Return ONLY the id of the food, no extra commentary.`,
		state.CurrentVillain.Name,
		state.CurrentVillain.WeaknessHint,
		foods.String(),
	)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fallback
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return fallback
	}

	id := strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
	if _, ok := state.FindFood(id); !ok {
		return fallback
	}
	return id
}
