package engine

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"github.com/tatianab/nutrition-heroes/internal/models"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/generate_scenario.txt
var generateScenarioPrompt string

//go:embed prompts/evaluate_turn.txt
var evaluateTurnPrompt string

//go:embed themes.yaml
var defaultThemes []byte

const (
	foodCount = 4

	// SuccessDamage is awarded for every winning turn regardless of what
	// the model claims.
	SuccessDamage = 50
)

var (
	errNoContent      = errors.New("no content returned from Gemini")
	errUnexpectedPart = errors.New("unexpected response type from Gemini")
)

// generator is the part of *genai.GenerativeModel the engine needs.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Engine produces scenarios and judges turns with Gemini.
type Engine struct {
	client    *genai.Client
	scenarios generator
	verdicts  generator
	themes    []models.Theme

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// Option customizes an Engine.
type Option func(*Engine)

// WithThemes replaces the embedded theme catalog.
func WithThemes(themes []models.Theme) Option {
	return func(e *Engine) {
		e.themes = themes
	}
}

// WithRand sets the source used to pick themes and shuffle foods.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

func NewEngine(ctx context.Context, apiKey, modelName string, opts ...Option) (*Engine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	scenarioModel := client.GenerativeModel(modelName)
	scenarioModel.ResponseMIMEType = "application/json"
	scenarioModel.ResponseSchema = scenarioSchema()
	scenarioModel.SetMaxOutputTokens(1000)

	verdictModel := client.GenerativeModel(modelName)
	verdictModel.ResponseMIMEType = "application/json"
	verdictModel.ResponseSchema = verdictSchema()
	verdictModel.SetMaxOutputTokens(200)

	e, err := newEngine(scenarioModel, verdictModel, opts...)
	if err != nil {
		client.Close()
		return nil, err
	}
	e.client = client
	return e, nil
}

func newEngine(scenarios, verdicts generator, opts ...Option) (*Engine, error) {
	e := &Engine{
		scenarios: scenarios,
		verdicts:  verdicts,
	}
	for _, opt := range opts {
		opt(e)
	}

	if len(e.themes) == 0 {
		themes, err := models.ParseThemes(defaultThemes)
		if err != nil {
			return nil, fmt.Errorf("embedded themes: %w", err)
		}
		e.themes = themes
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e, nil
}

func (e *Engine) Close() {
	if e.client != nil {
		e.client.Close()
	}
}

// FetchScenario asks Gemini for a villain and foods for the given level.
// The villain's weakness comes from a randomly picked theme and the foods
// come back shuffled so the winner is not always first.
func (e *Engine) FetchScenario(ctx context.Context, level int) (models.Scenario, error) {
	theme := e.pickTheme()

	prompt, err := render("generate_scenario", generateScenarioPrompt, struct {
		Level     int
		Theme     models.Theme
		FoodCount int
		JunkCount int
	}{
		Level:     level,
		Theme:     theme,
		FoodCount: foodCount,
		JunkCount: foodCount - 2,
	})
	if err != nil {
		return models.Scenario{}, err
	}

	text, err := generate(ctx, e.scenarios, prompt)
	if err != nil {
		return models.Scenario{}, err
	}

	var resp struct {
		Villain struct {
			Name         string  `yaml:"name"`
			Description  string  `yaml:"description"`
			WeaknessHint string  `yaml:"weaknessHint"`
			Appearance   string  `yaml:"appearance"`
			Health       float64 `yaml:"health"`
		} `yaml:"villain"`
		Foods []models.FoodItem `yaml:"foods"`
	}
	if err := yaml.Unmarshal([]byte(text), &resp); err != nil {
		return models.Scenario{}, fmt.Errorf("failed to parse scenario: %w\nOutput was: %s", err, text)
	}

	sc := models.Scenario{
		Villain: models.Villain{
			Name:         resp.Villain.Name,
			Description:  resp.Villain.Description,
			WeaknessHint: resp.Villain.WeaknessHint,
			Appearance:   resp.Villain.Appearance,
			Health:       int(resp.Villain.Health),
		},
		Foods: resp.Foods,
	}
	if err := sc.Validate(); err != nil {
		return models.Scenario{}, err
	}

	e.shuffle(sc.Foods)
	return sc, nil
}

// EvaluateTurn asks Gemini whether food defeats villain.
func (e *Engine) EvaluateTurn(ctx context.Context, villain models.Villain, food models.FoodItem) (models.BattleResult, error) {
	prompt, err := render("evaluate_turn", evaluateTurnPrompt, struct {
		Villain models.Villain
		Food    models.FoodItem
	}{
		Villain: villain,
		Food:    food,
	})
	if err != nil {
		return models.BattleResult{}, err
	}

	text, err := generate(ctx, e.verdicts, prompt)
	if err != nil {
		return models.BattleResult{}, err
	}

	var resp struct {
		Success     *bool   `yaml:"success"`
		DamageDealt float64 `yaml:"damageDealt"`
		Narrative   string  `yaml:"narrative"`
	}
	if err := yaml.Unmarshal([]byte(text), &resp); err != nil {
		return models.BattleResult{}, fmt.Errorf("failed to parse verdict: %w\nOutput was: %s", err, text)
	}
	if resp.Success == nil {
		return models.BattleResult{}, fmt.Errorf("verdict has no success field\nOutput was: %s", text)
	}
	if strings.TrimSpace(resp.Narrative) == "" {
		return models.BattleResult{}, fmt.Errorf("verdict has no narrative\nOutput was: %s", text)
	}

	// The model's damage numbers are unreliable.
	result := models.BattleResult{
		Success:   *resp.Success,
		Narrative: strings.TrimSpace(resp.Narrative),
	}
	if result.Success {
		result.DamageDealt = SuccessDamage
	}
	return result, nil
}

func (e *Engine) pickTheme() models.Theme {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.themes[e.rng.IntN(len(e.themes))]
}

func (e *Engine) shuffle(foods []models.FoodItem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng.Shuffle(len(foods), func(i, j int) {
		foods[i], foods[j] = foods[j], foods[i]
	})
}

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func generate(ctx context.Context, model generator, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errNoContent
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", errUnexpectedPart
	}

	return stripFences(string(text)), nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```yaml")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
