package engine

import (
	"github.com/google/generative-ai-go/genai"
	"github.com/tatianab/nutrition-heroes/internal/models"
)

func scenarioSchema() *genai.Schema {
	foodTypes := make([]string, len(models.FoodTypes))
	for i, t := range models.FoodTypes {
		foodTypes[i] = string(t)
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"villain": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":         {Type: genai.TypeString},
					"description":  {Type: genai.TypeString},
					"weaknessHint": {Type: genai.TypeString, Description: "The exact nutrient name needed (e.g. Vitamin C)"},
					"appearance":   {Type: genai.TypeString, Description: "A single emoji representing the villain"},
					"health":       {Type: genai.TypeInteger},
				},
				Required: []string{"name", "description", "weaknessHint", "appearance", "health"},
			},
			"foods": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":               {Type: genai.TypeString},
						"name":             {Type: genai.TypeString},
						"emoji":            {Type: genai.TypeString},
						"type":             {Type: genai.TypeString, Format: "enum", Enum: foodTypes},
						"powerDescription": {Type: genai.TypeString},
					},
					Required: []string{"id", "name", "emoji", "type", "powerDescription"},
				},
			},
		},
		Required: []string{"villain", "foods"},
	}
}

func verdictSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"success":     {Type: genai.TypeBoolean},
			"damageDealt": {Type: genai.TypeInteger},
			"narrative":   {Type: genai.TypeString},
		},
		Required: []string{"success", "damageDealt", "narrative"},
	}
}
