// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm implements the research, reflection, and review call
// contracts on the Gemini API. The orchestration core treats these as
// opaque synchronous calls: a malformed structured response is a call
// failure, surfaced to the dispatcher or supervisor like any other.
// Implements: prd003-sub-agents (R4), prd004-supervision (R2.4).
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/pdiddy/company-research/pkg/types"
)

const defaultModel = "gemini-3-flash-preview"

// Gemini makes model calls through the Google GenAI SDK. It implements
// both the plain-text and the structured call contracts.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a client from AI configuration.
func NewGemini(ctx context.Context, cfg types.AIConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Gemini{client: client, model: model}, nil
}

// Call makes a plain-text generation call.
func (g *Gemini) Call(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini call: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini call: empty response")
	}
	return text, nil
}

// CallReflection makes a schema-constrained call and parses a Reflection.
func (g *Gemini) CallReflection(ctx context.Context, system, user string) (types.Reflection, error) {
	var out types.Reflection
	if err := g.callStructured(ctx, system, user, reflectionSchema(), &out); err != nil {
		return types.Reflection{}, err
	}
	switch out.Confidence {
	case types.ConfidenceHigh, types.ConfidenceMedium, types.ConfidenceLow:
	default:
		return types.Reflection{}, fmt.Errorf("gemini reflection: invalid confidence %q", out.Confidence)
	}
	return out, nil
}

// CallReview makes a schema-constrained call and parses a GapReport.
func (g *Gemini) CallReview(ctx context.Context, system, user string) (types.GapReport, error) {
	var out types.GapReport
	if err := g.callStructured(ctx, system, user, reviewSchema(), &out); err != nil {
		return types.GapReport{}, err
	}
	return out, nil
}

// callStructured runs a generation call with a JSON response schema and
// unmarshals the response strictly into out.
func (g *Gemini) callStructured(ctx context.Context, system, user string, schema *genai.Schema, out any) error {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(user, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    schema,
		},
	)
	if err != nil {
		return fmt.Errorf("gemini structured call: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return fmt.Errorf("gemini structured call: empty response")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("gemini structured call: malformed response: %w", err)
	}
	return nil
}

func reflectionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"is_complete": {Type: genai.TypeBoolean},
			"missing_aspects": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"confidence": {
				Type: genai.TypeString,
				Enum: []string{"high", "medium", "low"},
			},
			"next_steps": {Type: genai.TypeString},
		},
		Required: []string{"is_complete", "missing_aspects", "confidence"},
	}
}

func reviewSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overall_completeness": {Type: genai.TypeString},
			"gaps": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"task_id":     {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
					},
					Required: []string{"task_id", "description"},
				},
			},
			"refinement_needed": {Type: genai.TypeBoolean},
			"ready_for_merge":   {Type: genai.TypeBoolean},
		},
		Required: []string{"overall_completeness", "gaps", "refinement_needed", "ready_for_merge"},
	}
}
