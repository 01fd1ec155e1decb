// Package llm provides the generation pipeline behind every issue of the
// newspaper: a shared request budget, the primary and backup model providers,
// the fallback chain that walks them in order, and the cleanup applied to raw
// model output before anything downstream parses it.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Schema is a response schema in the Gemini/OpenAPI subset: "type", "properties",
// "items", "required", "enum", "description". Type names are upper case.
type Schema map[string]any

// JSON renders the schema for inlining into a prompt.
func (s Schema) JSON() string {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Request is one logical generation call.
type Request struct {
	Prompt            string
	SystemInstruction string
	Schema            Schema

	// Marker is a key that must appear in any acceptable response
	// ("headline" for issues). Empty means any valid JSON is accepted.
	Marker string

	// Accept, if set, is run on the sanitized text once the marker check
	// passes. An error rejects the attempt and the chain moves on.
	Accept func(text string) error

	// Progress, if set, is called before each provider attempt with a
	// human-readable label of the provider about to be tried.
	Progress func(label string)
}

// Provider sends a request to one model and returns its raw text.
type Provider interface {
	// Name is the short label used in logs, metrics and progress updates.
	Name() string
	Model() string
	Complete(ctx context.Context, req Request) (string, error)
}

// strictInstruction is the system prompt given to providers that cannot
// enforce a schema themselves.
func strictInstruction(req Request) string {
	var b strings.Builder
	b.WriteString(req.SystemInstruction)
	b.WriteString("\n\nYou MUST respond in valid JSON matching this structure exactly:\n")
	b.WriteString(req.Schema.JSON())
	b.WriteString("\n\nCRITICAL: Respond ONLY with the JSON object. No pre-amble, no explanations. Ensure all required fields are present.")
	return b.String()
}

// FriendlyName shortens an OpenRouter model id for display:
// "google/gemma-3-27b-it:free" becomes "gemma-3-27b-it".
func FriendlyName(model string) string {
	name := model
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, ":"); i >= 0 {
		name = name[:i]
	}
	return name
}
