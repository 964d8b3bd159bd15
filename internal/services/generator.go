package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Generator turns a prompt into generated text. Every generative backend is
// normalized to this one call.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	ErrMissingAPIKey = errors.New("API key is not configured")
	ErrEmptyPrompt   = errors.New("prompt cannot be empty")
	ErrEmptyResponse = errors.New("no content generated from API")
)

// APIError is a non-2xx answer from the generative endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generative API returned status %d", e.StatusCode)
}

// checkRequest runs the fail-fast checks shared by every Generator before any
// network attempt.
func checkRequest(apiKey, prompt string) error {
	if apiKey == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
