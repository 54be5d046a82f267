package llm

import (
	"context"
	"errors"
)

// Client extracts heat-pump sizing fields from document text.
type Client interface {
	ExtractFields(ctx context.Context, text string) (Extraction, error)
}

var (
	// ErrNotConfigured is returned when no provider credentials were supplied.
	ErrNotConfigured = errors.New("llm provider not configured")
	// ErrInvalidOutput marks model output that could not be parsed or failed validation.
	ErrInvalidOutput = errors.New("invalid llm output")
)

// UnconfiguredClient stands in for a provider when startup configuration is missing.
type UnconfiguredClient struct{}

// ExtractFields returns ErrNotConfigured.
func (UnconfiguredClient) ExtractFields(ctx context.Context, text string) (Extraction, error) {
	_ = ctx
	_ = text
	return Extraction{}, ErrNotConfigured
}

var _ Client = UnconfiguredClient{}
