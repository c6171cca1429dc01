// Package ai turns one image plus generation options into validated SEO
// metadata by prompting a hosted vision model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phambaophuc/visionprep/internal/models"
)

// Request describes a single image to annotate.
type Request struct {
	DataURL  string
	Filename string
	Options  models.GenerationOptions
	// Strict asks the model, more insistently, for bare JSON.
	Strict bool
}

// Describer produces a validated Result for one image.
type Describer interface {
	Describe(ctx context.Context, req Request) (*models.Result, error)
}

var ErrEmptyResponse = errors.New("no response from AI model")

// ParseError means the model answered with something that is not JSON.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON response from AI model: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError means the JSON did not match the result shape.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "AI model response failed validation: " + strings.Join(e.Problems, "; ")
}

// TransportError wraps failures talking to the model endpoint.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("AI model request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
