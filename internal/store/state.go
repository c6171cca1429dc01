// Package store keeps the session's images with their processing state and
// the bounded history of completed batches.
package store

import (
	"errors"
	"fmt"

	"github.com/phambaophuc/visionprep/internal/models"
)

var (
	ErrNotFound          = errors.New("image not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

type Status string

const (
	StatusQueued     Status = models.StatusQueued
	StatusProcessing Status = models.StatusProcessing
	StatusCompleted  Status = models.StatusCompleted
	StatusFailed     Status = models.StatusFailed
)

// State is the lifecycle state of one image. A result is only present when
// completed and an error message only when failed.
type State struct {
	status  Status
	result  *models.Result
	message string
}

func Queued() State     { return State{status: StatusQueued} }
func Processing() State { return State{status: StatusProcessing} }

func Completed(result models.Result) State {
	return State{status: StatusCompleted, result: &result}
}

func Failed(message string) State {
	return State{status: StatusFailed, message: message}
}

func (s State) Status() Status { return s.status }

func (s State) Result() (models.Result, bool) {
	if s.status != StatusCompleted || s.result == nil {
		return models.Result{}, false
	}
	return *s.result, true
}

func (s State) Error() (string, bool) {
	if s.status != StatusFailed {
		return "", false
	}
	return s.message, true
}

var transitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusFailed:     {StatusProcessing},
	StatusCompleted:  {StatusProcessing},
}

func (s State) canMoveTo(next Status) bool {
	for _, allowed := range transitions[s.status] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) transition(next State) (State, error) {
	if !s.canMoveTo(next.status) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.status, next.status)
	}
	return next, nil
}
