// Package backend models the language-model backend as an explicit two-state value.
package backend

import (
	"errors"

	"github.com/kailas-cloud/studyplan/internal/domain"
)

// State is the backend availability.
type State string

const (
	// StateReady means a model session can be opened.
	StateReady State = "ready"
	// StateDegraded means configuration failed; callers serve canned fallbacks.
	StateDegraded State = "degraded"
)

// Backend is either Ready (holding an LLM) or Degraded (holding the reason).
// The zero value is Degraded.
type Backend struct {
	llm    domain.LLM
	reason error
}

// Ready wraps a working language model.
func Ready(llm domain.LLM) Backend {
	if llm == nil {
		return Degraded(errors.New("nil llm"))
	}
	return Backend{llm: llm}
}

// Degraded records why no backend is available.
func Degraded(reason error) Backend {
	if reason == nil {
		reason = domain.ErrBackendUnavailable
	}
	return Backend{reason: reason}
}

// Open runs a backend factory and turns a failure into Degraded.
func Open(factory func() (domain.LLM, error)) Backend {
	llm, err := factory()
	if err != nil {
		return Degraded(err)
	}
	return Ready(llm)
}

// State reports which variant this is.
func (b Backend) State() State {
	if b.llm == nil {
		return StateDegraded
	}
	return StateReady
}

// LLM returns the model and true when Ready.
func (b Backend) LLM() (domain.LLM, bool) {
	return b.llm, b.llm != nil
}

// Reason returns why the backend is Degraded, nil when Ready.
func (b Backend) Reason() error {
	if b.llm != nil {
		return nil
	}
	if b.reason == nil {
		return domain.ErrBackendUnavailable
	}
	return b.reason
}
