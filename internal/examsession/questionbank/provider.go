// Package questionbank defines the port to the external traffic-law question
// pool. The engine never sees correct-answer keys: correctness is only
// reachable through Validate, so neither a serialized session nor a candidate
// payload can leak an answer.
package questionbank

import (
	"context"

	"drivecert/internal/domain"
	"drivecert/pkg/platform/sentinel"
)

// Provider supplies active questions and answers validation queries.
type Provider interface {
	// ActiveQuestions returns the current pool of askable questions,
	// each with four labeled options and no correct-key field.
	ActiveQuestions(ctx context.Context) ([]domain.Question, error)
	// Validate reports whether originalKey is the correct option for the
	// question. This is the only path to correctness.
	Validate(ctx context.Context, questionID, originalKey string) (bool, error)
}

// StaticProvider serves a fixed pool from memory. The production deployment
// plugs in the authority's bank behind the same interface; this one backs
// development and tests.
type StaticProvider struct {
	questions []domain.Question
	answers   map[string]string // question ID -> correct option key
}

// NewStatic builds a provider over a fixed pool. answers maps each question
// ID to its correct option key and stays private to the provider.
func NewStatic(questions []domain.Question, answers map[string]string) *StaticProvider {
	return &StaticProvider{questions: questions, answers: answers}
}

func (p *StaticProvider) ActiveQuestions(_ context.Context) ([]domain.Question, error) {
	active := make([]domain.Question, 0, len(p.questions))
	for _, q := range p.questions {
		if q.Active {
			active = append(active, q)
		}
	}
	return active, nil
}

func (p *StaticProvider) Validate(_ context.Context, questionID, originalKey string) (bool, error) {
	correct, ok := p.answers[questionID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	return originalKey == correct, nil
}
