package questionbank

import (
	"encoding/json"
	"fmt"
	"os"

	"drivecert/internal/domain"
)

// fileQuestion is the on-disk shape: the answer key sits next to the
// question in the bank file but is split off before the question reaches
// session code.
type fileQuestion struct {
	ID      string            `json:"id"`
	Text    string            `json:"text"`
	Options map[string]string `json:"options"`
	Answer  string            `json:"answer"`
	Active  *bool             `json:"active,omitempty"` // default true
}

// LoadFile reads a JSON question bank into a StaticProvider.
func LoadFile(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}

	var raw []fileQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	questions := make([]domain.Question, 0, len(raw))
	answers := make(map[string]string, len(raw))
	for i, fq := range raw {
		if fq.ID == "" || fq.Text == "" {
			return nil, fmt.Errorf("question %d: id and text are required", i)
		}
		if _, ok := fq.Options[fq.Answer]; !ok {
			return nil, fmt.Errorf("question %q: answer key %q is not an option", fq.ID, fq.Answer)
		}
		active := fq.Active == nil || *fq.Active
		questions = append(questions, domain.Question{
			ID:      fq.ID,
			Text:    fq.Text,
			Options: fq.Options,
			Active:  active,
		})
		answers[fq.ID] = fq.Answer
	}

	return NewStatic(questions, answers), nil
}

// NewDev generates a synthetic pool for development and tests where no real
// bank file is mounted.
func NewDev(size int) *StaticProvider {
	questions := make([]domain.Question, size)
	answers := make(map[string]string, size)
	for i := range questions {
		qid := fmt.Sprintf("dev-q%02d", i+1)
		questions[i] = domain.Question{
			ID:   qid,
			Text: fmt.Sprintf("Placeholder traffic rule question %d", i+1),
			Options: map[string]string{
				"a": fmt.Sprintf("Answer %d-a", i+1),
				"b": fmt.Sprintf("Answer %d-b", i+1),
				"c": fmt.Sprintf("Answer %d-c", i+1),
				"d": fmt.Sprintf("Answer %d-d", i+1),
			},
			Active: true,
		}
		answers[qid] = domain.OptionKeys[i%len(domain.OptionKeys)]
	}
	return NewStatic(questions, answers)
}
