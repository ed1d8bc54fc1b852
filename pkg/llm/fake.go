package llm

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// Fake is a scripted Model for tests. Respond receives every prompt; a nil Respond
// answers with an empty JSON object.
type Fake struct {
	ModelName string
	Respond   func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (f *Fake) Name() string {
	if f.ModelName == "" {
		return "fake-model"
	}
	return f.ModelName
}

func (f *Fake) GenerateJSON(_ context.Context, prompt string, _ *genai.Schema) (string, error) {
	return f.call(prompt)
}

func (f *Fake) GenerateText(_ context.Context, prompt string) (string, error) {
	return f.call(prompt)
}

func (f *Fake) call(prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.Respond == nil {
		return "{}", nil
	}
	return f.Respond(prompt)
}

// Prompts returns the prompts received so far.
func (f *Fake) Prompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}
