package usecase

import (
	"context"
	"sync"

	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

// staticProvider hands out a fixed generator, or a fixed error
type staticProvider struct {
	generator repositories.TextGenerator
	err       error
}

func (p staticProvider) Generator(ctx context.Context) (repositories.TextGenerator, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.generator, nil
}

// stubTranslator is a scripted secondary translation endpoint
type stubTranslator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (s *stubTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func (s *stubTranslator) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// countingGenerator counts calls and blocks until release is closed, if set
type countingGenerator struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	err     error
}

func (g *countingGenerator) Generate(ctx context.Context, req repositories.GenerateRequest) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	if g.release != nil {
		<-g.release
	}
	if g.err != nil {
		return "", g.err
	}
	return "ok", nil
}

func (g *countingGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
