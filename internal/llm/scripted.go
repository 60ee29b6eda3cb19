package llm

import (
	"context"
	"fmt"
	"sync"
)

// Scripted is an offline Model that replays canned replies in order and
// records every prompt it receives. It backs tests.
type Scripted struct {
	mu      sync.Mutex
	replies []Reply
	prompts []string
}

// Reply is one canned model response.
type Reply struct {
	Text string
	Err  error
}

// NewScripted returns a Scripted model that answers with texts in order.
func NewScripted(texts ...string) *Scripted {
	s := &Scripted{}
	for _, t := range texts {
		s.replies = append(s.replies, Reply{Text: t})
	}
	return s
}

// Then appends a reply.
func (s *Scripted) Then(r Reply) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, r)
	return s
}

// Complete returns the next reply, or an error when the script is exhausted.
func (s *Scripted) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)
	n := len(s.prompts)
	if n > len(s.replies) {
		return "", fmt.Errorf("scripted model: no reply for call %d", n)
	}
	r := s.replies[n-1]
	return r.Text, r.Err
}

// Prompts returns the prompts received so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Calls returns how many times Complete was invoked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

var _ Model = (*Scripted)(nil)
