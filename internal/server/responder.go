package server

import (
	"bytes"
	"context"

	"llmnode/internal/domain"
)

// EchoResponder streams the prompt back one word at a time. It stands in for
// an inference backend in development and tests.
type EchoResponder struct{}

// Respond emits each whitespace-separated word of prompt, keeping the
// separating space, and finishes with "stop".
func (EchoResponder) Respond(ctx context.Context, _ domain.Session, prompt []byte, emit func([]byte) error) (string, error) {
	words := bytes.Fields(prompt)
	for i, w := range words {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		chunk := append([]byte(nil), w...)
		if i < len(words)-1 {
			chunk = append(chunk, ' ')
		}
		if err := emit(chunk); err != nil {
			return "", err
		}
	}
	return "stop", nil
}

var _ domain.Responder = EchoResponder{}
