// Package prompt asks the operator for confirmations and passwords.
//
// Every request goes through a Slot, which holds at most one pending
// request. A second request made while the first is unanswered fails with
// ErrPending instead of replacing the first one's callback.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrPending is returned when a request is already waiting for an answer.
	ErrPending = errors.New("prompt: another request is pending")

	// ErrDeclined is returned by callers when the operator answers no.
	ErrDeclined = errors.New("prompt: declined")
)

// Prompter asks the operator a question and blocks for the answer.
type Prompter interface {
	Confirm(ctx context.Context, message string) (bool, error)
	Password(ctx context.Context, message string) (string, error)
}

// Slot wraps a Prompter with a single pending-request future.
type Slot struct {
	p    Prompter
	busy chan struct{}
}

// NewSlot creates a slot over p.
func NewSlot(p Prompter) *Slot {
	return &Slot{p: p, busy: make(chan struct{}, 1)}
}

type answer[T any] struct {
	v   T
	err error
}

// ask runs fn as the pending request. The slot stays taken until fn
// returns, even if ctx is cancelled first.
func ask[T any](ctx context.Context, s *Slot, fn func() (T, error)) (T, error) {
	var zero T
	select {
	case s.busy <- struct{}{}:
	default:
		return zero, ErrPending
	}

	done := make(chan answer[T], 1)
	go func() {
		defer func() { <-s.busy }()
		v, err := fn()
		done <- answer[T]{v: v, err: err}
	}()

	select {
	case a := <-done:
		return a.v, a.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Confirm asks a yes/no question.
func (s *Slot) Confirm(ctx context.Context, message string) (bool, error) {
	return ask(ctx, s, func() (bool, error) { return s.p.Confirm(ctx, message) })
}

// Password asks for a secret.
func (s *Slot) Password(ctx context.Context, message string) (string, error) {
	return ask(ctx, s, func() (string, error) { return s.p.Password(ctx, message) })
}

// Require asks a yes/no question and returns ErrDeclined on no.
func (s *Slot) Require(ctx context.Context, message string) error {
	ok, err := s.Confirm(ctx, message)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}

// Terminal prompts on a line-oriented reader and writer (usually stdin
// and stderr). Passwords are echoed.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminal creates a terminal prompter.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out}
}

func (t *Terminal) readLine(message string) (string, error) {
	fmt.Fprint(t.out, message)
	line, err := t.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm accepts y, yes and نعم (any case) as yes.
func (t *Terminal) Confirm(_ context.Context, message string) (bool, error) {
	line, err := t.readLine(message + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes", "نعم":
		return true, nil
	}
	return false, nil
}

// Password reads one line as the secret.
func (t *Terminal) Password(_ context.Context, message string) (string, error) {
	return t.readLine(message + ": ")
}

// Static answers every request the same way. Used for --yes/--password
// flags and tests.
type Static struct {
	Answer bool
	Secret string
}

func (s Static) Confirm(context.Context, string) (bool, error) { return s.Answer, nil }

func (s Static) Password(context.Context, string) (string, error) { return s.Secret, nil }
