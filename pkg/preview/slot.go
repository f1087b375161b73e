package preview

import (
	"context"
	"errors"
	"sync"

	zerrors "github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/label"
)

// ErrSuperseded is returned by Slot.Render when a newer render was started
// before this one finished.
var ErrSuperseded = zerrors.New(zerrors.ErrCodeSuperseded, "preview superseded by a newer request")

// Slot holds at most one in-flight render. Starting a render cancels the
// previous one, and only the newest render may deliver a result; older calls
// return ErrSuperseded even if their response arrives.
type Slot struct {
	r Renderer

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelCauseFunc
}

// NewSlot wraps r.
func NewSlot(r Renderer) *Slot {
	return &Slot{r: r}
}

// Render cancels any render in progress and starts a new one.
func (s *Slot) Render(ctx context.Context, markup string, profile label.Profile) ([]byte, error) {
	var data []byte
	err := s.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = s.r.Render(ctx, markup, profile)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Do runs fn as the slot's render, with the same newest-wins rules as
// Render. fn runs on the calling goroutine; when Do returns ErrSuperseded,
// whatever fn produced must be discarded.
func (s *Slot) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	err := fn(ctx)

	s.mu.Lock()
	current := s.gen == gen
	if current {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !current || errors.Is(context.Cause(ctx), ErrSuperseded) {
		return ErrSuperseded
	}
	return err
}

// Cancel aborts the render in progress, if any. Its caller gets ErrSuperseded.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel(ErrSuperseded)
		s.cancel = nil
	}
	s.gen++
}

// Busy reports whether a render is in flight.
func (s *Slot) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

var _ Renderer = (*Slot)(nil)
