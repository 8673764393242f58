// Package extension models the request a host hands to a share extension:
// the shared targets plus a one-shot completion.
package extension

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/soochol/sharemenu/internal/share"
)

// ErrCancelled is the cancel reason used when none is given.
var ErrCancelled = errors.New("share cancelled")

// ErrFinished is returned by Open once the request has completed.
var ErrFinished = errors.New("request already finished")

type Status int

const (
	StatusPending Status = iota
	StatusCompleted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	}
	return "pending"
}

// Outcome is how a request finished.
type Outcome struct {
	Status Status
	// Err is the cancel reason.
	Err error
	// Opened lists the URLs the extension asked the host to open, in order.
	Opened []string
}

// Request is one invocation of the share extension. Only the first call to
// Complete or Cancel takes effect.
type Request struct {
	Targets []share.Target

	mu      sync.Mutex
	done    chan struct{}
	outcome Outcome
}

func NewRequest(targets []share.Target) *Request {
	return &Request{Targets: targets, done: make(chan struct{})}
}

// Open asks the host to open rawURL before the request completes.
func (r *Request) Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("open %q: not an absolute url", rawURL)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcome.Status != StatusPending {
		return ErrFinished
	}
	r.outcome.Opened = append(r.outcome.Opened, u.String())
	return nil
}

// Complete finishes the request successfully. It reports whether this call
// finished the request.
func (r *Request) Complete() bool {
	return r.finish(StatusCompleted, nil)
}

// Cancel finishes the request with reason, or ErrCancelled when reason is nil.
func (r *Request) Cancel(reason error) bool {
	if reason == nil {
		reason = ErrCancelled
	}
	return r.finish(StatusCancelled, reason)
}

func (r *Request) finish(s Status, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcome.Status != StatusPending {
		return false
	}
	r.outcome.Status = s
	r.outcome.Err = err
	close(r.done)
	return true
}

// Done is closed once the request finishes.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Outcome returns the current outcome. Status is StatusPending until the
// request finishes.
func (r *Request) Outcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.outcome
	out.Opened = append([]string(nil), r.outcome.Opened...)
	return out
}

// Wait blocks until the request finishes or ctx is done.
func (r *Request) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-r.done:
		return r.Outcome(), nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
