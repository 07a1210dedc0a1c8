package usecase

import (
	"context"

	"github.com/shoplens/backend/internal/logging"
)

// RequestState is the lifecycle position of one identify or search request
type RequestState int

const (
	StateReceivedInput RequestState = iota
	StateSignalsCollected
	StateIdentitiesFused
	StateSourcesQueried
	StateDeduplicated
	StateAnalyzed
	StateResponded
	StateFailed
)

var requestStateNames = [...]string{
	StateReceivedInput:    "ReceivedInput",
	StateSignalsCollected: "SignalsCollected",
	StateIdentitiesFused:  "IdentitiesFused",
	StateSourcesQueried:   "SourcesQueried",
	StateDeduplicated:     "Deduplicated",
	StateAnalyzed:         "Analyzed",
	StateResponded:        "Responded",
	StateFailed:           "Failed",
}

func (s RequestState) String() string {
	if s < 0 || int(s) >= len(requestStateNames) {
		return "Unknown"
	}
	return requestStateNames[s]
}

// Terminal reports whether no further transition is allowed
func (s RequestState) Terminal() bool {
	return s == StateResponded || s == StateFailed
}

// requestFlow tracks one request through its states. Transitions only move
// forward; Failed is reachable only from ReceivedInput.
type requestFlow struct {
	ctx   context.Context
	name  string
	state RequestState
}

func newRequestFlow(ctx context.Context, name string) *requestFlow {
	f := &requestFlow{ctx: ctx, name: name, state: StateReceivedInput}
	logging.Ctx(ctx).Debug().Str("flow", name).Stringer("state", f.state).Msg("request received")
	return f
}

// advance moves to next if it is a forward, non-failure transition
func (f *requestFlow) advance(next RequestState) {
	if f.state.Terminal() || next <= f.state || next == StateFailed {
		return
	}
	logging.Ctx(f.ctx).Debug().
		Str("flow", f.name).
		Stringer("from", f.state).
		Stringer("to", next).
		Msg("request state transition")
	f.state = next
}

// fail marks the request failed and returns err unchanged
func (f *requestFlow) fail(err error) error {
	if f.state == StateReceivedInput {
		logging.Ctx(f.ctx).Debug().Str("flow", f.name).Err(err).Msg("request rejected")
		f.state = StateFailed
	}
	return err
}
