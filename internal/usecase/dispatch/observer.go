package dispatch

import (
	"context"
	"time"

	"pladderBot/internal/domain"
)

type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeFuseJustBlown Outcome = "fuse_just_blown"
	OutcomeFuseBlown     Outcome = "fuse_blown"
	OutcomeUsage         Outcome = "usage"
	OutcomeScriptError   Outcome = "script_error"
	OutcomeRecursion     Outcome = "recursion"
	OutcomeInternal      Outcome = "internal"
	OutcomeFilterFailed  Outcome = "filter_failed"
)

// Event se emite una vez por RunCommand, con el resultado final.
type Event struct {
	Message  domain.Message
	Result   domain.Result
	Outcome  Outcome
	Duration time.Duration
}

type Observer interface {
	Observe(ctx context.Context, ev Event)
}

type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) {
	f(ctx, ev)
}
