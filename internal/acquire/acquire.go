// Package acquire runs one acquisition attempt: the primary client first,
// then the fallback client when the primary failed for an authentication
// reason. Outcomes are reported to the session manager for health tracking.
package acquire

import (
	"context"
	"fmt"

	"github.com/warpdl/parkdl/common"
	"github.com/warpdl/parkdl/internal/entity"
	"github.com/warpdl/parkdl/internal/upstream"
	"github.com/warpdl/parkdl/pkg/logger"
)

// Source is a data client.
type Source interface {
	Name() string
	Fetch(ctx context.Context, kind entity.Kind, dest common.Destination, parkID string) ([]entity.Entity, error)
}

// HealthReporter receives the outcome of each primary attempt.
type HealthReporter interface {
	ReportSuccess(ctx context.Context, dest common.Destination) error
	ReportError(ctx context.Context, dest common.Destination, cause error) error
}

// Options tune an Orchestrator.
type Options struct {
	// FallbackOnAnyError also falls back on non-auth primary failures.
	// When false those failures are returned to the caller.
	FallbackOnAnyError bool
	// OnTransition, when set, sees every state an attempt enters.
	OnTransition func(dest common.Destination, kind entity.Kind, s State)
}

// Result is the output of Fetch.
type Result struct {
	Entities []entity.Entity
	// Source names the client that produced Entities.
	Source string
	State  State
	// PrimaryErr is the primary failure that led to fallback, if any.
	PrimaryErr error
}

type Orchestrator struct {
	primary  Source
	fallback Source
	health   HealthReporter
	opts     Options
	l        logger.Logger
}

func NewOrchestrator(primary, fallback Source, health HealthReporter, opts Options, l logger.Logger) *Orchestrator {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Orchestrator{
		primary:  primary,
		fallback: fallback,
		health:   health,
		opts:     opts,
		l:        l,
	}
}

// Fetch acquires entities of kind for dest. Auth-classified primary
// failures fall back; other primary failures are returned unless
// FallbackOnAnyError is set. The returned Result is populated on error too,
// with State telling where the attempt stopped.
func (o *Orchestrator) Fetch(ctx context.Context, kind entity.Kind, dest common.Destination, parkID string) (Result, error) {
	var res Result
	enter := func(st State) {
		res.State = st
		if o.opts.OnTransition != nil {
			o.opts.OnTransition(dest, kind, st)
		}
	}

	enter(StatePrimaryInFlight)
	ents, err := o.primary.Fetch(ctx, kind, dest, parkID)
	if err == nil {
		o.reportSuccess(ctx, dest)
		res.Entities = ents
		res.Source = o.primary.Name()
		enter(StatePrimarySucceeded)
		return res, nil
	}
	res.PrimaryErr = err

	auth := upstream.IsAuthFailure(err)
	if (!auth && !o.opts.FallbackOnAnyError) || ctx.Err() != nil {
		enter(StatePrimaryOtherFailed)
		return res, err
	}

	o.reportError(ctx, dest, err)
	if auth {
		enter(StatePrimaryAuthFailed)
		o.l.Warning("acquire: %s %s: primary auth failed, using %s: %v", dest, kind.Plural(), o.fallback.Name(), err)
	} else {
		o.l.Warning("acquire: %s %s: primary failed, using %s: %v", dest, kind.Plural(), o.fallback.Name(), err)
	}

	enter(StateFallbackInFlight)
	ents, ferr := o.fallback.Fetch(ctx, kind, dest, parkID)
	if ferr != nil {
		enter(StateFallbackFailed)
		return res, &FallbackError{Primary: err, Fallback: ferr}
	}
	res.Entities = ents
	res.Source = o.fallback.Name()
	enter(StateFallbackSucceeded)
	return res, nil
}

// Health writes never change the fetch outcome.
func (o *Orchestrator) reportSuccess(ctx context.Context, dest common.Destination) {
	if o.health == nil {
		return
	}
	if err := o.health.ReportSuccess(ctx, dest); err != nil {
		o.l.Warning("acquire: %s: failed to record success: %v", dest, err)
	}
}

func (o *Orchestrator) reportError(ctx context.Context, dest common.Destination, cause error) {
	if o.health == nil {
		return
	}
	if err := o.health.ReportError(ctx, dest, cause); err != nil {
		o.l.Warning("acquire: %s: failed to record error: %v", dest, err)
	}
}

// FallbackError is returned when both clients failed.
type FallbackError struct {
	Primary  error
	Fallback error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("fallback failed: %v (primary: %v)", e.Fallback, e.Primary)
}

// Unwrap exposes both causes to errors.Is and errors.As.
func (e *FallbackError) Unwrap() []error {
	return []error{e.Fallback, e.Primary}
}
