package bench

import (
	"context"
	"math"

	"github.com/HatiCode/tanklevels/pkg/api"
	"github.com/HatiCode/tanklevels/pkg/tank"
)

// Local runs checks in process through the engine registry.
type Local struct {
	Options []tank.Option
}

func (l Local) Prepare(_ context.Context, c Case, samples []tank.Sample) (Check, error) {
	tk, err := tank.New(c.Engine, c.MinLevel, c.MaxLevel, l.Options...)
	if err != nil {
		return nil, err
	}
	return func(_ context.Context, req tank.Request) (tank.Outcome, error) {
		return tk.CheckOperation(req.EarliestStart, req.Duration, req.Quantity, samples)
	}, nil
}

// Checker is the slice of a tankd client a Remote target needs. Both
// client.TankClient and client.GRPCClient satisfy it.
type Checker interface {
	CheckOperation(ctx context.Context, req api.CheckRequest) (api.CheckResponse, error)
}

// Remote sends every check to a running tankd. Infinite limits are left unset and
// fall back to the server defaults. Checks bypass the tankd outcome cache so repeated
// iterations time the engine rather than cache hits.
type Remote struct {
	Client Checker
}

func (r Remote) Prepare(_ context.Context, c Case, samples []tank.Sample) (Check, error) {
	limits := api.Limits{}
	if !math.IsInf(c.MinLevel, 0) {
		limits.MinLevel = &c.MinLevel
	}
	if !math.IsInf(c.MaxLevel, 0) {
		limits.MaxLevel = &c.MaxLevel
	}

	return func(ctx context.Context, req tank.Request) (tank.Outcome, error) {
		resp, err := r.Client.CheckOperation(ctx, api.CheckRequest{
			Engine: c.Engine,
			Limits: limits,
			Operation: api.Operation{
				EarliestStart: req.EarliestStart,
				Duration:      api.Duration(req.Duration),
				Quantity:      req.Quantity,
			},
			Samples: samples,
			NoCache: true,
		})
		if err != nil {
			return tank.Outcome{}, err
		}
		return resp.Outcome(), nil
	}, nil
}
