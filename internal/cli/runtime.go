package cli

import (
	"context"

	"github.com/ppiankov/sieve/internal/model"
	"github.com/ppiankov/sieve/internal/service"
)

// openRuntime loads the configuration and assembles the service over it
func openRuntime(ctx context.Context) (*service.Runtime, *model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	rt, err := service.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return rt, cfg, nil
}

// parseObservations parses name=value arguments in order
func parseObservations(args []string) ([]model.Observation, error) {
	out := make([]model.Observation, 0, len(args))
	for _, a := range args {
		obs, err := model.ParseObservation(a)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, nil
}
