package log

import "github.com/arnavsurve/adblogs/pkg/types"

// RegionField is the structured field that carries the active log region.
const RegionField = "region"

// BeginRegion opens a named log region and returns a logger scoped to it
// together with the func that closes the region. An empty name returns the
// logger unchanged and a no-op end func.
func BeginRegion(logger types.Logger, name string) (types.Logger, func()) {
	if name == "" {
		return logger, func() {}
	}

	scoped := logger.With().Str(RegionField, name).Logger()
	scoped.Debug().Msg("Begin region")
	return scoped, func() {
		scoped.Debug().Msg("End region")
	}
}
