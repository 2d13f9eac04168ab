package navier_stokes

import (
	"fmt"

	"github.com/notargets/vcflow/limiters"
	"github.com/notargets/vcflow/types"
)

// Config holds the operator options as they appear in input files. Empty
// values take the defaults: CONSTANT extrapolation, UPWIND limiters and
// FORWARD_EULER time stepping. ConvectiveLimiter sets both limiters and is
// overridden by the field specific entries.
type Config struct {
	BdryExtrapType            string `json:"bdry_extrap_type,omitempty" mapstructure:"bdry_extrap_type"`
	ConvectiveLimiter         string `json:"convective_limiter,omitempty" mapstructure:"convective_limiter"`
	VelocityConvectiveLimiter string `json:"velocity_convective_limiter,omitempty" mapstructure:"velocity_convective_limiter"`
	DensityConvectiveLimiter  string `json:"density_convective_limiter,omitempty" mapstructure:"density_convective_limiter"`
	DensityTimeSteppingType   string `json:"density_time_stepping_type,omitempty" mapstructure:"density_time_stepping_type"`
}

func DefaultConfig() Config {
	return Config{
		BdryExtrapType:          "CONSTANT",
		ConvectiveLimiter:       "UPWIND",
		DensityTimeSteppingType: "FORWARD_EULER",
	}
}

// operatorOptions are the resolved values of a Config.
type operatorOptions struct {
	bdryExtrap      types.BdryExtrapType
	velocityLimiter types.LimiterType
	densityLimiter  types.LimiterType
	timeStepping    types.TimeSteppingType
	velocityGhost   int
	densityGhost    int
}

func (cfg Config) resolve() (opts operatorOptions, err error) {
	const op = "resolve config"
	var (
		extrap = "CONSTANT"
		vel    = "UPWIND"
		dens   = "UPWIND"
		ts     = "FORWARD_EULER"
	)
	if cfg.BdryExtrapType != "" {
		extrap = cfg.BdryExtrapType
	}
	if cfg.ConvectiveLimiter != "" {
		vel, dens = cfg.ConvectiveLimiter, cfg.ConvectiveLimiter
	}
	if cfg.VelocityConvectiveLimiter != "" {
		vel = cfg.VelocityConvectiveLimiter
	}
	if cfg.DensityConvectiveLimiter != "" {
		dens = cfg.DensityConvectiveLimiter
	}
	if cfg.DensityTimeSteppingType != "" {
		ts = cfg.DensityTimeSteppingType
	}
	var e error
	if opts.bdryExtrap, e = types.ParseBdryExtrapType(extrap); e != nil {
		return opts, configErr(op, e, "bdry_extrap_type")
	}
	if opts.velocityLimiter, e = types.ParseLimiterType(vel); e != nil {
		return opts, configErr(op, e, "velocity_convective_limiter")
	}
	if opts.densityLimiter, e = types.ParseLimiterType(dens); e != nil {
		return opts, configErr(op, e, "density_convective_limiter")
	}
	if opts.timeStepping, e = types.ParseTimeSteppingType(ts); e != nil {
		return opts, configErr(op, e, "density_time_stepping_type")
	}
	if opts.velocityGhost, e = limiters.GhostWidth(opts.velocityLimiter); e != nil {
		return opts, configErr(op, e, "velocity limiter ghost width")
	}
	if opts.densityGhost, e = limiters.GhostWidth(opts.densityLimiter); e != nil {
		return opts, configErr(op, e, "density limiter ghost width")
	}
	return
}

func (opts operatorOptions) String() string {
	return fmt.Sprintf("velocity limiter %s (ghosts %d), density limiter %s (ghosts %d), %s, extrapolation %s",
		opts.velocityLimiter, opts.velocityGhost, opts.densityLimiter, opts.densityGhost,
		opts.timeStepping, opts.bdryExtrap)
}
