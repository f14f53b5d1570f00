// Package config resolves the CLI's flags, layered with environment
// variable overrides, into the values the solver façade and the CLI's
// own logger need: a time limit, a branch seed, the direct-solve switch,
// and a log level.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Flags holds the raw values cobra bound to the solve subcommand's flags,
// before environment overrides are applied.
type Flags struct {
	TimeLimit  time.Duration
	BranchSeed int64
	Direct     bool
	LogLevel   string
}

// Resolved is what the CLI needs to actually run a solve: the façade
// options it should pass to officesched.Solve, plus the logger to use
// for everything else.
type Resolved struct {
	TimeLimit  time.Duration
	BranchSeed int64
	Direct     bool
	Log        *slog.Logger
}

// Environment variables that override their corresponding flag when set,
// following the teacher's env-override-wins-over-flag-default convention
// (_examples/steveyegge-beads/internal/config/local_config.go's
// BEADS_SYNC_BRANCH).
const (
	envTimeLimit  = "OFFICESCHED_TIME_LIMIT"
	envBranchSeed = "OFFICESCHED_BRANCH_SEED"
	envDirect     = "OFFICESCHED_DIRECT"
	envLogLevel   = "OFFICESCHED_LOG_LEVEL"
)

// Resolve applies environment overrides to f and builds the logger, so
// the CLI layer has one place to go from "what the user typed" to "what
// the solver needs" rather than doing it inline per flag.
func Resolve(f Flags) Resolved {
	r := Resolved{
		TimeLimit:  f.TimeLimit,
		BranchSeed: f.BranchSeed,
		Direct:     f.Direct,
	}

	if v := os.Getenv(envTimeLimit); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			r.TimeLimit = d
		}
	}
	if v := os.Getenv(envBranchSeed); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			r.BranchSeed = seed
		}
	}
	if v := os.Getenv(envDirect); v != "" {
		if direct, err := strconv.ParseBool(v); err == nil {
			r.Direct = direct
		}
	}

	level := f.LogLevel
	if v := os.Getenv(envLogLevel); v != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(v)); err == nil {
			level = v
		}
	}
	r.Log = newLogger(level)

	return r
}

// newLogger builds a slog.Logger writing to stderr at the given level,
// falling back to info on an unrecognized level string.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	return slog.New(handler)
}
