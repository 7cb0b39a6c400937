// Package config resolves the supervisor's start-up configuration from
// compiled-in defaults, environment variables, and CLI flags, in that
// priority order, grounded on original_source/src/heart.c's
// get_arguments/is_env_set/get_env.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/mcuadros/go-defaults"
)

// Config is the fully resolved, immutable configuration threaded into
// the supervisor state at start-up: one place that owns every mutable
// field, instead of re-reading the environment from inside the loop.
type Config struct {
	ProgramName    string `default:"heart"`
	ProgramVersion string `default:"dev"`

	HeartbeatTimeout int `default:"60"` // seconds, 11..65535

	InitHandshakeTimeout int `default:"0"` // 0 disables
	InitGraceTime        int `default:"0"` // 0..600

	KillPID   int
	NoKill    bool
	KillSig   syscall.Signal `default:"9"` // SIGKILL
	Verbosity int            // 0 emergencies-only, 1 errors, >=2 debug

	WatchdogPath          string `default:"/dev/watchdog0"`
	KernelTimeoutOverride int    // 0 = leave device default
}

const (
	minHeartbeatTimeout = 11
	maxHeartbeatTimeout = 65535
	maxInitGraceTime    = 600

	cliMinHT = 10 // strict: -ht must be > 10
	cliMaxHT = 65535
)

// Load resolves a Config from the process environment and argv, in
// that order — env first, then CLI flags override it, matching
// heart.c's own layering (env read in get_arguments before the getopt
// loop runs).
func Load(env func(string) (string, bool), args []string) Config {
	var cfg Config
	defaults.SetDefaults(&cfg)

	applyEnv(&cfg, env)
	applyArgs(&cfg, args)

	clamp(&cfg)
	return cfg
}

// FromOSEnviron is the production entry point: os.LookupEnv +
// os.Args[1:].
func FromOSEnviron() Config {
	return Load(os.LookupEnv, os.Args[1:])
}

func applyEnv(cfg *Config, env func(string) (string, bool)) {
	if v, ok := env("HEART_WATCHDOG_PATH"); ok && v != "" {
		cfg.WatchdogPath = v
	}
	if v, ok := env("HEART_KERNEL_TIMEOUT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.KernelTimeoutOverride = n
		}
	}
	if v, ok := env("HEART_INIT_TIMEOUT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.InitHandshakeTimeout = n
		}
	}
	if v, ok := env("HEART_INIT_GRACE_TIME"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.InitGraceTime = n
		}
	}
	if v, ok := env("HEART_KILL_SIGNAL"); ok && strings.EqualFold(v, "SIGABRT") {
		cfg.KillSig = syscall.SIGABRT
	}
	if v, ok := env("HEART_NO_KILL"); ok && strings.EqualFold(v, "TRUE") {
		cfg.NoKill = true
	}
	if v, ok := env("HEART_VERBOSE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Verbosity = n
		}
	}
}

// applyArgs is a deliberately small, tolerant scanner: it recognizes
// exactly "-ht <N>" and "-pid <N>" and silently ignores everything
// else, including malformed values for its own flags and any unknown
// flag. Neither flag.FlagSet, spf13/pflag, nor spf13/cobra can be
// configured to do this — all three treat an unrecognized flag as a
// usage error by default — so this stays on the standard library; see
// DESIGN.md's ledger entry for this package.
func applyArgs(cfg *Config, args []string) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-ht":
			if i+1 >= len(args) {
				continue
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				continue
			}
			if n > cliMinHT && n <= cliMaxHT {
				cfg.HeartbeatTimeout = n
			}
		case "-pid":
			if i+1 >= len(args) {
				continue
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				continue
			}
			cfg.KillPID = n
		}
	}
}

func clamp(cfg *Config) {
	if cfg.HeartbeatTimeout < minHeartbeatTimeout {
		cfg.HeartbeatTimeout = minHeartbeatTimeout
	}
	if cfg.HeartbeatTimeout > maxHeartbeatTimeout {
		cfg.HeartbeatTimeout = maxHeartbeatTimeout
	}

	if cfg.InitGraceTime < 0 {
		cfg.InitGraceTime = 0
	}
	if cfg.InitGraceTime > maxInitGraceTime {
		cfg.InitGraceTime = maxInitGraceTime
	}

	if cfg.InitHandshakeTimeout != 0 && cfg.InitHandshakeTimeout < cfg.InitGraceTime {
		cfg.InitHandshakeTimeout = cfg.InitGraceTime
	}
}

// String renders a one-line summary for start-up logging.
func (c Config) String() string {
	return fmt.Sprintf(
		"heartbeat_timeout=%d init_handshake_timeout=%d init_grace_time=%d kill_pid=%d no_kill=%t watchdog_path=%s",
		c.HeartbeatTimeout, c.InitHandshakeTimeout, c.InitGraceTime, c.KillPID, c.NoKill, c.WatchdogPath,
	)
}
