// Package config assembles and validates the application configuration. All
// behavior is driven by explicit configuration read from an optional env file
// and the process environment; the deployment surface (a cloud VM extension)
// passes no command-line arguments.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// Environment keys understood by the application. Process environment
// variables take precedence over values read from an env file.
const (
	KeySubnet        = "NFSUP_SUBNET"
	KeyPort          = "NFSUP_PORT"
	KeyWaitMode      = "NFSUP_WAIT_MODE"
	KeyFixedDelay    = "NFSUP_FIXED_DELAY"
	KeyPollTimeout   = "NFSUP_POLL_TIMEOUT"
	KeyPollInterval  = "NFSUP_POLL_INTERVAL"
	KeySettleDelay   = "NFSUP_SETTLE_DELAY"
	KeyMountBase     = "NFSUP_MOUNT_BASE"
	KeyMountOptions  = "NFSUP_MOUNT_OPTIONS"
	KeyMountPolicy   = "NFSUP_MOUNT_POLICY"
	KeyWorldWritable = "NFSUP_WORLD_WRITABLE"
	KeyWriteProbe    = "NFSUP_WRITE_PROBE"
	KeyLogDest       = "NFSUP_LOG_DEST"
	KeyLogFile       = "NFSUP_LOG_FILE"
)

// Readiness wait modes.
const (
	WaitModeFixed = "fixed"
	WaitModePoll  = "poll"
)

// Mount policies.
const (
	PolicyAll   = "all"
	PolicyFirst = "first"
)

// Log destinations.
const (
	LogDestStdout = "stdout"
	LogDestFile   = "file"
	LogDestBoth   = "both"
)

// Defaults for all optional configuration fields.
const (
	DefaultPort         = 2049
	DefaultWaitMode     = WaitModePoll
	DefaultFixedDelay   = 2 * time.Minute
	DefaultPollTimeout  = 10 * time.Minute
	DefaultPollInterval = 15 * time.Second
	DefaultSettleDelay  = 5 * time.Second
	DefaultMountBase    = "/mnt/nfs"
	DefaultMountOptions = "vers=3,proto=tcp,hard,rsize=1048576,wsize=1048576"
	DefaultMountPolicy  = PolicyAll
	DefaultLogDest      = LogDestBoth
	DefaultLogDir       = "/var/log"
)

// Config is the principal structure holding the application configuration.
type Config struct {
	Subnet        string        `validate:"required,cidr"`
	Port          int           `validate:"min=1,max=65535"`
	WaitMode      string        `validate:"oneof=fixed poll"`
	FixedDelay    time.Duration `validate:"min=0"`
	PollTimeout   time.Duration `validate:"min=0"`
	PollInterval  time.Duration `validate:"gt=0"`
	SettleDelay   time.Duration `validate:"min=0"`
	MountBase     string        `validate:"required"`
	MountOptions  string        `validate:"required"`
	MountPolicy   string        `validate:"oneof=all first"`
	WorldWritable bool
	WriteProbe    bool
	LogDest       string        `validate:"oneof=stdout file both"`
	LogFile       string        `validate:"required"`
}

type envFileProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
}

type osProvider interface {
	LookupEnv(key string) (string, bool)
}

// Handler is the principal implementation for configuration assembly.
type Handler struct {
	envHandler envFileProvider
	osHandler  osProvider
}

// NewHandler returns a pointer to a new configuration [Handler].
func NewHandler(envHandler envFileProvider, osHandler osProvider) *Handler {
	return &Handler{
		envHandler: envHandler,
		osHandler:  osHandler,
	}
}

// DefaultLogFile derives the default log file path from the invocation name,
// so each deployed name logs to its own deterministic file.
func DefaultLogFile(invocation string) string {
	return filepath.Join(DefaultLogDir, filepath.Base(invocation)+".log")
}

// Load assembles a [Config] from the given env file (skipped when empty) and
// the process environment, applies defaults and validates the result. A
// malformed configuration, including a set but unparsable value, is a fatal
// error for the whole run.
func (c *Handler) Load(envFile string, invocation string) (*Config, error) {
	envMap := map[string]string{}

	if envFile != "" {
		fileMap, err := c.envHandler.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("(config) %w", err)
		}
		envMap = fileMap
	}

	p := &parser{handler: c, envMap: envMap}

	cfg := &Config{
		Port:          p.intValue(KeyPort, DefaultPort),
		Subnet:        p.stringValue(KeySubnet, ""),
		WaitMode:      p.stringValue(KeyWaitMode, DefaultWaitMode),
		FixedDelay:    p.durationValue(KeyFixedDelay, DefaultFixedDelay),
		PollTimeout:   p.durationValue(KeyPollTimeout, DefaultPollTimeout),
		PollInterval:  p.durationValue(KeyPollInterval, DefaultPollInterval),
		SettleDelay:   p.durationValue(KeySettleDelay, DefaultSettleDelay),
		MountBase:     p.stringValue(KeyMountBase, DefaultMountBase),
		MountOptions:  p.stringValue(KeyMountOptions, DefaultMountOptions),
		MountPolicy:   p.stringValue(KeyMountPolicy, DefaultMountPolicy),
		WorldWritable: p.boolValue(KeyWorldWritable, true),
		WriteProbe:    p.boolValue(KeyWriteProbe, false),
		LogDest:       p.stringValue(KeyLogDest, DefaultLogDest),
		LogFile:       p.stringValue(KeyLogFile, DefaultLogFile(invocation)),
	}

	if p.err != nil {
		return nil, fmt.Errorf("(config) %w", p.err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("(config) %w", err)
	}

	return cfg, nil
}

// lookup resolves a key from the process environment first, falling back to
// the env file map.
func (c *Handler) lookup(envMap map[string]string, key string) (string, bool) {
	if value, exists := c.osHandler.LookupEnv(key); exists {
		return value, true
	}

	if value, exists := envMap[key]; exists {
		return value, true
	}

	return "", false
}

// parser resolves and coerces single keys against the combined sources,
// recording the first malformed value. Unset keys fall back to their
// defaults; a set but unparsable value is a configuration error, never a
// silent fallback.
type parser struct {
	handler *Handler
	envMap  map[string]string
	err     error
}

func (p *parser) fail(key string, value string, kind string) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s: %q is not a valid %s",
			ErrInvalidConfiguration, key, value, kind)
	}
}

func (p *parser) stringValue(key string, fallback string) string {
	if value, exists := p.handler.lookup(p.envMap, key); exists && value != "" {
		return value
	}

	return fallback
}

func (p *parser) intValue(key string, fallback int) int {
	value, exists := p.handler.lookup(p.envMap, key)
	if !exists || value == "" {
		return fallback
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, "number")

		return fallback
	}

	return intValue
}

func (p *parser) durationValue(key string, fallback time.Duration) time.Duration {
	value, exists := p.handler.lookup(p.envMap, key)
	if !exists || value == "" {
		return fallback
	}

	// Bare numbers are read as minutes, matching the original deployment
	// configuration; anything else must be a parsable duration string.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	durValue, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, "duration")

		return fallback
	}

	return durValue
}

func (p *parser) boolValue(key string, fallback bool) bool {
	value, exists := p.handler.lookup(p.envMap, key)
	if !exists || value == "" {
		return fallback
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, "boolean")

		return fallback
	}

	return boolValue
}
