// Package config loads agent settings from YAML, environment and flags.
//
// Precedence, lowest first: built-in defaults, the YAML file, PAC_*
// environment variables, explicit command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	TransportStdio      = "stdio"
	TransportWebSocket  = "websocket"
	TransportTranscript = "transcript"
)

type Config struct {
	Transport Transport `yaml:"transport"`
	Record    Record    `yaml:"record"`
	Log       Log       `yaml:"log"`
	Agent     Agent     `yaml:"agent"`
}

type Transport struct {
	// Kind is one of stdio, websocket or transcript.
	Kind string `yaml:"kind"`
	// URL is the referee endpoint for the websocket transport.
	URL string `yaml:"url"`
	// Transcript is the zstd input transcript replayed by the transcript transport.
	Transcript string `yaml:"transcript"`
}

type Record struct {
	// Dir receives one parquet file per game. Empty disables recording.
	Dir string `yaml:"dir"`
	// Index is the sqlite database listing recorded games.
	Index string `yaml:"index"`
	// Transcript, when set, captures raw input lines to a zstd file.
	Transcript string `yaml:"transcript"`
}

type Log struct {
	Level  string `yaml:"level"`
	Indent bool   `yaml:"indent"`
}

type Agent struct {
	Annotate bool `yaml:"annotate"`
}

func Default() Config {
	return Config{
		Transport: Transport{Kind: TransportStdio},
		Log:       Log{Level: "info"},
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Environment variable names understood by ApplyEnv.
const (
	EnvConfig     = "PAC_CONFIG"
	EnvTransport  = "PAC_TRANSPORT"
	EnvURL        = "PAC_WS_URL"
	EnvInput      = "PAC_INPUT_TRANSCRIPT"
	EnvRecordDir  = "PAC_RECORD_DIR"
	EnvIndex      = "PAC_INDEX"
	EnvTranscript = "PAC_TRANSCRIPT"
	EnvLogLevel   = "PAC_LOG_LEVEL"
	EnvAnnotate   = "PAC_ANNOTATE"
)

// ApplyEnv overrides fields whose PAC_* variable is set and non-empty.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	setString(EnvTransport, &c.Transport.Kind)
	setString(EnvURL, &c.Transport.URL)
	setString(EnvInput, &c.Transport.Transcript)
	setString(EnvRecordDir, &c.Record.Dir)
	setString(EnvIndex, &c.Record.Index)
	setString(EnvTranscript, &c.Record.Transcript)
	setString(EnvLogLevel, &c.Log.Level)
	if v := getenv(EnvAnnotate); v != "" {
		c.Agent.Annotate = parseBool(v)
	}
}

func parseBool(v string) bool {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v == "yes" || v == "on"
}

var ErrInvalid = errors.New("invalid config")

func (c Config) Validate() error {
	switch c.Transport.Kind {
	case TransportStdio:
	case TransportWebSocket:
		if c.Transport.URL == "" {
			return fmt.Errorf("%w: websocket transport needs a url", ErrInvalid)
		}
	case TransportTranscript:
		if c.Transport.Transcript == "" {
			return fmt.Errorf("%w: transcript transport needs a transcript path", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalid, c.Transport.Kind)
	}
	if c.Record.Index != "" && c.Record.Dir == "" {
		return fmt.Errorf("%w: record index set without record dir", ErrInvalid)
	}
	return nil
}
