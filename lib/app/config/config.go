package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"docdrop/lib/namenorm"
)

// Duration is time.Duration written as "15m" in config.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	x, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(x)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

type HTTPCfg struct {
	Bind           string   `toml:"bind"`
	ReadTimeout    Duration `toml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout"`
	IdleTimeout    Duration `toml:"idle_timeout"`
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
	JSONIndent     string   `toml:"json_indent"`
}

type StorageCfg struct {
	UploadDir string   `toml:"upload_dir"`
	StateDir  string   `toml:"state_dir"`
	HashLog   string   `toml:"hash_log"` // relative to state_dir unless absolute
	Hash      string   `toml:"hash"`     // sha256, blake2b, blake3 or auto
	Sync      bool     `toml:"sync"`
	Ignore    []string `toml:"ignore"`
	Backend   string   `toml:"backend"` // file or psql
}

type NamesCfg struct {
	Marker     string `toml:"marker"`
	DefaultExt string `toml:"default_ext"`
}

type ChallengeCfg struct {
	TokenKey      string   `toml:"token_key"` // empty disables tokens
	TokenTTL      Duration `toml:"token_ttl"`
	Timezone      string   `toml:"timezone"` // "" is UTC, "Local" is system zone
	AcceptAnyWord bool     `toml:"accept_any_word"`
}

type PSQLCfg struct {
	ConnStr         string  `toml:"connstr"`
	Trace           bool    `toml:"trace"`
	ConnMaxLifetime float64 `toml:"conn_max_lifetime"`
	MaxIdleConns    int32   `toml:"max_idle_conns"`
	MaxOpenConns    int32   `toml:"max_open_conns"`
}

type RateLimitCfg struct {
	UploadsPerMinute float64 `toml:"uploads_per_minute"` // 0 disables
	Burst            int     `toml:"burst"`
}

type LogCfg struct {
	Level string `toml:"level"`
	Color string `toml:"color"`
}

type Config struct {
	HTTP      HTTPCfg      `toml:"http"`
	Storage   StorageCfg   `toml:"storage"`
	Names     NamesCfg     `toml:"names"`
	Challenge ChallengeCfg `toml:"challenge"`
	PSQL      PSQLCfg      `toml:"psql"`
	RateLimit RateLimitCfg `toml:"ratelimit"`
	Log       LogCfg       `toml:"log"`
}

const (
	BackendFile = "file"
	BackendPSQL = "psql"
)

var Default = Config{
	HTTP: HTTPCfg{
		Bind:           "127.0.0.1:5000",
		ReadTimeout:    Duration(5 * time.Minute),
		WriteTimeout:   Duration(5 * time.Minute),
		IdleTimeout:    Duration(2 * time.Minute),
		MaxUploadBytes: 512 << 20,
	},
	Storage: StorageCfg{
		UploadDir: "static/uploads",
		StateDir:  "static",
		HashLog:   "file_hashes.txt",
		Hash:      "sha256",
		Sync:      true,
		Ignore:    []string{".*"},
		Backend:   BackendFile,
	},
	Names: NamesCfg{
		Marker:     namenorm.DefaultMarker,
		DefaultExt: namenorm.DefaultExt,
	},
	Challenge: ChallengeCfg{
		TokenTTL: Duration(15 * time.Minute),
	},
	RateLimit: RateLimitCfg{
		UploadsPerMinute: 20,
		Burst:            5,
	},
	Log: LogCfg{
		Level: "info",
		Color: "auto",
	},
}

// Clone returns deep copy so Default stays untouched.
func (c Config) Clone() Config {
	c.Storage.Ignore = append([]string(nil), c.Storage.Ignore...)
	return c
}

// Decode parses TOML text over copy of Default.
// Unknown keys are reported in undecoded.
func Decode(s string) (c Config, undecoded []string, err error) {
	c = Default.Clone()
	md, err := toml.Decode(s, &c)
	if err != nil {
		return Config{}, nil, fmt.Errorf("config: %w", err)
	}
	for _, k := range md.Undecoded() {
		undecoded = append(undecoded, k.String())
	}
	return c, undecoded, c.Validate()
}

// Load reads TOML file over copy of Default.
func Load(fname string) (c Config, undecoded []string, err error) {
	c = Default.Clone()
	md, err := toml.DecodeFile(fname, &c)
	if err != nil {
		return Config{}, nil, fmt.Errorf("config %s: %w", fname, err)
	}
	for _, k := range md.Undecoded() {
		undecoded = append(undecoded, k.String())
	}
	return c, undecoded, c.Validate()
}

func (c *Config) Validate() error {
	if c.Storage.UploadDir == "" {
		return errors.New("config: storage.upload_dir is empty")
	}
	if c.Storage.StateDir == "" {
		return errors.New("config: storage.state_dir is empty")
	}
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.HashLog == "" {
			return errors.New("config: storage.hash_log is empty")
		}
	case BackendPSQL:
		if c.PSQL.ConnStr == "" {
			return errors.New("config: psql backend needs psql.connstr")
		}
	default:
		return fmt.Errorf("config: unknown storage.backend %q", c.Storage.Backend)
	}
	if k := c.Challenge.TokenKey; k != "" && len(k) < 16 {
		return errors.New("config: challenge.token_key must be at least 16 bytes")
	}
	if c.Challenge.TokenTTL <= 0 {
		return errors.New("config: challenge.token_ttl must be positive")
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		return errors.New("config: http.max_upload_bytes must be positive")
	}
	if strings.ContainsAny(c.Names.DefaultExt, `/\`) {
		return fmt.Errorf("config: bad names.default_ext %q", c.Names.DefaultExt)
	}
	return nil
}

// HashLogPath resolves hash log location.
func (c *Config) HashLogPath() string {
	if filepath.IsAbs(c.Storage.HashLog) {
		return c.Storage.HashLog
	}
	return filepath.Join(c.Storage.StateDir, c.Storage.HashLog)
}

func (c *Config) Normalizer() namenorm.Normalizer {
	return namenorm.Normalizer{
		Marker:     c.Names.Marker,
		DefaultExt: c.Names.DefaultExt,
	}
}
