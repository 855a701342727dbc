package config

import (
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/stellar/go/network"
	"gopkg.in/yaml.v3"
)

const (
	// StandalonePassphrase is the passphrase of a local quickstart node.
	StandalonePassphrase = "Standalone Network ; February 2017"

	DefaultConfigPath   = "fula.yaml"
	DefaultArtifactsDir = "artifacts"
	TokenArtifactName   = "fula_token"
	ProxyArtifactName   = "fula_proxy"
)

// Config holds the process-wide deployer configuration.
// It is built once in main and passed by reference into every component.
type Config struct {
	// Name of the network profile used when FULA_NETWORK is not set
	DefaultNetwork string

	// Named network profiles
	Networks map[string]Network

	Artifacts ArtifactsConfig
	Token     TokenConfig

	// debug, info, warn or error
	LogLevel string

	// Optional deployment journal ( empty disables it )
	DatabaseURL string

	// Optional Prometheus textfile written at the end of a run
	MetricsTextfile string

	// Port of the registry HTTP server
	RegistryPort int

	// Upper bound for a single pipeline step, including inclusion wait
	StepTimeout time.Duration
}

// Network is a named chain profile.
type Network struct {
	Name       string
	Endpoint   string
	Passphrase string

	// Maximum resource fee ( stroops ) one transaction may pay
	GasLimit int64

	// Secret seeds, BIP-39 mnemonics or //root dev accounts
	Accounts []string

	// RPC requests per second, 0 disables limiting
	RateLimit float64

	InclusionTimeout time.Duration
	PollInterval     time.Duration
	PollMaxInterval  time.Duration
}

// ArtifactsConfig locates compiled contract binaries.
type ArtifactsConfig struct {
	Dir   string
	Token string
	Proxy string
}

// TokenConfig carries the initial-state parameters passed to initialize.
type TokenConfig struct {
	// Whole tokens as a decimal string
	InitialSupply string
	Decimals      uint32
}

type fileConfig struct {
	DefaultNetwork  string                 `yaml:"defaultNetwork"`
	Networks        map[string]fileNetwork `yaml:"networks"`
	Artifacts       fileArtifacts          `yaml:"artifacts"`
	Token           fileToken              `yaml:"token"`
	LogLevel        string                 `yaml:"logLevel"`
	DatabaseURL     string                 `yaml:"databaseURL"`
	MetricsTextfile string                 `yaml:"metricsTextfile"`
	RegistryPort    int                    `yaml:"registryPort"`
	StepTimeout     time.Duration          `yaml:"stepTimeout"`
}

type fileNetwork struct {
	Endpoint         string        `yaml:"endpoint"`
	Passphrase       string        `yaml:"passphrase"`
	GasLimit         int64         `yaml:"gasLimit"`
	Accounts         []string      `yaml:"accounts"`
	RateLimit        float64       `yaml:"rateLimit"`
	InclusionTimeout time.Duration `yaml:"inclusionTimeout"`
	PollInterval     time.Duration `yaml:"pollInterval"`
	PollMaxInterval  time.Duration `yaml:"pollMaxInterval"`
}

type fileArtifacts struct {
	Dir   string `yaml:"dir"`
	Token string `yaml:"token"`
	Proxy string `yaml:"proxy"`
}

type fileToken struct {
	InitialSupply string  `yaml:"initialSupply"`
	Decimals      *uint32 `yaml:"decimals"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		DefaultNetwork: "development",
		Networks: map[string]Network{
			"development": {
				Name:             "development",
				Endpoint:         "http://localhost:8000/soroban/rpc",
				Passphrase:       StandalonePassphrase,
				GasLimit:         100_000_000,
				Accounts:         []string{"//root", "//root/1", "//root/2"},
				InclusionTimeout: 60 * time.Second,
				PollInterval:     500 * time.Millisecond,
				PollMaxInterval:  5 * time.Second,
			},
			"testnet": {
				Name:             "testnet",
				Endpoint:         "https://soroban-testnet.stellar.org",
				Passphrase:       network.TestNetworkPassphrase,
				GasLimit:         100_000_000,
				Accounts:         []string{"${FULA_DEPLOYER_MNEMONIC}", "${FULA_ACTOR_SEED_1}", "${FULA_ACTOR_SEED_2}"},
				RateLimit:        5,
				InclusionTimeout: 90 * time.Second,
				PollInterval:     time.Second,
				PollMaxInterval:  10 * time.Second,
			},
		},
		Artifacts: ArtifactsConfig{
			Dir:   DefaultArtifactsDir,
			Token: TokenArtifactName,
			Proxy: ProxyArtifactName,
		},
		Token: TokenConfig{
			InitialSupply: "1000000",
			Decimals:      18,
		},
		LogLevel:     "info",
		RegistryPort: 8090,
		StepTimeout:  3 * time.Minute,
	}
}

// Load reads the YAML configuration at path ( FULA_CONFIG or fula.yaml when empty ),
// merges it over the defaults and applies environment overrides.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("FULA_CONFIG")
	}
	explicit := path != ""
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var parsed fileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, &ConfigurationError{Field: path, Reason: "invalid yaml", Err: err}
		}
		Merge(cfg, parsed)
	case explicit || !os.IsNotExist(err):
		return nil, &ConfigurationError{Field: path, Reason: "cannot read config file", Err: err}
	}

	ApplyEnvOverrides(cfg)
	return cfg, nil
}

// Merge copies every field set in the file over dst. A network declared in the
// file replaces the built-in profile of the same name.
func Merge(dst *Config, src fileConfig) {
	if src.DefaultNetwork != "" {
		dst.DefaultNetwork = src.DefaultNetwork
	}
	for name, n := range src.Networks {
		dst.Networks[name] = mergeNetwork(name, n)
	}
	if src.Artifacts.Dir != "" {
		dst.Artifacts.Dir = src.Artifacts.Dir
	}
	if src.Artifacts.Token != "" {
		dst.Artifacts.Token = src.Artifacts.Token
	}
	if src.Artifacts.Proxy != "" {
		dst.Artifacts.Proxy = src.Artifacts.Proxy
	}
	if src.Token.InitialSupply != "" {
		dst.Token.InitialSupply = src.Token.InitialSupply
	}
	if src.Token.Decimals != nil {
		dst.Token.Decimals = *src.Token.Decimals
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.DatabaseURL != "" {
		dst.DatabaseURL = src.DatabaseURL
	}
	if src.MetricsTextfile != "" {
		dst.MetricsTextfile = src.MetricsTextfile
	}
	if src.RegistryPort != 0 {
		dst.RegistryPort = src.RegistryPort
	}
	if src.StepTimeout != 0 {
		dst.StepTimeout = src.StepTimeout
	}
}

func mergeNetwork(name string, src fileNetwork) Network {
	n := Network{
		Name:             name,
		Endpoint:         src.Endpoint,
		Passphrase:       src.Passphrase,
		GasLimit:         src.GasLimit,
		Accounts:         src.Accounts,
		RateLimit:        src.RateLimit,
		InclusionTimeout: src.InclusionTimeout,
		PollInterval:     src.PollInterval,
		PollMaxInterval:  src.PollMaxInterval,
	}
	if n.InclusionTimeout == 0 {
		n.InclusionTimeout = 60 * time.Second
	}
	if n.PollInterval == 0 {
		n.PollInterval = time.Second
	}
	if n.PollMaxInterval == 0 {
		n.PollMaxInterval = 10 * time.Second
	}
	return n
}

// ApplyEnvOverrides applies the documented environment variables.
func ApplyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("FULA_NETWORK")); v != "" {
		cfg.DefaultNetwork = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("FULA_METRICS_TEXTFILE")); v != "" {
		cfg.MetricsTextfile = v
	}
	cfg.RegistryPort = getEnvAsInt("REGISTRY_PORT", cfg.RegistryPort)
}

// Validate checks the configuration and the active network profile.
func (c *Config) Validate() error {
	if _, err := c.ActiveNetwork(); err != nil {
		return err
	}
	if c.Artifacts.Dir == "" {
		return newConfigError("artifacts.dir", "is required")
	}
	if _, err := c.InitialSupply(); err != nil {
		return err
	}
	if c.StepTimeout <= 0 {
		return newConfigError("stepTimeout", "must be positive")
	}
	return nil
}

// ActiveNetwork returns the selected network profile with accounts expanded
// from the environment. Accounts that expand to nothing are dropped.
func (c *Config) ActiveNetwork() (Network, error) {
	name := c.DefaultNetwork
	if name == "" {
		return Network{}, newConfigError("defaultNetwork", "is required")
	}
	n, ok := c.Networks[name]
	if !ok {
		return Network{}, newConfigError("networks."+name, "unknown network")
	}
	n.Name = name
	if n.Endpoint == "" {
		return Network{}, newConfigError("networks."+name+".endpoint", "is required")
	}
	if n.Passphrase == "" {
		return Network{}, newConfigError("networks."+name+".passphrase", "is required")
	}
	if n.GasLimit <= 0 {
		return Network{}, newConfigError("networks."+name+".gasLimit", "must be positive")
	}

	accounts := make([]string, 0, len(n.Accounts))
	for _, raw := range n.Accounts {
		if expanded := strings.TrimSpace(os.ExpandEnv(raw)); expanded != "" {
			accounts = append(accounts, expanded)
		}
	}
	n.Accounts = accounts
	return n, nil
}

// InitialSupply returns initialSupply × 10^decimals in base units.
func (c *Config) InitialSupply() (*big.Int, error) {
	whole, ok := new(big.Int).SetString(strings.ReplaceAll(c.Token.InitialSupply, "_", ""), 10)
	if !ok || whole.Sign() <= 0 {
		return nil, newConfigError("token.initialSupply", fmt.Sprintf("invalid amount %q", c.Token.InitialSupply))
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.Token.Decimals)), nil)
	return whole.Mul(whole, scale), nil
}

// Helper: get int from env
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// SlogLevel maps LogLevel to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
