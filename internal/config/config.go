package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/go-homedir"
)

const (
	defaultNodeURL   = "http://127.0.0.1:8545"
	defaultAlgorithm = "failover"
	defaultArtifact  = "./out/debug/src20.json"
	defaultLogLevel  = "info"

	configFile      = "config.json"
	deploymentsFile = "deployments.json"
)

// Environment variables applied on top of the config file.
const (
	EnvConfigDir = "SRC20_CONFIG_DIR"
	EnvNodeURL   = "SRC20_NODE_URL" // comma-separated
	EnvSecretKey = "SRC20_SECRET_KEY"
	EnvArtifact  = "SRC20_ARTIFACT"
	EnvLogLevel  = "SRC20_LOG_LEVEL"
)

// Load reads config from dir (or creates defaults). dir defaults to ~/.src20kit.
// Environment overrides are applied after the file is read.
func Load(dir string) (*Config, error) {
	cfg, err := LoadFile(dir)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.fillZeroValues()
	return cfg, nil
}

// LoadFile is Load without environment overrides. Use it for configs that will
// be saved back, so a secret passed via SRC20_SECRET_KEY never lands on disk.
func LoadFile(dir string) (*Config, error) {
	if dir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".src20kit")
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("expanding config dir: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.configDir = dir
	cfg.fillZeroValues()
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// DeploymentsPath returns the path of the deployment registry file.
func (c *Config) DeploymentsPath() string {
	return filepath.Join(c.configDir, deploymentsFile)
}

// Artifact returns artifact_path with a leading ~ expanded.
func (c *Config) Artifact() (string, error) {
	return homedir.Expand(strings.TrimSpace(c.ArtifactPath))
}

// MaxFee returns the configured fee cap in wei, or nil when uncapped. Empty
// and zero both mean uncapped.
func (c *Config) MaxFee() (*big.Int, error) {
	if strings.TrimSpace(c.MaxFeeWei) == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(strings.TrimSpace(c.MaxFeeWei), 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid max_fee_wei %q", c.MaxFeeWei)
	}
	if v.Sign() == 0 {
		return nil, nil
	}
	return v, nil
}

// Factory returns the CREATE2 factory address. "none" disables CREATE2 and
// yields the zero address.
func (c *Config) Factory() (common.Address, error) {
	v := strings.TrimSpace(c.FactoryAddress)
	if strings.EqualFold(v, FactoryNone) {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("factory_address must be a hex address or %q, got %q", FactoryNone, v)
	}
	return common.HexToAddress(v), nil
}

// Keys lists the settable config keys in display order.
func Keys() []string {
	return []string{
		"node_urls", "node_algorithm", "secret_key", "key_ref", "artifact_path",
		"gas_limit", "deploy_gas_limit", "max_fee_wei", "factory_address", "log_level",
	}
}

// Set updates a single key from its string form.
func (c *Config) Set(key, value string) error {
	switch key {
	case "node_urls":
		c.NodeURLs = splitList(value)
	case "node_algorithm":
		if value != "failover" && value != "fastest" {
			return fmt.Errorf("node_algorithm must be failover or fastest, got %q", value)
		}
		c.NodeAlgorithm = value
	case "secret_key":
		c.SecretKey = value
	case "key_ref":
		c.KeyRef = value
	case "artifact_path":
		c.ArtifactPath = value
	case "gas_limit", "deploy_gas_limit":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil || n == 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		if key == "gas_limit" {
			c.GasLimit = n
		} else {
			c.DeployGasLimit = n
		}
	case "max_fee_wei":
		prev := c.MaxFeeWei
		c.MaxFeeWei = value
		if _, err := c.MaxFee(); err != nil {
			c.MaxFeeWei = prev
			return err
		}
	case "factory_address":
		prev := c.FactoryAddress
		c.FactoryAddress = value
		if _, err := c.Factory(); err != nil {
			c.FactoryAddress = prev
			return err
		}
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

// Get returns the string form of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "node_urls":
		return strings.Join(c.NodeURLs, ","), nil
	case "node_algorithm":
		return c.NodeAlgorithm, nil
	case "secret_key":
		if c.SecretKey == "" {
			return "", nil
		}
		return "********", nil
	case "key_ref":
		return c.KeyRef, nil
	case "artifact_path":
		return c.ArtifactPath, nil
	case "gas_limit":
		return strconv.FormatUint(c.GasLimit, 10), nil
	case "deploy_gas_limit":
		return strconv.FormatUint(c.DeployGasLimit, 10), nil
	case "max_fee_wei":
		return c.MaxFeeWei, nil
	case "factory_address":
		return c.FactoryAddress, nil
	case "log_level":
		return c.LogLevel, nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		NodeURLs:       []string{defaultNodeURL},
		NodeAlgorithm:  defaultAlgorithm,
		ArtifactPath:   defaultArtifact,
		GasLimit:       DefaultGasLimit,
		DeployGasLimit: DefaultDeployGasLimit,
		FactoryAddress: DeterministicDeployer,
		LogLevel:       defaultLogLevel,
		configDir:      dir,
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvNodeURL); v != "" {
		c.NodeURLs = splitList(v)
	}
	if v := os.Getenv(EnvSecretKey); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv(EnvArtifact); v != "" {
		c.ArtifactPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// fillZeroValues restores defaults for keys a hand-edited file left empty.
func (c *Config) fillZeroValues() {
	d := defaults(c.configDir)
	if len(c.NodeURLs) == 0 {
		c.NodeURLs = d.NodeURLs
	}
	if c.NodeAlgorithm == "" {
		c.NodeAlgorithm = d.NodeAlgorithm
	}
	if c.ArtifactPath == "" {
		c.ArtifactPath = d.ArtifactPath
	}
	if c.GasLimit == 0 {
		c.GasLimit = d.GasLimit
	}
	if c.DeployGasLimit == 0 {
		c.DeployGasLimit = d.DeployGasLimit
	}
	if c.FactoryAddress == "" {
		c.FactoryAddress = d.FactoryAddress
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
