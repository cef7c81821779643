package configs

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"
)

var Values Config

type (
	NetworkName string
	ScriptName  string

	Config struct {
		LogLevel       string                  `mapstructure:"log-level"`
		Output         string                  `mapstructure:"output"`
		EnvFile        string                  `mapstructure:"env-file"`
		DefaultNetwork NetworkName             `mapstructure:"default-network"`
		Network        NetworkName             `mapstructure:"network"`
		Networks       map[NetworkName]Network `mapstructure:"networks"`
		Deploy         Deploy                  `mapstructure:"deploy"`
		Artifacts      Artifacts               `mapstructure:"artifacts"`
		Compiler       Compiler                `mapstructure:"compiler"`
		Scripts        map[ScriptName]Script   `mapstructure:"scripts"`
		Node           Node                    `mapstructure:"node"`
	}


	// Network is a named chain endpoint. URL and key can be given inline or
	// through the named environment variables, which win when set.
	Network struct {
		URL           string `mapstructure:"url"`
		URLEnv        string `mapstructure:"url-env"`
		PrivateKey    string `mapstructure:"private-key"`
		PrivateKeyEnv string `mapstructure:"private-key-env"`
		GasPriceWei   string `mapstructure:"gas-price-wei"`
		GasLimit      uint64 `mapstructure:"gas-limit"`
		ExplorerURL   string `mapstructure:"explorer-url"`
		// Simulated networks run in-process and fund their own throwaway key.
		Simulated bool `mapstructure:"simulated"`
	}

	Deploy struct {
		WaitForConfirmation bool          `mapstructure:"wait-for-confirmation"`
		ConfirmationTimeout time.Duration `mapstructure:"confirmation-timeout"`
	}

	Artifacts struct {
		Paths []string `mapstructure:"paths"`
	}

	Compiler struct {
		Backend       string   `mapstructure:"backend"`
		SolcVersion   string   `mapstructure:"solc-version"`
		SolcImage     string   `mapstructure:"solc-image"`
		ProjectDir    string   `mapstructure:"project-dir"`
		SourcesDir    string   `mapstructure:"sources-dir"`
		IncludePaths  []string `mapstructure:"include-paths"`
		OptimizerRuns int      `mapstructure:"optimizer-runs"`
		Output        string   `mapstructure:"output"`
	}

	// Script is a preset deployment: one contract with its own confirmation
	// policy and console wording.
	Script struct {
		Contract            string      `mapstructure:"contract"`
		Network             NetworkName `mapstructure:"network"`
		Label               string      `mapstructure:"label"`
		Headline            string      `mapstructure:"headline"`
		ExplorerURL         string      `mapstructure:"explorer-url"`
		WaitForConfirmation bool        `mapstructure:"wait-for-confirmation"`
	}

	Node struct {
		Image         string `mapstructure:"image"`
		ContainerName string `mapstructure:"container-name"`
		Port          int    `mapstructure:"port"`
		ChainID       int    `mapstructure:"chain-id"`
	}
)

const (
	CompilerBackendDocker = "docker"
	CompilerBackendForge  = "forge"

	ScriptNameSBT     ScriptName = "sbt"
	ScriptNameShopNFT ScriptName = "shop-nft"
)

// SelectedNetwork is the --network value, or the configured default.
func (c *Config) SelectedNetwork() NetworkName {
	if c.Network != "" {
		return c.Network
	}

	return c.DefaultNetwork
}

func (c *Config) Validate() error {
	var errs []error

	if c.DefaultNetwork == "" {
		errs = append(errs, errors.New("default-network is required"))
	}
	if len(c.Networks) == 0 {
		errs = append(errs, errors.New("at least one entry in networks is required"))
	}
	if name := c.SelectedNetwork(); name != "" {
		if _, ok := c.Networks[name]; !ok {
			errs = append(errs, fmt.Errorf("network %q is not configured", name))
		}
	}

	for name, network := range c.Networks {
		errs = append(errs, network.validate(name)...)
	}

	if c.Deploy.ConfirmationTimeout < 0 {
		errs = append(errs, errors.New("deploy.confirmation-timeout must not be negative"))
	}

	if len(c.Artifacts.Paths) == 0 {
		errs = append(errs, errors.New("artifacts.paths requires at least one path"))
	}

	for name, script := range c.Scripts {
		if script.Contract == "" {
			errs = append(errs, fmt.Errorf("scripts.%s.contract is required", name))
		}
		if script.Network != "" {
			if _, ok := c.Networks[script.Network]; !ok {
				errs = append(errs, fmt.Errorf("scripts.%s.network %q is not configured", name, script.Network))
			}
		}
		if err := validateOptionalURL(script.ExplorerURL); err != nil {
			errs = append(errs, fmt.Errorf("scripts.%s.explorer-url: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (c *Compiler) Validate() error {
	var errs []error

	switch c.Backend {
	case CompilerBackendDocker:
		if c.SolcImage == "" && c.SolcVersion == "" {
			errs = append(errs, errors.New("compiler.solc-version or compiler.solc-image is required for the docker backend"))
		}
	case CompilerBackendForge:
	default:
		errs = append(errs, fmt.Errorf("compiler.backend must be either '%s' or '%s'", CompilerBackendDocker, CompilerBackendForge))
	}

	if c.SourcesDir == "" {
		errs = append(errs, errors.New("compiler.sources-dir is required"))
	}
	if c.Output == "" {
		errs = append(errs, errors.New("compiler.output is required"))
	}
	if c.OptimizerRuns < 0 {
		errs = append(errs, errors.New("compiler.optimizer-runs must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("compiler configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (c *Node) Validate() error {
	var errs []error

	if c.Image == "" {
		errs = append(errs, errors.New("node.image is required"))
	}
	if c.ContainerName == "" {
		errs = append(errs, errors.New("node.container-name is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("node.port must be between 1 and 65535"))
	}
	if c.ChainID <= 0 {
		errs = append(errs, errors.New("node.chain-id is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("node configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

// GasPrice parses the optional gas-price-wei override.
func (n Network) GasPrice() (*big.Int, error) {
	value := strings.TrimSpace(n.GasPriceWei)
	if value == "" {
		return nil, nil
	}

	gasPrice, ok := new(big.Int).SetString(value, 10)
	if !ok || gasPrice.Sign() <= 0 {
		return nil, fmt.Errorf("invalid gas price %q, expected a positive integer in wei", n.GasPriceWei)
	}

	return gasPrice, nil
}

func (n Network) validate(name NetworkName) []error {
	var errs []error

	if _, err := n.GasPrice(); err != nil {
		errs = append(errs, fmt.Errorf("networks.%s.gas-price-wei: %w", name, err))
	}
	if err := validateOptionalURL(n.ExplorerURL); err != nil {
		errs = append(errs, fmt.Errorf("networks.%s.explorer-url: %w", name, err))
	}
	if n.Simulated && (n.URL != "" || n.URLEnv != "") {
		errs = append(errs, fmt.Errorf("networks.%s: a simulated network cannot have a url", name))
	}

	return errs
}

func validateOptionalURL(raw string) error {
	if raw == "" {
		return nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}

	return nil
}
