package deploy

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sbt-shop/contract-deployer/configs"
	"github.com/sbt-shop/contract-deployer/internal/artifacts"
	"github.com/sbt-shop/contract-deployer/internal/deployer"
	"github.com/sbt-shop/contract-deployer/internal/devchain"
	"github.com/sbt-shop/contract-deployer/internal/infra/filesystem/json"
	"github.com/sbt-shop/contract-deployer/internal/logger"
	"github.com/sbt-shop/contract-deployer/internal/report"
)

type (
	// Env resolves variables from the process environment and the dotenv file.
	Env interface {
		Lookup(name string) (string, bool)
	}

	// Request is one deployment run: a contract, where to send it and how to
	// report it.
	Request struct {
		Contract            string
		Network             configs.NetworkName
		WaitForConfirmation bool
		// ExplorerURL overrides the network's explorer when set.
		ExplorerURL string
		Messages    report.Messages
	}

	Service struct {
		cfg      configs.Config
		env      Env
		resolver artifacts.Resolver
		printer  *report.Printer
		logger   *slog.Logger
	}
)

func NewService(cfg configs.Config, env Env, out io.Writer) (*Service, error) {
	format, err := report.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:      cfg,
		env:      env,
		resolver: artifacts.NewStore(json.NewReader(), cfg.Artifacts.Paths...),
		printer:  report.NewPrinter(out, format),
		logger:   logger.Named("deploy"),
	}, nil
}

// Run deploys the requested contract and prints the result. Nothing is
// printed when the deployment fails.
func (s *Service) Run(ctx context.Context, req Request) (deployer.Result, error) {
	network, ok := s.cfg.Networks[req.Network]
	if !ok {
		return deployer.Result{}, fmt.Errorf("network %q is not configured", req.Network)
	}

	target, err := s.target(req, network)
	if err != nil {
		return deployer.Result{}, err
	}

	opts := []deployer.Option{
		deployer.WithConfirmation(req.WaitForConfirmation, s.cfg.Deploy.ConfirmationTimeout),
	}

	if network.Simulated {
		chain, err := devchain.New()
		if err != nil {
			return deployer.Result{}, fmt.Errorf("failed to start in-process chain: %w", err)
		}
		defer func() { _ = chain.Close() }()

		if target.SigningKey != "" {
			s.logger.With("network", req.Network).Warn("ignoring configured key, simulated networks sign with their own funded account")
		}
		target.EndpointURL = devchain.Endpoint
		target.SigningKey = chain.Key()
		opts = append(opts, deployer.WithDialer(chain.Dial))
	}

	s.logger.
		With("contract", req.Contract).
		With("target", target).
		With("wait", req.WaitForConfirmation).
		Info("starting deployment")

	result, err := deployer.New(s.resolver, opts...).Deploy(ctx, req.Contract, target)
	if err != nil {
		return deployer.Result{}, err
	}

	if err := s.printer.Print(string(req.Network), result, req.Messages); err != nil {
		return result, err
	}

	return result, nil
}

// target builds the deployment target for network. Variables named by
// url-env and private-key-env take precedence over inline values.
func (s *Service) target(req Request, network configs.Network) (deployer.Target, error) {
	gasPrice, err := network.GasPrice()
	if err != nil {
		return deployer.Target{}, fmt.Errorf("network %s: %w", req.Network, err)
	}

	explorerURL := network.ExplorerURL
	if req.ExplorerURL != "" {
		explorerURL = req.ExplorerURL
	}

	return deployer.Target{
		Network:     string(req.Network),
		EndpointURL: s.lookup(network.URLEnv, network.URL),
		GasPriceWei: gasPrice,
		GasLimit:    network.GasLimit,
		SigningKey:  s.lookup(network.PrivateKeyEnv, network.PrivateKey),
		ExplorerURL: explorerURL,
	}, nil
}

func (s *Service) lookup(name, fallback string) string {
	if name != "" && s.env != nil {
		if value, ok := s.env.Lookup(name); ok {
			return value
		}
	}

	return fallback
}

// ScriptRequest builds the request for a preset script. An explicit --network
// wins over the script's network, which wins over the default network.
func ScriptRequest(cfg configs.Config, name configs.ScriptName) (Request, error) {
	script, ok := cfg.Scripts[name]
	if !ok {
		return Request{}, fmt.Errorf("script %q is not configured", name)
	}

	network := cfg.Network
	if network == "" {
		network = script.Network
	}
	if network == "" {
		network = cfg.DefaultNetwork
	}

	return Request{
		Contract:            script.Contract,
		Network:             network,
		WaitForConfirmation: script.WaitForConfirmation,
		ExplorerURL:         script.ExplorerURL,
		Messages: report.Messages{
			Headline: script.Headline,
			Label:    script.Label,
		},
	}, nil
}
