package node

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sbt-shop/contract-deployer/configs"
	"github.com/sbt-shop/contract-deployer/internal/infra/docker"
	"github.com/sbt-shop/contract-deployer/internal/logger"
)

const anvilPort = 8545

type (
	Docker interface {
		EnsureImage(ctx context.Context, imageName string) error
		ContainerRunning(ctx context.Context, name string) (exists bool, running bool, err error)
		StartService(ctx context.Context, opts docker.ServiceOptions) (string, error)
		RemoveContainer(ctx context.Context, name string) error
	}

	// Service manages a single anvil development node container.
	Service struct {
		docker      Docker
		cfg         configs.Node
		rpcAttempts int
		rpcInterval time.Duration
		logger      *slog.Logger
	}
)

func NewService(docker Docker, cfg configs.Node) *Service {
	return &Service{
		docker:      docker,
		cfg:         cfg,
		rpcAttempts: 60,
		rpcInterval: time.Second,
		logger:      logger.Named("dev_node"),
	}
}

// URL is the JSON-RPC endpoint of the node on the host.
func (s *Service) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.cfg.Port)
}

// Start runs the node unless it is already running and waits for its RPC.
func (s *Service) Start(ctx context.Context) error {
	exists, running, err := s.docker.ContainerRunning(ctx, s.cfg.ContainerName)
	if err != nil {
		return err
	}

	switch {
	case running:
		s.logger.With("container", s.cfg.ContainerName).Info("dev node already running")
		return s.waitForRPC(ctx)
	case exists:
		s.logger.With("container", s.cfg.ContainerName).Info("removing stopped dev node container")
		if err := s.docker.RemoveContainer(ctx, s.cfg.ContainerName); err != nil {
			return err
		}
	}

	if err := s.docker.EnsureImage(ctx, s.cfg.Image); err != nil {
		return fmt.Errorf("failed to prepare image %s: %w", s.cfg.Image, err)
	}

	_, err = s.docker.StartService(ctx, docker.ServiceOptions{
		Name:  s.cfg.ContainerName,
		Image: s.cfg.Image,
		// the foundry image runs its command through `sh -c`
		Cmd:   []string{fmt.Sprintf("anvil --host 0.0.0.0 --port %d --chain-id %d", anvilPort, s.cfg.ChainID)},
		Ports: map[int]int{anvilPort: s.cfg.Port},
	})
	if err != nil {
		return err
	}

	return s.waitForRPC(ctx)
}

// Stop removes the node container and with it the chain state.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.With("container", s.cfg.ContainerName).Info("stopping dev node")
	return s.docker.RemoveContainer(ctx, s.cfg.ContainerName)
}

func (s *Service) waitForRPC(ctx context.Context) error {
	url := s.URL()
	s.logger.With("url", url).Info("waiting for dev node RPC")

	for range s.rpcAttempts {
		if err := probe(ctx, url); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.rpcInterval):
		}
	}

	return fmt.Errorf("timed out waiting for RPC at %s", url)
}

func probe(ctx context.Context, url string) error {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.BlockNumber(ctx)
	return err
}
