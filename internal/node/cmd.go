package node

import (
	"fmt"
	"log/slog"

	"github.com/sbt-shop/contract-deployer/configs"
	"github.com/sbt-shop/contract-deployer/internal/infra/docker"
	"github.com/spf13/cobra"
)

func init() {
	CMD.AddCommand(startCmd)
	CMD.AddCommand(stopCmd)
}

var CMD = &cobra.Command{
	Use:   "node",
	Short: "Commands for running a local anvil development node",
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the local development node in docker",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeDocker, err := newService()
		if err != nil {
			return err
		}
		defer closeDocker()

		slog.Info("starting dev node")
		if err := service.Start(cmd.Context()); err != nil {
			return fmt.Errorf("error occurred starting dev node: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Development node listening on %s (chain id %d)\n", service.URL(), configs.Values.Node.ChainID)

		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop and remove the local development node",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, closeDocker, err := newService()
		if err != nil {
			return err
		}
		defer closeDocker()

		if err := service.Stop(cmd.Context()); err != nil {
			return fmt.Errorf("error occurred stopping dev node: %w", err)
		}

		slog.Info("dev node stopped")

		return nil
	},
}

func newService() (*Service, func(), error) {
	if err := configs.Values.Node.Validate(); err != nil {
		return nil, nil, err
	}

	client, err := docker.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return NewService(client, configs.Values.Node), func() { _ = client.Close() }, nil
}
