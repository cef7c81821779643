package compiler

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/sbt-shop/contract-deployer/configs"
	"github.com/sbt-shop/contract-deployer/internal/artifacts"
	"github.com/sbt-shop/contract-deployer/internal/infra/docker"
	"github.com/sbt-shop/contract-deployer/internal/infra/filesystem/json"
	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:   "compile [contract...]",
	Short: "Compile the contracts with the pinned compiler and write the artifact bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.Values.Compiler
		if err := cfg.Validate(); err != nil {
			return err
		}

		names := args
		if len(names) == 0 {
			names = slices.Sorted(maps.Keys(artifacts.Contracts))
		}

		backend, closeBackend, err := newBackend(cfg)
		if err != nil {
			return err
		}
		defer closeBackend()

		if err := New(backend, json.NewWriter(), cfg.Output).Compile(cmd.Context(), names); err != nil {
			return fmt.Errorf("error occurred compiling contracts: %w", err)
		}

		slog.Info("contracts compiled", slog.String("output", cfg.Output))

		return nil
	},
}

func newBackend(cfg configs.Compiler) (Backend, func(), error) {
	if cfg.Backend == configs.CompilerBackendForge {
		return NewForge(cfg.ProjectDir), func() {}, nil
	}

	client, err := docker.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	solc := NewSolc(client, SolcOptions{
		Version:       cfg.SolcVersion,
		Image:         cfg.SolcImage,
		ProjectDir:    cfg.ProjectDir,
		SourcesDir:    cfg.SourcesDir,
		IncludePaths:  cfg.IncludePaths,
		OptimizerRuns: cfg.OptimizerRuns,
	})

	return solc, func() { _ = client.Close() }, nil
}
