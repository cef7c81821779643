package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/sbt-shop/contract-deployer/internal/infra/filesystem"
	"github.com/sbt-shop/contract-deployer/internal/logger"
)

type (
	// Output is one compiled contract in the contracts.json bundle.
	Output struct {
		ABI      json.RawMessage `json:"abi"`
		Bytecode string          `json:"bytecode"`
	}

	// Backend turns contract names into compiler output.
	Backend interface {
		Build(ctx context.Context, contractNames []string) (map[string]Output, error)
	}

	// Compiler compiles contracts with a backend and persists the bundle the
	// artifact store reads.
	Compiler struct {
		backend    Backend
		writer     filesystem.Writer
		outputPath string
		logger     *slog.Logger
	}
)

func New(backend Backend, writer filesystem.Writer, outputPath string) *Compiler {
	return &Compiler{
		backend:    backend,
		writer:     writer,
		outputPath: outputPath,
		logger:     logger.Named("contracts_compiler"),
	}
}

// Compile builds the named contracts and writes them to the output bundle.
func (c *Compiler) Compile(ctx context.Context, contractNames []string) error {
	names := slices.Clone(contractNames)
	slices.Sort(names)

	c.logger.With("contracts", names).Info("starting contract compilation")

	outputs, err := c.backend.Build(ctx, names)
	if err != nil {
		return err
	}

	for _, name := range names {
		output, ok := outputs[name]
		if !ok {
			return fmt.Errorf("compiler produced no output for %s", name)
		}

		// Validate that the ABI is valid JSON and parseable
		if _, err := abi.JSON(strings.NewReader(string(output.ABI))); err != nil {
			return fmt.Errorf("failed to parse ABI for %s: %w", name, err)
		}

		bytecode := strings.TrimSpace(output.Bytecode)
		if !strings.HasPrefix(bytecode, "0x") {
			bytecode = "0x" + bytecode
		}
		output.Bytecode = bytecode
		outputs[name] = output

		c.logger.With("name", name).With("bytecode_len", (len(bytecode)-2)/2).Info("contract compiled")
	}

	if err := c.writer.WriteJSON(c.outputPath, outputs); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.outputPath, err)
	}

	c.logger.With("output", c.outputPath).Info("contracts compiled successfully")

	return nil
}
