package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/sbt-shop/contract-deployer/internal/logger"
)

// Forge compiles with a locally installed Foundry toolchain. The solc version
// comes from the project's foundry.toml.
type Forge struct {
	projectDir string
	logger     *slog.Logger
}

func NewForge(projectDir string) *Forge {
	return &Forge{
		projectDir: projectDir,
		logger:     logger.Named("forge"),
	}
}

func (f *Forge) Build(ctx context.Context, contractNames []string) (map[string]Output, error) {
	f.logger.With("project_dir", f.projectDir).Info("building contracts with forge")

	cmd := exec.CommandContext(ctx, "forge", "build")
	cmd.Dir = f.projectDir
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("forge build failed: %w", err)
	}

	outputs := make(map[string]Output, len(contractNames))
	for _, name := range contractNames {
		abiJSON, bytecodeHex, err := f.inspect(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", name, err)
		}

		outputs[name] = Output{ABI: abiJSON, Bytecode: bytecodeHex}
	}

	return outputs, nil
}

// inspect returns raw JSON ABI and hex bytecode of a built contract
func (f *Forge) inspect(ctx context.Context, contractName string) (json.RawMessage, string, error) {
	abiCmd := exec.CommandContext(ctx, "forge", "inspect", contractName, "abi", "--json")
	abiCmd.Dir = f.projectDir

	abiOutput, err := abiCmd.Output()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get ABI for %s: %w", contractName, err)
	}

	bytecodeCmd := exec.CommandContext(ctx, "forge", "inspect", contractName, "bytecode")
	bytecodeCmd.Dir = f.projectDir

	bytecodeOutput, err := bytecodeCmd.Output()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get bytecode for %s: %w", contractName, err)
	}

	return json.RawMessage(strings.TrimSpace(string(abiOutput))), strings.TrimSpace(string(bytecodeOutput)), nil
}
