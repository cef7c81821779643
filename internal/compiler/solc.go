package compiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbt-shop/contract-deployer/internal/infra/docker"
	"github.com/sbt-shop/contract-deployer/internal/logger"
)

const solcImageRepository = "ethereum/solc"

type (
	// ContainerRunner runs a container to completion.
	ContainerRunner interface {
		EnsureImage(ctx context.Context, imageName string) error
		Run(ctx context.Context, opts docker.RunOptions) (docker.RunOutput, error)
	}

	// Solc compiles with a pinned solc release from its docker image, so the
	// host needs docker but no Solidity toolchain.
	Solc struct {
		runner        ContainerRunner
		image         string
		projectDir    string
		sourcesDir    string
		includePaths  []string
		optimizerRuns int
		logger        *slog.Logger
	}

	SolcOptions struct {
		// Version selects ethereum/solc:<Version>; Image overrides it.
		Version       string
		Image         string
		ProjectDir    string
		SourcesDir    string
		IncludePaths  []string
		OptimizerRuns int
	}

	combinedOutput struct {
		Contracts map[string]struct {
			ABI json.RawMessage `json:"abi"`
			Bin string          `json:"bin"`
		} `json:"contracts"`
		Version string `json:"version"`
	}
)

func NewSolc(runner ContainerRunner, opts SolcOptions) *Solc {
	image := opts.Image
	if image == "" {
		image = fmt.Sprintf("%s:%s", solcImageRepository, opts.Version)
	}

	return &Solc{
		runner:        runner,
		image:         image,
		projectDir:    opts.ProjectDir,
		sourcesDir:    filepath.ToSlash(filepath.Clean(opts.SourcesDir)),
		includePaths:  opts.IncludePaths,
		optimizerRuns: opts.OptimizerRuns,
		logger:        logger.Named("solc"),
	}
}

// Build compiles <sources-dir>/<Name>.sol for every name. The project
// directory is copied to / inside the container so imports resolve against
// the same relative layout as on the host.
func (s *Solc) Build(ctx context.Context, contractNames []string) (map[string]Output, error) {
	sources := make([]string, 0, len(contractNames))
	for _, name := range contractNames {
		source := s.sourceFor(name)
		if _, err := os.Stat(filepath.Join(s.projectDir, filepath.FromSlash(source))); err != nil {
			return nil, fmt.Errorf("source of %s not found: %w", name, err)
		}
		sources = append(sources, source)
	}

	includes, err := s.existingIncludePaths()
	if err != nil {
		return nil, err
	}

	if err := s.runner.EnsureImage(ctx, s.image); err != nil {
		return nil, fmt.Errorf("failed to prepare %s: %w", s.image, err)
	}

	s.logger.With("image", s.image).With("sources", sources).Info("compiling contracts with solc")

	out, err := s.runner.Run(ctx, docker.RunOptions{
		Image:       s.image,
		Cmd:         s.args(sources, includes),
		WorkDir:     "/",
		CopyFrom:    s.projectDir,
		CopyTo:      "/",
		CopyInclude: append([]string{topLevel(s.sourcesDir)}, includes...),
	})
	if err != nil {
		return nil, fmt.Errorf("solc failed: %w", err)
	}
	if out.Stderr != "" {
		s.logger.With("stderr", out.Stderr).Warn("solc reported warnings")
	}

	return parseCombinedJSON([]byte(out.Stdout), s.sourcesDir, contractNames)
}

func (s *Solc) sourceFor(name string) string {
	return path.Join(s.sourcesDir, name+".sol")
}

func (s *Solc) args(sources, includes []string) []string {
	args := []string{"--combined-json", "abi,bin", "--base-path", "/"}
	for _, include := range includes {
		args = append(args, "--include-path", "/"+include)
	}
	if s.optimizerRuns > 0 {
		args = append(args, "--optimize", "--optimize-runs", strconv.Itoa(s.optimizerRuns))
	}

	return append(args, sources...)
}

func (s *Solc) existingIncludePaths() ([]string, error) {
	var includes []string
	for _, include := range s.includePaths {
		include = filepath.ToSlash(filepath.Clean(include))
		_, err := os.Stat(filepath.Join(s.projectDir, filepath.FromSlash(include)))
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.With("path", include).Debug("include path does not exist, skipping")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to stat include path %s: %w", include, err)
		}
		includes = append(includes, include)
	}

	return includes, nil
}

// parseCombinedJSON picks the requested contracts out of solc --combined-json
// output. A contract defined in <sourcesDir>/<Name>.sol wins over a same named
// contract from another file.
func parseCombinedJSON(data []byte, sourcesDir string, contractNames []string) (map[string]Output, error) {
	var combined combinedOutput
	if err := json.Unmarshal(data, &combined); err != nil {
		return nil, fmt.Errorf("failed to parse solc output: %w", err)
	}

	outputs := make(map[string]Output, len(contractNames))
	for _, name := range contractNames {
		preferred := path.Join(sourcesDir, name+".sol") + ":" + name

		var (
			key   string
			found bool
		)
		if _, ok := combined.Contracts[preferred]; ok {
			key, found = preferred, true
		} else {
			for candidate := range combined.Contracts {
				if candidate[strings.LastIndex(candidate, ":")+1:] == name {
					key, found = candidate, true
					break
				}
			}
		}
		if !found {
			return nil, fmt.Errorf("solc output has no contract %s", name)
		}

		entry := combined.Contracts[key]
		abiJSON, err := normalizeABI(entry.ABI)
		if err != nil {
			return nil, fmt.Errorf("invalid ABI for %s: %w", name, err)
		}

		outputs[name] = Output{ABI: abiJSON, Bytecode: entry.Bin}
	}

	return outputs, nil
}

// normalizeABI accepts the ABI both as a JSON array and as a JSON encoded
// string, which older solc releases emit.
func normalizeABI(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, `"`) {
		return json.RawMessage(trimmed), nil
	}

	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, err
	}

	return json.RawMessage(inner), nil
}

func topLevel(dir string) string {
	first, _, _ := strings.Cut(dir, "/")
	return first
}
