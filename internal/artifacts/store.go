package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sbt-shop/contract-deployer/internal/infra/filesystem"
	"github.com/sbt-shop/contract-deployer/internal/logger"
)

const debugArtifactSuffix = ".dbg.json"

type (
	// Store resolves artifacts from build outputs on disk. Each search path is
	// either a Hardhat artifacts directory (artifacts/contracts/**/<Name>.json)
	// or a contracts.json bundle written by the compile command. Paths are
	// searched in order and the first match wins.
	Store struct {
		paths  []string
		reader filesystem.Reader
		logger *slog.Logger
	}

	rawArtifact struct {
		ContractName string          `json:"contractName"`
		SourceName   string          `json:"sourceName"`
		ABI          json.RawMessage `json:"abi"`
		Bytecode     string          `json:"bytecode"`
	}
)

func NewStore(reader filesystem.Reader, paths ...string) *Store {
	return &Store{
		paths:  paths,
		reader: reader,
		logger: logger.Named("artifact_store"),
	}
}

// Resolve returns the artifact for name, or an error wrapping ErrNotFound when
// none of the search paths contain it.
func (s *Store) Resolve(name string) (Artifact, error) {
	if strings.TrimSpace(name) == "" {
		return Artifact{}, fmt.Errorf("%w: contract name is empty", ErrNotFound)
	}

	for _, path := range s.paths {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.With("path", path).Debug("artifact path does not exist, skipping")
				continue
			}
			return Artifact{}, fmt.Errorf("failed to stat artifact path %s: %w", path, err)
		}

		var (
			raw   rawArtifact
			found bool
		)
		if info.IsDir() {
			raw, found, err = s.fromHardhatDir(path, name)
		} else {
			raw, found, err = s.fromBundle(path, name)
		}
		if err != nil {
			return Artifact{}, err
		}
		if !found {
			continue
		}

		artifact, err := parseArtifact(name, raw)
		if err != nil {
			return Artifact{}, err
		}

		s.logger.
			With("contract", name).
			With("path", path).
			With("bytecode_len", len(artifact.Bytecode)).
			Debug("artifact resolved")

		return artifact, nil
	}

	return Artifact{}, fmt.Errorf("%w: no build output for %q in %s", ErrNotFound, name, strings.Join(s.paths, ", "))
}

func (s *Store) fromBundle(path, name string) (rawArtifact, bool, error) {
	var bundle map[string]rawArtifact
	if err := s.reader.ReadJSON(path, &bundle); err != nil {
		return rawArtifact{}, false, fmt.Errorf("failed to read artifact bundle %s: %w", path, err)
	}

	raw, ok := bundle[name]
	return raw, ok, nil
}

func (s *Store) fromHardhatDir(root, name string) (rawArtifact, bool, error) {
	var match string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// build-info holds compiler I/O, not per-contract artifacts
		if d.IsDir() && d.Name() == "build-info" {
			return filepath.SkipDir
		}
		if d.IsDir() || strings.HasSuffix(d.Name(), debugArtifactSuffix) {
			return nil
		}
		if d.Name() == name+".json" {
			match = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return rawArtifact{}, false, fmt.Errorf("failed to scan artifacts directory %s: %w", root, err)
	}
	if match == "" {
		return rawArtifact{}, false, nil
	}

	var raw rawArtifact
	if err := s.reader.ReadJSON(match, &raw); err != nil {
		return rawArtifact{}, false, fmt.Errorf("failed to read artifact %s: %w", match, err)
	}

	return raw, true, nil
}

func parseArtifact(name string, raw rawArtifact) (Artifact, error) {
	if len(raw.ABI) == 0 {
		return Artifact{}, fmt.Errorf("artifact %s has no ABI", name)
	}

	parsedABI, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to parse ABI for %s: %w", name, err)
	}

	bytecode, err := decodeBytecode(raw.Bytecode)
	if err != nil {
		return Artifact{}, fmt.Errorf("invalid bytecode for %s: %w", name, err)
	}
	if len(bytecode) == 0 {
		return Artifact{}, fmt.Errorf("artifact %s has empty bytecode; abstract contracts and interfaces cannot be deployed", name)
	}

	return Artifact{
		Name:     name,
		Source:   raw.SourceName,
		ABI:      parsedABI,
		RawABI:   string(raw.ABI),
		Bytecode: bytecode,
	}, nil
}

func decodeBytecode(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "__$") {
		return nil, errors.New("bytecode contains unlinked library placeholders")
	}
	if value == "" || value == "0x" {
		return nil, nil
	}
	if !strings.HasPrefix(value, "0x") {
		value = "0x" + value
	}

	return hexutil.Decode(value)
}
