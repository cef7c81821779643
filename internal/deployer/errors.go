package deployer

import (
	"errors"

	"github.com/sbt-shop/contract-deployer/internal/artifacts"
)

var (
	// ErrArtifactNotFound means the build produced no output for the
	// requested contract. It points at build configuration and is not retried.
	ErrArtifactNotFound = artifacts.ErrNotFound

	// ErrMissingCredential means no signing key is configured for the target.
	ErrMissingCredential = errors.New("missing signing credential")

	// ErrDeployment covers every rejection between dialing the node and the
	// deployment receipt: unreachable endpoint, invalid key, insufficient
	// funds, reverted constructor.
	ErrDeployment = errors.New("deployment failed")

	// ErrConfirmationTimeout means the transaction was accepted but not mined
	// within the confirmation window.
	ErrConfirmationTimeout = errors.New("timed out waiting for deployment confirmation")
)
