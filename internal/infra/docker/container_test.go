package docker

import (
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortMappings(t *testing.T) {
	exposed, bindings, err := portMappings(map[int]int{8545: 18545})
	require.NoError(t, err)

	port := nat.Port("8545/tcp")
	assert.Contains(t, exposed, port)
	assert.Equal(t, []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: "18545"}}, bindings[port])
}

func TestPortMappingsRejectsInvalidPort(t *testing.T) {
	_, _, err := portMappings(map[int]int{-1: 8545})
	require.Error(t, err)
}
