package flags

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareBindsFlagsToViper(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader("network: hardhat\ndeploy:\n  wait-for-confirmation: true\n")))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, Declare(v, fs, []Def[string]{{"network", "network", "", "network name"}}))
	require.NoError(t, Declare(v, fs, []Def[bool]{{"wait", "deploy.wait-for-confirmation", false, "wait"}}))
	require.NoError(t, Declare(v, fs, []Def[int]{{"retries", "deploy.retries", 3, "retries"}}))

	// unchanged flags leave config values alone and only provide defaults
	assert.Equal(t, "hardhat", v.GetString("network"))
	assert.True(t, v.GetBool("deploy.wait-for-confirmation"))
	assert.Equal(t, 3, v.GetInt("deploy.retries"))

	require.NoError(t, fs.Parse([]string{"--network", "mainnet", "--wait=false"}))
	assert.Equal(t, "mainnet", v.GetString("network"))
	assert.False(t, v.GetBool("deploy.wait-for-confirmation"))
}
