package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	root := filepath.Join(t.TempDir(), "repo")

	r, err := Load(root)
	require.Nil(t, err)
	assert.True(t, Exist(filepath.Join(root, cfgFileName)))
	assert.Equal(t, DefaultConfig(root), r.Config)
	assert.Equal(t, filepath.Join(root, "state"), r.StoragePath())
	assert.Equal(t, filepath.Join(root, LogsDirName), r.LogsPath())
}

func TestFlushRoundTrip(t *testing.T) {
	root := t.TempDir()
	r, err := Init(root)
	require.Nil(t, err)

	r.Config.Token.URI = "ipfs://token"
	r.Config.Token.Minters = []string{"0x00000000000000000000000000000000000000a1"}
	r.Config.Governance.MinProposalDuration = 10
	require.Nil(t, r.Flush())

	loaded, err := Load(root)
	require.Nil(t, err)
	assert.Equal(t, r.Config, loaded.Config)

	info := loaded.Config.TokenInfo()
	require.NotNil(t, info.URI)
	assert.Equal(t, "ipfs://token", *info.URI)
	assert.Len(t, loaded.Config.MinterAddresses(), 1)
}

func TestEnvOverride(t *testing.T) {
	root := t.TempDir()
	_, err := Init(root)
	require.Nil(t, err)

	t.Setenv("STAKEGOV_GOVERNANCE_MIN_PROPOSAL_DURATION", "7")
	t.Setenv("STAKEGOV_TOKEN_OWNER", "0x00000000000000000000000000000000000000b2")

	r, err := Load(root)
	require.Nil(t, err)
	assert.EqualValues(t, 7, r.Config.Governance.MinProposalDuration)
	assert.Equal(t, "0x00000000000000000000000000000000000000b2", r.Config.Token.Owner)
}

func TestLoadRejectsBadOwner(t *testing.T) {
	root := t.TempDir()
	r, err := Init(root)
	require.Nil(t, err)

	r.Config.Token.Owner = "not-an-address"
	raw, err := MarshalConfig(r.Config)
	require.Nil(t, err)
	require.Nil(t, os.WriteFile(filepath.Join(root, cfgFileName), []byte(raw), 0644))

	_, err = Load(root)
	assert.NotNil(t, err)
}

func TestLoadRepoRootFromEnv(t *testing.T) {
	p, err := LoadRepoRootFromEnv("/explicit")
	require.Nil(t, err)
	assert.Equal(t, "/explicit", p)

	t.Setenv(rootPathEnvVar, "/from/env")
	p, err = LoadRepoRootFromEnv("")
	require.Nil(t, err)
	assert.Equal(t, "/from/env", p)
}

func TestCheckWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub")
	assert.Nil(t, CheckWritable(dir))
	assert.True(t, Exist(dir))
	assert.Nil(t, CheckWritable(dir))
	assert.False(t, Exist(filepath.Join(dir, ".write-probe")))
}
