package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axiomesh/stakegov/repo"
)

func runApp(args ...string) error {
	return newApp().Run(append([]string{"stakegov"}, args...))
}

func TestConfigCommandsNeedRepo(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")

	for _, cmd := range []string{"show", "check", "rewrite-with-env"} {
		err := runApp("--repo", root, "config", cmd)
		assert.ErrorIs(t, err, errRepoNotExist, cmd)
	}
	assert.False(t, repo.Exist(root))
}

func TestConfigGenerateAndRewrite(t *testing.T) {
	root := filepath.Join(t.TempDir(), "repo")

	require.Nil(t, runApp("--repo", root, "config", "generate"))
	require.Nil(t, runApp("--repo", root, "config", "check"))
	require.Nil(t, runApp("--repo", root, "config", "show"))

	t.Setenv("STAKEGOV_GOVERNANCE_MIN_PROPOSAL_DURATION", "7")
	require.Nil(t, runApp("--repo", root, "config", "rewrite-with-env"))

	r, err := repo.Load(root)
	require.Nil(t, err)
	assert.EqualValues(t, 7, r.Config.Governance.MinProposalDuration)
}
