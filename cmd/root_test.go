package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()
	for _, path := range [][]string{
		{"indexer", "create"},
		{"indexer", "delete"},
		{"indexer", "diagnose"},
		{"datasource", "test"},
		{"datasource", "diagnose"},
		{"index", "get"},
		{"check"},
		{"history"},
		{"migrate", "up"},
		{"httpd"},
		{"version"},
	} {
		found, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "aisearch version")
}

func TestIndexerCreate_RequiresName(t *testing.T) {
	t.Parallel()

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"indexer", "create"})

	require.Error(t, root.Execute())
}
