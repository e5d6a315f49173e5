package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcomandos(t *testing.T) {
	for _, path := range [][]string{{"migrate"}, {"modules", "sync"}, {"seed-admin"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
		assert.NotNil(t, cmd.RunE, path)
	}
}

func TestSeedAdmin_FlagsObligatorios(t *testing.T) {
	for _, name := range []string{"email", "password"} {
		f := seedAdminCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, []string{"true"}, f.Annotations["cobra_annotation_bash_completion_one_required_flag"], name)
	}
}

func TestModulesSync_FlagDir(t *testing.T) {
	f := modulesSyncCmd.Flags().Lookup("dir")
	require.NotNil(t, f)
	assert.Equal(t, "", f.DefValue)
}
