package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"reconcile", "calendar", "export"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "manhattan", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestReconcileCommand_Flags(t *testing.T) {
	for _, name := range []string{"interactive", "browser", "data-dir"} {
		require.NotNil(t, reconcileCmd.Flags().Lookup(name), "reconcile command should have --%s flag", name)
	}
	assert.Equal(t, "false", reconcileCmd.Flags().Lookup("interactive").DefValue)
}

func TestCalendarCommand_Flags(t *testing.T) {
	require.NotNil(t, calendarCmd.Flags().Lookup("browser"))
	require.NotNil(t, calendarCmd.Flags().Lookup("data-dir"))
}

func TestExportCommand_Flags(t *testing.T) {
	require.NotNil(t, exportCmd.Flags().Lookup("database"))
	require.NotNil(t, exportCmd.Flags().Lookup("data-dir"))
}
