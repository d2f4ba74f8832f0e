// SPDX-FileCopyrightText:  Copyright 2024 Roland Csaszar
// SPDX-License-Identifier: MIT
//
// Project:  samedit
// File:     config_test.go
// Date:     07.Feb.2024
//
// =============================================================================

// Black-box testing of the config file parser.
package config_test

import (
	"testing"

	"github.com/Release-Candidate/samedit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.Equal(t, 4, cfg.Tabstop)
	assert.True(t, cfg.ExpandTab)
	assert.True(t, cfg.MatchIndent)
	assert.Equal(t, uint64(5), cfg.StatusTimeout)
	assert.Equal(t, 10, cfg.MinibufferLines)
	assert.NotEmpty(t, cfg.FindCommand)
}

func TestParseFullFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(`# my editor setup
set tabstop=8
set expand-tab=false

set bg-color=#12ab34
set status-timeout=3
set find-command=rg --files
`)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Tabstop)
	assert.False(t, cfg.ExpandTab)
	assert.Equal(t, uint64(3), cfg.StatusTimeout)
	assert.Equal(t, "rg --files", cfg.FindCommand)
	assert.Equal(t, config.Color{R: 0x12, G: 0xAB, B: 0x34}, cfg.Colors.Bg)
	// Untouched properties keep their defaults.
	assert.True(t, cfg.MatchIndent)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"not a set command", "tabstop=8"},
		{"missing equals", "set tabstop 8"},
		{"unknown property", "set no-such-prop=1"},
		{"bad number", "set tabstop=four"},
		{"bad bool", "set expand-tab=yes"},
		{"bad color", "set fg-color=red"},
		{"short color", "set fg-color=#fff"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse(tc.src)
			assert.Error(t, err)
		})
	}
}

func TestColorRoundTrip(t *testing.T) {
	t.Parallel()

	col, err := config.ParseColor("#1B1720")
	require.NoError(t, err)
	assert.Equal(t, "#1B1720", col.String())
}
