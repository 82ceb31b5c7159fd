// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feagi/feagi-core-sub006/burst"
	"github.com/feagi/feagi-core-sub006/compute"
)

func TestDefaultsAreRunnable(t *testing.T) {
	cfg := Defaults()
	assert.Greater(t, cfg.TickHz, 0.0)
	assert.Greater(t, cfg.DefaultLedgerWindow, 0)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "burstcored.toml")
	require.NoError(t, os.WriteFile(file, []byte("TickHz = 120\nBackendPolicy = 1\nSampleOverflowPolicy = 1\n"), 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.TickHz)
	assert.Equal(t, compute.ForceGPU, cfg.BackendPolicy)
	assert.Equal(t, burst.DropNewest, cfg.SampleOverflowPolicy)
	assert.Equal(t, Defaults().DefaultLedgerWindow, cfg.DefaultLedgerWindow)
}
