// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12300, cfg.Port)
	assert.Equal(t, "beta", cfg.InitialPhase)
	assert.Equal(t, time.Minute, cfg.Intervals.Aggregation)
	assert.Equal(t, 24*time.Hour, cfg.Intervals.Cleanup)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention.MetricSamples)
	assert.False(t, cfg.Influx.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ADMIN_KEY", "hunter2")
	t.Setenv("VIP_USERS", "a@example.com,b@example.com")
	t.Setenv("PHASE_EVAL_INTERVAL", "30s")
	t.Setenv("INFLUXDB_URL", "http://localhost:8086")
	t.Setenv("INFLUXDB_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "hunter2", cfg.AdminKey)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.VIPUsers)
	assert.Equal(t, 30*time.Second, cfg.Intervals.PhaseEval)
	assert.True(t, cfg.Influx.Enabled())
	assert.Equal(t, "lumenware", cfg.Influx.Org)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "PORT", "70000"},
		{"bad phase", "INITIAL_PHASE", "alpha"},
		{"negative interval", "CLEANUP_INTERVAL", "-1h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadFlagFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
flags:
  - name: assessment_v2
    enabled: true
    rollout_percentage: 10
    launch_managed: true
    target_segments: [beta, vip]
  - name: dark_mode
    enabled: false
    rollout_percentage: 0
    conditions:
      min_history_count: 3
      industries: [healthcare]
`), 0o644))

	flags, err := LoadFlagFile(path)
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, "assessment_v2", flags[0].Name)
	assert.True(t, flags[0].LaunchManaged)
	assert.Equal(t, 10.0, flags[0].RolloutPercentage)
	assert.Equal(t, 3, flags[1].Conditions.MinHistoryCount)
}

func TestLoadFlagFile_RejectsBadFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
flags:
  - name: ok_flag
    rollout_percentage: 50
  - name: broken
    rollout_percentage: 150
`), 0o644))

	_, err := LoadFlagFile(path)
	assert.ErrorContains(t, err, "outside [0,100]")
}

func TestLoadFlagFile_RejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flags.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
flags:
  - name: twice
  - name: twice
`), 0o644))

	_, err := LoadFlagFile(path)
	assert.ErrorContains(t, err, "duplicate flag")
}

func TestWatchFlagFile_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flags.yaml")
	require.NoError(t, os.WriteFile(path, []byte("flags:\n  - name: one\n"), 0o644))

	applied := make(chan int, 4)
	stopCh := make(chan struct{})
	defer close(stopCh)

	err := WatchFlagFile(path, func(flags []datatypes.FeatureFlag) { applied <- len(flags) }, nil, stopCh)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("flags:\n  - name: one\n  - name: two\n"), 0o644))

	select {
	case n := <-applied:
		assert.Equal(t, 2, n)
	case <-time.After(3 * time.Second):
		t.Fatal("reload never applied")
	}
}
