// Copyright (C) 2026 Lumenware (launchcontrol@lumenware.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/lumenware/launchcontrol/services/launch/datatypes"
)

// flagFile is the YAML document shape:
//
//	flags:
//	  - name: assessment_v2
//	    enabled: true
//	    rollout_percentage: 10
//	    launch_managed: true
type flagFile struct {
	Flags []datatypes.FeatureFlag `yaml:"flags"`
}

// LoadFlagFile reads and validates a YAML flag seed file. Every flag
// must pass validation; a single bad flag rejects the whole file so a
// typo cannot silently drop half the seed.
func LoadFlagFile(path string) ([]datatypes.FeatureFlag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flag file: %w", err)
	}
	var doc flagFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse flag file %s: %w", path, err)
	}
	seen := make(map[string]bool, len(doc.Flags))
	for _, f := range doc.Flags {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("flag file %s: %w", path, err)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("flag file %s: duplicate flag %q", path, f.Name)
		}
		seen[f.Name] = true
	}
	return doc.Flags, nil
}

// WatchFlagFile re-reads path on filesystem changes and hands the
// parsed flags to apply. Parse errors keep the previous flags and log;
// the running config never degrades to a half-applied file.
//
// Editors replace files rather than writing in place, so the watcher
// watches the parent directory and re-arms after rename/remove events.
// Runs until stopCh closes.
func WatchFlagFile(path string, apply func([]datatypes.FeatureFlag), logger *slog.Logger, stopCh <-chan struct{}) error {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()

		// Coalesce bursts: editors emit several events per save.
		var pending *time.Timer
		reload := func() {
			flags, err := LoadFlagFile(target)
			if err != nil {
				logger.Error("flag file reload failed, keeping previous flags", "error", err)
				return
			}
			logger.Info("flag file reloaded", "path", target, "flags", len(flags))
			apply(flags)
		}

		for {
			select {
			case <-stopCh:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(200*time.Millisecond, reload)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("flag file watcher error", "error", err)
			}
		}
	}()
	return nil
}
