package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestWatchConfigValidate(t *testing.T) {
	tests := []struct {
		name          string
		config        *WatchConfig
		expectedError string
	}{
		{
			name:   "default config",
			config: NewWatchConfig(),
		},
		{
			name:   "zero debounce",
			config: &WatchConfig{DebounceTime: 0},
		},
		{
			name:          "negative debounce",
			config:        &WatchConfig{DebounceTime: -1},
			expectedError: "cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWatchTarget(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "spec.yaml")
	writeTestFile(t, spec, "skill: {}\n")

	assert.Equal(t, spec, watchTarget(spec))
	assert.Equal(t, spec, watchTarget(filepath.Join(dir, "SKILL.md")),
		"companion edits re-validate the sibling spec")

	loose := filepath.Join(dir, "alpha.skill.yaml")
	assert.Equal(t, loose, watchTarget(loose))

	assert.Equal(t, "", watchTarget(filepath.Join(dir, "README.md")))
	assert.Equal(t, "", watchTarget(filepath.Join(t.TempDir(), "SKILL.md")),
		"companion without a sibling spec has nothing to validate")
}

func TestDebounceFileEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan FileEvent)
	output := make(chan FileEvent, 4)
	go debounceFileEvents(ctx, input, output, 20*time.Millisecond)

	for i := 0; i < 3; i++ {
		input <- FileEvent{Path: "a/spec.yaml", Op: fsnotify.Write, Time: time.Now()}
	}
	input <- FileEvent{Path: "b/spec.yaml", Op: fsnotify.Write, Time: time.Now()}

	got := map[string]int{}
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-output:
			got[ev.Path]++
		case <-timeout:
			t.Fatal("timed out waiting for debounced events")
		}
	}

	select {
	case ev := <-output:
		t.Fatalf("unexpected extra event for %s", ev.Path)
	case <-time.After(100 * time.Millisecond):
	}

	assert.Equal(t, 1, got["a/spec.yaml"], "rapid events collapse into one")
	assert.Equal(t, 1, got["b/spec.yaml"])
}
