package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillspec/pkg/logger"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/report"
	"github.com/jingkaihe/skillspec/pkg/skill"
	"github.com/jingkaihe/skillspec/pkg/validator"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	Strict       bool
	Locale       string
	DebounceTime int // milliseconds
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		Strict:       false,
		Locale:       "",
		DebounceTime: 500,
	}
}

// Validate checks if the watch configuration is valid
func (c *WatchConfig) Validate() error {
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

// FileEvent represents a file system event with additional metadata
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-validate skill documents whenever they change",
	Long: `Continuously monitors the drafts and skills directories and re-runs the
validator whenever a spec.yaml, *.skill.yaml or SKILL.md file changes.

Companion edits re-validate the sibling spec.yaml so that structure
findings stay current. Watched runs are never recorded in the diary.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Create a cancellable context that listens for signals
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		config := getWatchConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		// Set up signal handling
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			presenter.Warning("\nCancellation requested, shutting down...")
			cancel()
		}()

		runWatchCommand(ctx, config)
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().Bool("strict", defaults.Strict, "Re-validate in strict mode")
	watchCmd.Flags().String("locale", defaults.Locale, "Report locale for findings")
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()

	if strict, err := cmd.Flags().GetBool("strict"); err == nil {
		config.Strict = strict
	}
	if locale, err := cmd.Flags().GetString("locale"); err == nil {
		config.Locale = locale
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}

	return config
}

func runWatchCommand(ctx context.Context, config *WatchConfig) {
	ws, err := workspace.Find(".")
	if err != nil {
		presenter.Error(err, "Failed to locate workspace")
		os.Exit(1)
	}
	project := ws.LoadProject()

	engine, err := buildEngine(ws, project, config.Strict, nil, "")
	if err != nil {
		presenter.Error(err, "Failed to configure validator")
		os.Exit(1)
	}
	renderer := newWorkspaceRenderer(ws, project, config.Locale)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		presenter.Error(err, "Failed to create file watcher")
		logger.G(ctx).WithError(err).Fatal("Failed to create file watcher")
	}
	defer watcher.Close()

	// Setup debouncing mechanism
	events := make(chan FileEvent)
	debouncedEvents := make(chan FileEvent)

	// Start debouncer goroutine
	go debounceFileEvents(ctx, events, debouncedEvents, time.Duration(config.DebounceTime)*time.Millisecond)

	// Process events
	go func() {
		for {
			select {
			case event, ok := <-debouncedEvents:
				if !ok {
					return
				}
				presenter.Info(fmt.Sprintf("Change detected: %s (%s)", event.Path, event.Op))
				logger.G(ctx).WithFields(map[string]interface{}{
					"file":      event.Path,
					"operation": event.Op.String(),
					"timestamp": event.Time,
				}).Debug("File change detected")
				revalidateDocument(ctx, engine, renderer, event.Path)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Watch for events
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// New skill directories need to be watched too
				if event.Op&fsnotify.Create != 0 {
					if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
						if addErr := watcher.Add(event.Name); addErr != nil {
							logger.G(ctx).WithError(addErr).WithField("directory", event.Name).Warn("Failed to watch new directory")
						}
						continue
					}
				}

				// Only process write and create events
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					target := watchTarget(event.Name)
					if target == "" {
						continue
					}
					events <- FileEvent{
						Path: target,
						Op:   event.Op,
						Time: time.Now(),
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				presenter.Error(err, "File watcher error")
				logger.G(ctx).WithError(err).Error("Error watching files")
			case <-ctx.Done():
				return
			}
		}
	}()

	// Add the document roots and their subdirectories to the watcher
	watched := 0
	for _, root := range []string{ws.DraftsDir(), ws.SkillsDir()} {
		if _, statErr := os.Stat(root); statErr != nil {
			continue
		}
		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				logger.G(ctx).WithField("directory", path).Debug("Adding directory to watcher")
				return watcher.Add(path)
			}
			return nil
		})
		if err != nil {
			presenter.Error(err, "Failed to watch directories")
			logger.G(ctx).WithError(err).Fatal("Failed to watch directories")
		}
		watched++
	}
	if watched == 0 {
		presenter.Error(errors.Errorf("neither %s nor %s exists", ws.DraftsDir(), ws.SkillsDir()), "Nothing to watch")
		os.Exit(1)
	}

	presenter.Info(fmt.Sprintf("Watching %s for skill document changes... Press Ctrl+C to stop", ws.Root))
	logger.G(ctx).WithField("workspace", ws.Root).Info("File watcher initialized")

	// Wait for context cancellation
	<-ctx.Done()
}

// Debounce file events to prevent processing multiple rapid changes to the same file
func debounceFileEvents(ctx context.Context, input <-chan FileEvent, output chan<- FileEvent, delay time.Duration) {
	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	stopAll := func() {
		mu.Lock()
		defer mu.Unlock()
		for _, timer := range pending {
			timer.Stop()
		}
	}

	for {
		select {
		case event, ok := <-input:
			if !ok {
				stopAll()
				return
			}
			mu.Lock()
			// Cancel any pending timer for this file
			if timer, exists := pending[event.Path]; exists {
				timer.Stop()
			}
			eventCopy := event
			pending[event.Path] = time.AfterFunc(delay, func() {
				mu.Lock()
				delete(pending, eventCopy.Path)
				mu.Unlock()
				select {
				case output <- eventCopy:
				case <-ctx.Done():
				}
			})
			mu.Unlock()
		case <-ctx.Done():
			stopAll()
			return
		}
	}
}

// watchTarget maps a changed file to the document that should be re-validated.
// Returns an empty string when the change is not a skill document.
func watchTarget(path string) string {
	base := filepath.Base(path)
	switch {
	case base == workspace.SpecFileName:
		return path
	case strings.HasSuffix(base, ".skill.yaml"):
		return path
	case base == skill.CompanionFileName:
		sibling := filepath.Join(filepath.Dir(path), workspace.SpecFileName)
		if _, err := os.Stat(sibling); err == nil {
			return sibling
		}
		return ""
	default:
		return ""
	}
}

func revalidateDocument(ctx context.Context, engine *validator.Engine, renderer *report.Renderer, path string) {
	// The file may be gone by the time the debounce fires
	if _, err := os.Stat(path); err != nil {
		logger.G(ctx).WithField("file", path).Debug("Document removed before re-validation")
		return
	}

	rep := engine.ValidateFile(ctx, path)

	presenter.Separator()
	fmt.Println(renderer.Text(report.NewPayload(rep)))
}
