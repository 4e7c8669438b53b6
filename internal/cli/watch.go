package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"showlist/internal/config"
	"showlist/internal/logger"
	"showlist/pkg/utils"
)

// ErrNothingToWatch is returned when every input is a URL.
var ErrNothingToWatch = errors.New("no local input files to watch")

const defaultDebounce = 500 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run whenever an input file changes",
		Long: `Run once, then watch the local input files and run again after each
change. Changes that arrive while a run is in progress trigger one more run
after it finishes.`,
		Example: `  showlist watch --events listing.txt --venues venues.txt --out public/data`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log := logger.FromContext(cmd.Context()).WithComponent("watch")
			r := newRunner(cfg, logger.FromContext(cmd.Context()))

			return watch(cmd.Context(), cfg, debounce, log, func(ctx context.Context) {
				runAndLog(ctx, r, log)
			})
		},
	}

	addRunFlags(cmd.Flags())
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "Quiet period after a change before running")

	return cmd
}

func runAndLog(ctx context.Context, r *runner, log *logger.Logger) {
	if _, err := r.run(ctx); err != nil && ctx.Err() == nil {
		log.Error("run failed", "error", err)
	}
}

func watch(ctx context.Context, cfg *config.Config, debounce time.Duration, log *logger.Logger, run func(context.Context)) error {
	dirs, files, err := watchPaths(cfg)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	run(ctx)

	log.Info("watching for changes", "files", len(files), "debounce", debounce)

	w := &watchLoop{files: files, debounce: debounce, log: log, run: run}

	return w.loop(ctx, watcher.Events, watcher.Errors)
}

// watchPaths returns the directories to watch and the absolute paths of the
// local inputs inside them. Directories are watched rather than files so
// that editors which replace a file on save are still seen.
func watchPaths(cfg *config.Config) ([]string, map[string]bool, error) {
	files := make(map[string]bool)
	seen := make(map[string]bool)

	var dirs []string

	for _, location := range []string{cfg.Input.Events, cfg.Input.Venues, cfg.Input.Aliases} {
		if location == "" || utils.IsURL(location) {
			continue
		}

		abs, err := filepath.Abs(location)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve %s: %w", location, err)
		}

		files[abs] = true

		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	if len(files) == 0 {
		return nil, nil, ErrNothingToWatch
	}

	return dirs, files, nil
}

// watchLoop debounces file events into runs. Runs execute on the loop
// goroutine, so at most one is in progress.
type watchLoop struct {
	files    map[string]bool
	debounce time.Duration
	log      *logger.Logger
	run      func(context.Context)
}

func (w *watchLoop) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	trigger := make(chan struct{}, 1)

	var timer *time.Timer

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}

			if !w.relevant(event) {
				continue
			}

			w.log.Debug("change detected", "path", event.Name, "op", event.Op.String())

			if timer != nil {
				timer.Stop()
			}

			timer = time.AfterFunc(w.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case err, ok := <-errs:
			if !ok {
				return nil
			}

			w.log.Warn("watcher error", "error", err)
		case <-trigger:
			w.run(ctx)
		}
	}
}

func (w *watchLoop) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}

	return w.files[filepath.Clean(event.Name)]
}
