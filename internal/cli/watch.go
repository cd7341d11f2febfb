package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// defaultDebounce coalesces the burst of events editors emit on save.
const defaultDebounce = 300 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		f          viewFlags
		formatsStr string
		debounce   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [table.tsv]",
		Short: "Recompute every view whenever an input file changes",
		Long: `Recompute every view whenever an input file changes.

Behaves like 'run', then watches the table and every other input file
(annotations, taxonomy, edges, manifest, nodes and the config file) and reruns
when one of them is written. Unchanged views are served from the cache.
Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.src.Table = args[0]
			f.opts.Formats = parseFormats(formatsStr)
			return c.runWatch(cmd.Context(), cmd, &f, debounce)
		},
	}

	addRunFlags(cmd, &f, &formatsStr)
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "wait this long after a change before rerunning")
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, cmd *cobra.Command, f *viewFlags, debounce time.Duration) error {
	s, err := c.prepare(ctx, cmd, f)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := c.executeOnce(ctx, s, f); err != nil {
		return err
	}

	paths := []string{f.src.Table, f.src.Annotations, f.src.Taxonomy, f.src.Edges, f.src.Manifest, f.src.Nodes, c.configPath}
	w, err := newInputWatcher(paths, debounce)
	if err != nil {
		return err
	}
	printNewline()
	printInfo("Watching %s", count(len(w.files), "file", "files"))

	return w.run(ctx, func(changed string) {
		c.Logger.Info("input changed", "file", changed)
		p := newProgress(c.Logger)
		if _, err := c.executeOnce(ctx, s, f); err != nil {
			printWarning("Rerun failed: %v", err)
			return
		}
		p.done("recomputed views")
	})
}

// inputWatcher reports writes to a fixed set of files. It watches their
// parent directories, so files replaced by rename (as most editors save) keep
// being tracked.
type inputWatcher struct {
	files    map[string]bool
	dirs     []string
	debounce time.Duration
}

func newInputWatcher(paths []string, debounce time.Duration) (*inputWatcher, error) {
	w := &inputWatcher{files: make(map[string]bool), debounce: debounce}
	seenDir := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
		w.files[abs] = true
		if dir := filepath.Dir(abs); !seenDir[dir] {
			seenDir[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// run calls onChange with the last changed file once events have settled for
// the debounce interval. It returns when ctx is done.
func (w *inputWatcher) run(ctx context.Context, onChange func(path string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("input watcher: %w", err)
	}
	defer fw.Close()
	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("input watcher add %s: %w", dir, err)
		}
	}

	var (
		mu      sync.Mutex
		timer   *time.Timer
		pending string
		fire    = make(chan string, 1)
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			mu.Lock()
			pending = ev.Name
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				mu.Lock()
				name := pending
				mu.Unlock()
				select {
				case fire <- name:
				default:
				}
			})
			mu.Unlock()
		case name := <-fire:
			onChange(name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("input watcher: %w", err)
		}
	}
}

func (w *inputWatcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}
