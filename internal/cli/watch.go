package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roboco-io/picturize/internal/logging"
)

const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "문서 변경을 감시하여 자동으로 다시 빌드",
	Long: `디렉토리를 처음 한 번 빌드한 뒤 변경을 감시합니다.

문서가 바뀌면 해당 문서만 다시 빌드하고,
이미지가 바뀌면 디렉토리 전체를 다시 빌드합니다.
Ctrl+C로 종료합니다.

예시:
  picturize watch ./site --dist ./dist`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	addBuildFlags(watchCmd)

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := args[0]
	logger := newLogger()
	defer logger.Sync()

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("디렉토리를 찾을 수 없습니다: %s", root)
	}

	ctx, stop := signal.NotifyContext(withContext(cmd), os.Interrupt)
	defer stop()

	rebuild := func(ctx context.Context, docs []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if docs == nil {
			if docs, _, err = collectDocuments([]string{root}); err != nil {
				return err
			}
		}
		builder, err := newBuilder(cfg, root, false, logger)
		if err != nil {
			return err
		}
		defer builder.Close()

		report, err := builder.Build(ctx, docs)
		if report != nil {
			printReport(cmd, report, false)
		}
		return err
	}

	if err := rebuild(ctx, nil); err != nil {
		logger.Error("initial build failed", zap.Error(err))
	}

	w, err := newDocWatcher(root, watchDebounce, rebuild, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "감시 중: %s (Ctrl+C로 종료)\n", root)
	return w.Run(ctx)
}

// docWatcher batches file system events and hands the changed documents to
// rebuild. A nil batch means everything must be rebuilt.
type docWatcher struct {
	root    string
	delay   time.Duration
	rebuild func(ctx context.Context, docs []string) error
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

func newDocWatcher(root string, delay time.Duration, rebuild func(context.Context, []string) error, logger *zap.Logger) (*docWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &docWatcher{
		root:    root,
		delay:   delay,
		rebuild: rebuild,
		watcher: fw,
		logger:  logging.OrNop(logger),
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its subdirectories, skipping hidden and output directories.
func (w *docWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (d.Name()[0] == '.' || isOutputDir(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run processes events until ctx is done.
func (w *docWatcher) Run(ctx context.Context) error {
	pending := make(map[string]bool)
	full := false

	timer := time.NewTimer(w.delay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.track(event, pending, &full) {
				continue
			}
			timer.Reset(w.delay)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			var docs []string
			if !full {
				docs = make([]string, 0, len(pending))
				for doc := range pending {
					docs = append(docs, doc)
				}
				sort.Strings(docs)
			}
			pending = make(map[string]bool)
			full = false

			w.logger.Info("rebuilding", zap.Int("documents", len(docs)), zap.Bool("full", docs == nil))
			if err := w.rebuild(ctx, docs); err != nil {
				w.logger.Error("rebuild failed", zap.Error(err))
			}
		}
	}
}

// track records event and reports whether it should trigger a rebuild.
func (w *docWatcher) track(event fsnotify.Event, pending map[string]bool, full *bool) bool {
	name := filepath.Base(event.Name)
	if name == "" || name[0] == '.' || isOutputDir(filepath.Dir(event.Name)) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return false
		}
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}

	if isBuildable(event.Name) {
		if _, err := os.Stat(event.Name); err == nil {
			pending[event.Name] = true
		}
		return true
	}
	*full = true
	return true
}

// Close stops watching.
func (w *docWatcher) Close() error {
	return w.watcher.Close()
}
