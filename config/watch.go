package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/benz9527/rbstore/lib/infra"
)

// Watcher reloads the config file on change. Editors often replace the
// file by rename, so the parent directory is watched and the events are
// filtered by file name.
type Watcher struct {
	watcher   *fsnotify.Watcher
	path      string
	overrides map[string]any
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeErr  error
	once      sync.Once
}

// Watch calls onChange with every valid reloaded config and onError with
// every read or validation failure. The previous config stays in effect
// on failure. Endless until ctx is done or the watcher is closed.
func Watch(ctx context.Context, cfg *Config, onChange func(*Config), onError func(error)) (*Watcher, error) {
	if cfg == nil || cfg.Path() == "" {
		return nil, ErrNoConfigFile
	}
	path, err := filepath.Abs(cfg.Path())
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "failed to resolve config path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "failed to create config watcher")
	}
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, infra.WrapErrorStackWithMessage(err, "failed to add config directory to watcher")
	}

	if onError == nil {
		onError = func(error) {}
	}
	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		watcher:   watcher,
		path:      path,
		overrides: cfg.overrides,
		cancel:    cancel,
	}
	w.wg.Add(1)
	go w.loop(ctx, onChange, onError)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context, onChange func(*Config), onError func(error)) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Flags set on the command line still win over the file.
			cfg, err := load(w.path, w.overrides)
			if err != nil {
				onError(err)
				continue
			}
			if onChange != nil {
				onChange(cfg)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			onError(infra.WrapErrorStackWithMessage(err, "config watcher"))
		}
	}
}

func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	w.once.Do(func() {
		w.cancel()
		w.closeErr = w.watcher.Close()
		w.wg.Wait()
	})
	return w.closeErr
}
