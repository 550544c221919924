package tui

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// StartWatcher watches the plan file and sends FileChangedMsg after it
// changes. The parent directory is watched since editors often replace the
// file instead of writing it in place.
func StartWatcher(planPath string, program *tea.Program) (func(), error) {
	abs, err := filepath.Abs(planPath)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})

	go func() {
		var debounceTimer *time.Timer

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isPlanEvent(event, abs) {
					continue
				}

				// Debounce: wait 200ms after last change
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(200*time.Millisecond, func() {
					program.Send(FileChangedMsg{})
				})

			case <-watcher.Errors:
				// Ignore watcher errors silently

			case <-done:
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				return
			}
		}
	}()

	cleanup := func() {
		close(done)
		watcher.Close()
	}

	return cleanup, nil
}

func isPlanEvent(event fsnotify.Event, planPath string) bool {
	if filepath.Clean(event.Name) != planPath {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
