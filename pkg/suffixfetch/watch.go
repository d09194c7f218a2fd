/*
 * Copyright (C) 2023-2025, tldex contributors
 *
 * This file is part of tldex.
 *
 * tldex is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * tldex is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package suffixfetch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchFile starts a fs watcher on file that triggers a refresh when
// the file changes. Reload is debounced by one second because editors
// and atomic-save tools fire several events per write. The watcher
// stops when the Refresher is closed.
func (r *Refresher) WatchFile(file string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(file); err != nil {
		_ = w.Close()
		return err
	}

	r.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		defer w.Close()

		var delayReloadTimer *time.Timer
		for {
			select {
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				r.opts.Logger.Info(
					"fs event",
					zap.Stringer("event", e.Op),
					zap.String("file", e.Name),
				)

				if delayReloadTimer != nil {
					delayReloadTimer.Stop()
				}
				delayReloadTimer = time.AfterFunc(time.Second, func() {
					if hasOp(e, fsnotify.Remove) {
						_ = w.Remove(file)
						if err := w.Add(file); err != nil {
							r.opts.Logger.Error(
								"failed to re-watch file, auto reload may not work anymore",
								zap.String("file", file),
								zap.Error(err),
							)
						}
					}

					r.opts.Logger.Info(
						"reloading file",
						zap.String("file", file),
					)
					if err := r.Refresh(context.Background()); err != nil {
						r.opts.Logger.Error(
							"failed to reload file",
							zap.String("file", file),
							zap.Error(err),
						)
					}
				})

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.opts.Logger.Error("fs notify error", zap.Error(err))
			case <-closeSignal:
				return
			}
		}
	})
	return nil
}

func hasOp(e fsnotify.Event, op fsnotify.Op) bool {
	return e.Op&op == op
}
