package assetcache

import (
	"io"
	"sync/atomic"
	"time"
)

// idleWatchdog cancels a download once it has gone limit without progress.
type idleWatchdog struct {
	limit time.Duration
	timer *time.Timer
	fired atomic.Bool
}

func newIdleWatchdog(limit time.Duration, cancel func()) *idleWatchdog {
	w := &idleWatchdog{limit: limit}
	w.timer = time.AfterFunc(limit, func() {
		w.fired.Store(true)
		cancel()
	})
	return w
}

func (w *idleWatchdog) touch() {
	if !w.fired.Load() {
		w.timer.Reset(w.limit)
	}
}

func (w *idleWatchdog) stop() {
	w.timer.Stop()
}

func (w *idleWatchdog) expired() bool {
	return w.fired.Load()
}

func (w *idleWatchdog) reader(r io.Reader) io.Reader {
	return &idleReader{r: r, watchdog: w}
}

type idleReader struct {
	r        io.Reader
	watchdog *idleWatchdog
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.watchdog.touch()
	}
	return n, err
}
