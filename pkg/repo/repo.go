package repo

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spursup/feedserver/pkg/collector"
	"github.com/spursup/feedserver/pkg/feed"
	"github.com/spursup/feedserver/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Repo holds the current snapshot of collected items
type (
	Repo struct {
		l                       *zap.Logger
		feeds                   []feed.Feed
		collector               *collector.Collector
		history                 *History
		poll                    bool
		pollInterval            time.Duration
		onLoaded                func()
		loaded                  *atomic.Bool
		updateInProgressChannel chan chan updateResponse
		snapshot                *feed.Snapshot
		snapshotLock            sync.RWMutex
		jsonBuffer              *bytes.Buffer
		jsonBufferLock          sync.RWMutex
	}
	Option func(*Repo)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, feeds []feed.Feed, c *collector.Collector, history *History, opts ...Option) *Repo {
	inst := &Repo{
		l:                       l.Named("repo"),
		feeds:                   feeds,
		collector:               c,
		history:                 history,
		poll:                    false,
		pollInterval:            time.Hour,
		loaded:                  &atomic.Bool{},
		updateInProgressChannel: make(chan chan updateResponse),
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithPoll(v bool) Option {
	return func(o *Repo) {
		o.poll = v
	}
}

func WithPollInterval(v time.Duration) Option {
	return func(o *Repo) {
		o.pollInterval = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (r *Repo) Loaded() bool {
	return r.loaded.Load()
}

func (r *Repo) Feeds() []feed.Feed {
	return r.feeds
}

// Snapshot returns the currently served snapshot, nil before the first
// successful collection or restore.
func (r *Repo) Snapshot() *feed.Snapshot {
	r.snapshotLock.RLock()
	defer r.snapshotLock.RUnlock()
	return r.snapshot
}

func (r *Repo) SetSnapshot(v *feed.Snapshot) {
	r.snapshotLock.Lock()
	defer r.snapshotLock.Unlock()
	r.snapshot = v
}

func (r *Repo) JSONBufferBytes() []byte {
	r.jsonBufferLock.RLock()
	defer r.jsonBufferLock.RUnlock()
	if r.jsonBuffer == nil {
		return nil
	}
	return r.jsonBuffer.Bytes()
}

func (r *Repo) SetJSONBuffer(v *bytes.Buffer) {
	r.jsonBufferLock.Lock()
	defer r.jsonBufferLock.Unlock()
	r.jsonBuffer = v
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (r *Repo) OnLoaded(fn func()) {
	r.onLoaded = fn
}

// WriteItemsJSON writes the current snapshot to the provided writer. It
// serves from the in-memory buffer, falls back to storage on a cold start
// and emits an empty payload when nothing has ever been collected, so the
// output is always valid JSON.
func (r *Repo) WriteItemsJSON(ctx context.Context, w io.Writer) error {
	data := r.JSONBufferBytes()

	if len(data) == 0 {
		var buf bytes.Buffer
		err := r.history.GetCurrent(ctx, &buf)
		if errors.Is(err, os.ErrNotExist) {
			_, err = io.WriteString(w, feed.EmptyJSON)
			return err
		} else if err != nil {
			return errors.Wrap(err, "failed to read snapshot from storage")
		}
		data = buf.Bytes()
	}

	_, err := w.Write(data)
	return errors.Wrap(err, "failed to write snapshot")
}

// Update triggers a collection and reports its outcome. Only one update runs
// at a time, a concurrent trigger is rejected, never queued.
func (r *Repo) Update(ctx context.Context) *UpdateResult {
	floatSeconds := func(nanoSeconds int64) float64 {
		return float64(nanoSeconds) / float64(1000000000)
	}

	r.l.Info("update triggered")

	start := time.Now()
	collectRuntime, err := r.tryUpdate(ctx)
	result := &UpdateResult{}
	result.Stats.CollectRuntime = floatSeconds(collectRuntime)

	if err != nil {
		result.Success = false
		result.Stats.NumberOfItems = -1
		result.ErrorMessage = err.Error()

		if errors.Is(err, ErrUpdateRejected) {
			result.Rejected = true
		} else {
			r.l.Error("failed to update snapshot", zap.Error(err))

			// keep serving the previous state
			if restoreErr := r.tryToRestoreCurrent(ctx); restoreErr != nil {
				r.l.Error("failed to restore preceding snapshot", zap.Error(restoreErr))
			} else {
				r.l.Info("successfully restored current snapshot from local history")
			}
		}
	} else {
		result.Success = true
		if historyErr := r.history.Add(context.WithoutCancel(ctx), r.JSONBufferBytes()); historyErr != nil {
			r.l.Error("could not persist current snapshot in history", zap.Error(historyErr))
			metrics.HistoryPersistFailedCounter.WithLabelValues().Inc()
		} else {
			r.l.Info("successfully persisted current snapshot to history")
		}
		if s := r.Snapshot(); s != nil {
			result.Stats.NumberOfItems = len(s.Items)
			result.Updated = s.Updated
		}
	}
	result.Stats.OwnRuntime = floatSeconds(time.Since(start).Nanoseconds()) - result.Stats.CollectRuntime
	return result
}

// Start runs the update routine, restores the last persisted snapshot,
// collects once if still unloaded and optionally keeps re-collecting on an
// interval. It blocks until the context is canceled.
func (r *Repo) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	l := r.l.Named("start")

	up := make(chan bool, 1)
	g.Go(func() error {
		l.Debug("starting update routine")
		up <- true
		return r.UpdateRoutine(gCtx)
	})
	l.Debug("waiting for UpdateRoutine")
	<-up

	l.Debug("trying to restore previous snapshot")
	if err := r.tryToRestoreCurrent(gCtx); errors.Is(err, os.ErrNotExist) {
		l.Info("previous snapshot file does not exist")
	} else if err != nil {
		l.Warn("could not restore previous snapshot", zap.Error(err))
	} else {
		l.Info("restored previous snapshot")
	}

	if r.poll {
		g.Go(func() error {
			l.Debug("starting poll routine")
			return r.PollRoutine(gCtx)
		})
	}

	if !r.Loaded() {
		l.Debug("collecting initial state")
		if result := r.Update(gCtx); !result.Success {
			l.Error("failed to collect initial state",
				zap.String("error", result.ErrorMessage),
				zap.Int("num_items", result.Stats.NumberOfItems),
				zap.Float64("own_runtime", result.Stats.OwnRuntime),
				zap.Float64("collect_runtime", result.Stats.CollectRuntime),
			)
		}
	}

	return g.Wait()
}
