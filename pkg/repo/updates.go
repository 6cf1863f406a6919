package repo

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spursup/feedserver/pkg/feed"
	"github.com/spursup/feedserver/pkg/metrics"
	"go.uber.org/zap"
)

// ErrUpdateRejected is returned when an update is triggered while another
// one is still running.
var ErrUpdateRejected = errors.New("update rejected: collection in progress")

type updateResponse struct {
	collectRuntime int64
	err            error
}

// UpdateRoutine consumes update triggers one at a time. All collections run
// through this routine, which serializes them without queueing.
func (r *Repo) UpdateRoutine(ctx context.Context) error {
	l := r.l.Named("routine.update")
	for {
		select {
		case <-ctx.Done():
			l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case resChan := <-r.updateInProgressChannel:
			start := time.Now()
			l := l.With(zap.String("run_id", uuid.New().String()))

			l.Info("collection started")

			collectRuntime, err := r.update(context.WithoutCancel(ctx))
			if err != nil {
				l.Error("collection failed", zap.Error(err))
				metrics.CollectsFailedCounter.WithLabelValues().Inc()
			} else {
				if !r.Loaded() {
					r.loaded.Store(true)
					l.Info("initial collection success")
					if r.onLoaded != nil {
						r.onLoaded()
					}
				} else {
					l.Info("collection success")
				}
				metrics.CollectsCompletedCounter.WithLabelValues().Inc()
			}

			resChan <- updateResponse{
				collectRuntime: collectRuntime,
				err:            err,
			}

			metrics.CollectDuration.WithLabelValues().Observe(time.Since(start).Seconds())
		}
	}
}

// PollRoutine re-collects on a fixed interval
func (r *Repo) PollRoutine(ctx context.Context) error {
	l := r.l.Named("routine.poll")
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case <-ticker.C:
			chanResponse := make(chan updateResponse)
			r.updateInProgressChannel <- chanResponse
			response := <-chanResponse
			if response.err == nil {
				l.Info("scheduled collection success")
				if s := r.Snapshot(); s != nil {
					metrics.ItemsGauge.WithLabelValues().Set(float64(len(s.Items)))
				}
			} else {
				l.Error("scheduled collection failed", zap.Error(response.err))
			}
		}
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// tryUpdate limits resources and allows only one update at once
func (r *Repo) tryUpdate(_ context.Context) (collectRuntime int64, err error) {
	c := make(chan updateResponse)
	select {
	case r.updateInProgressChannel <- c:
		r.l.Debug("update request handed to routine")
		ur := <-c
		return ur.collectRuntime, ur.err
	default:
		return 0, ErrUpdateRejected
	}
}

// update runs the collector and swaps in the new snapshot. Called from the
// update routine only.
func (r *Repo) update(ctx context.Context) (collectRuntime int64, err error) {
	startTimeCollect := time.Now().UnixNano()

	snapshot, err := r.collector.Collect(ctx, r.feeds)
	collectRuntime = time.Now().UnixNano() - startTimeCollect
	if err != nil {
		return collectRuntime, err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return collectRuntime, errors.Wrap(err, "failed to serialize snapshot")
	}

	r.SetSnapshot(snapshot)
	r.SetJSONBuffer(bytes.NewBuffer(data))
	metrics.ItemsGauge.WithLabelValues().Set(float64(len(snapshot.Items)))

	return collectRuntime, nil
}

// tryToRestoreCurrent loads the last persisted snapshot from storage into
// memory. Restored items keep the wire format only, parsed dates are gone,
// which is fine since restores are for serving, not re-sorting.
func (r *Repo) tryToRestoreCurrent(ctx context.Context) error {
	buffer := &bytes.Buffer{}
	if err := r.history.GetCurrent(ctx, buffer); err != nil {
		return err
	}

	snapshot := &feed.Snapshot{}
	if err := json.Unmarshal(buffer.Bytes(), snapshot); err != nil {
		data := buffer.Bytes()
		if len(data) > 10 {
			r.l.Debug("could not parse persisted snapshot",
				zap.String("json_start", string(data[:10])),
			)
		}
		return errors.Wrap(err, "failed to deserialize persisted snapshot")
	}

	r.SetSnapshot(snapshot)
	r.SetJSONBuffer(buffer)
	if s := r.Snapshot(); s != nil {
		metrics.ItemsGauge.WithLabelValues().Set(float64(len(s.Items)))
	}
	return nil
}
