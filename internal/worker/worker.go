// Package worker implements the per-user pipeline execution loop.
package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/outreachkit/prospector/internal/metrics"
	"github.com/outreachkit/prospector/internal/pipeline"
	"github.com/outreachkit/prospector/internal/progress"
)

// Config controls Worker behavior.
type Config struct {
	// Topic names the downstream handoff topic. Empty disables publishing.
	Topic string
}

// Runner runs one user through the discovery stages.
type Runner interface {
	Process(ctx context.Context, user pipeline.UserRecord) (pipeline.BestEmailRecord, bool)
}

// Worker drains a UserRecord feed and runs each user's pipeline to
// completion, persisting and publishing the resulting record.
type Worker struct {
	runner    Runner
	store     pipeline.RecordStore
	publisher pipeline.Publisher
	tracker   *progress.Tracker
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Worker. Store, publisher, and tracker may each be nil.
func New(
	runner Runner,
	store pipeline.RecordStore,
	publisher pipeline.Publisher,
	tracker *progress.Tracker,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		runner:    runner,
		store:     store,
		publisher: publisher,
		tracker:   tracker,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run blocks, consuming users from the feed until the feed closes or the
// context finishes. A canceled context stops new users from starting; the
// in-flight pipeline finishes its current call and emits a partial record.
func (w *Worker) Run(ctx context.Context, feed <-chan pipeline.UserRecord) {
	for {
		select {
		case <-ctx.Done():
			return
		case user, ok := <-feed:
			if !ok {
				return
			}
			w.processUser(ctx, user)
		}
	}
}

func (w *Worker) processUser(ctx context.Context, user pipeline.UserRecord) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	record, ok := w.runner.Process(ctx, user)
	if !ok {
		if w.tracker != nil {
			w.tracker.UserNoEmail()
		}
		return
	}
	if w.tracker != nil {
		w.tracker.UserDone(record.Verdict)
	}
	w.logger.Info("best email chosen",
		zap.String("user_id", record.UserID),
		zap.String("address", record.Address),
		zap.String("verdict", string(record.Verdict)),
		zap.String("source", string(record.Source)),
	)

	if w.store != nil {
		if err := w.store.Upsert(ctx, record); err != nil {
			w.logger.Error("record upsert failed",
				zap.String("user_id", record.UserID),
				zap.Error(err),
			)
		}
	}
	w.publishRecord(ctx, record)
}

func (w *Worker) publishRecord(ctx context.Context, record pipeline.BestEmailRecord) {
	if w.cfg.Topic == "" || w.publisher == nil {
		return
	}
	id, err := w.publisher.Publish(ctx, w.cfg.Topic, record)
	if err != nil {
		w.logger.Error("record publish failed",
			zap.String("user_id", record.UserID),
			zap.Error(err),
		)
		return
	}
	w.logger.Debug("record published",
		zap.String("user_id", record.UserID),
		zap.String("message_id", id),
	)
}
