// Package historian drains the score event queue in Redis and persists the
// events to the match_events table in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jason-s-yu/truco/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Queue is the part of *redis.Client the historian reads from.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Writer persists a batch of events. *database.Store implements it.
type Writer interface {
	InsertEvents(ctx context.Context, events []models.ScoreEvent) error
}

// Service pops events one at a time and flushes them once the batch is full
// or the flush delay has passed since the last flush.
type Service struct {
	queue      Queue
	queueName  string
	writer     Writer
	batchSize  int
	flushDelay time.Duration
	logger     *logrus.Logger

	batch     []models.ScoreEvent
	lastFlush time.Time
	failures  int
}

// maxFlushAttempts is how often a batch is written before it is dropped.
const maxFlushAttempts = 3

func New(queue Queue, queueName string, writer Writer, batchSize int, flushDelay time.Duration, logger *logrus.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 1
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	return &Service{
		queue:      queue,
		queueName:  queueName,
		writer:     writer,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		logger:     logger,
		batch:      make([]models.ScoreEvent, 0, batchSize),
	}
}

// Run processes the queue until ctx is cancelled. Pending events are flushed
// before it returns.
func (s *Service) Run(ctx context.Context) error {
	s.logger.WithField("queue", s.queueName).Info("truco-historian started")
	s.lastFlush = time.Now()

	for {
		if ctx.Err() != nil {
			s.flush(context.Background())
			s.logger.Info("truco-historian shutting down")
			return nil
		}

		// The BLPop timeout doubles as the flush tick.
		res, err := s.queue.BLPop(ctx, s.flushDelay, s.queueName).Result()
		switch {
		case err == nil && len(res) == 2:
			s.add(res[1])
		case err == nil, errors.Is(err, redis.Nil):
		case ctx.Err() != nil:
			continue
		default:
			s.logger.WithError(err).Error("BLPop failed")
			time.Sleep(s.flushDelay)
		}

		if len(s.batch) >= s.batchSize || time.Since(s.lastFlush) >= s.flushDelay {
			s.flush(ctx)
		}
	}
}

// add decodes one queue entry; malformed entries are logged and dropped.
func (s *Service) add(payload string) {
	var ev models.ScoreEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.logger.WithError(err).Warn("invalid score event")
		return
	}
	s.batch = append(s.batch, ev)
}

func (s *Service) flush(ctx context.Context) {
	s.lastFlush = time.Now()
	if len(s.batch) == 0 {
		return
	}
	n := len(s.batch)
	if err := s.writer.InsertEvents(ctx, s.batch); err != nil {
		s.failures++
		entry := s.logger.WithError(err).WithFields(logrus.Fields{
			"events":  n,
			"attempt": s.failures,
		})
		if s.failures < maxFlushAttempts {
			// The batch is kept and retried on the next flush.
			entry.Warn("failed to flush score events")
			return
		}
		entry.Error("dropping score events after repeated flush failures")
	} else {
		s.logger.WithField("events", n).Debug("flushed score events")
	}
	s.batch = s.batch[:0]
	s.failures = 0
}
