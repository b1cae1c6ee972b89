package assetservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/exp/rand"

	"github.com/techsphere/techsphere/internal/common"
)

// CleanupMessage is the payload published when a stored image is replaced or
// its owner is deleted. The key is the object key, not the public URL.
type CleanupMessage struct {
	Key string
}

// CleanupService consumes cleanup messages and deletes the named objects from
// the store. Deletion is best effort: a key that cannot be deleted after the
// retry budget is logged and dropped, never redelivered forever.
type CleanupService struct {
	mb     common.MessageConsumer
	store  common.AssetStore
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewCleanupService(mb common.MessageConsumer, store common.AssetStore, logger *slog.Logger) *CleanupService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		mb:     mb,
		store:  store,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *CleanupService) DeleteOrphanedAssets() {
	msgs, err := s.mb.Consume(common.AssetCleanupKey, common.AssetExchange, common.AssetCleanupQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data CleanupMessage
				err := json.Unmarshal(msg.Body, &data)
				if err != nil {
					s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
					msg.Ack(false)
					continue
				}

				if data.Key == "" {
					msg.Ack(false)
					continue
				}

				// exponential backoff with jitter
				const maxRetries = 5
				const baseDelay = 500 * time.Millisecond

				var attempt int
				for attempt = 0; attempt < maxRetries; attempt++ {
					err = s.store.Delete(s.ctx, data.Key)
					if err == nil {
						s.logger.Info("orphaned asset deleted", slog.String("key", data.Key))
						msg.Ack(false)
						break
					}

					delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
					s.logger.Info("delaying asset cleanup", slog.String("key", data.Key), slog.Int("attempt", attempt), slog.Duration("delay", delay))
					time.Sleep(delay)
				}

				if attempt == maxRetries {
					s.logger.Error("could not delete orphaned asset", slog.String("key", data.Key))
					msg.Ack(false)
				}

			case <-s.ctx.Done():
				s.logger.Info("stopping DeleteOrphanedAssets due to context cancellation")
				return
			}
		}
	}()
}

func (s *CleanupService) Close() {
	s.cancel()
}
