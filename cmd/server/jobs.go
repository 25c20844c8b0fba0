// Package main provides the NAU assistant server entry point.
package main

import (
	"context"
	"time"

	"github.com/nauhq/nau-assist-go/internal/history"
	"github.com/nauhq/nau-assist-go/internal/logger"
	"github.com/nauhq/nau-assist-go/internal/metrics"
)

const (
	// pruneInitialDelay lets the server stabilize before the first prune.
	pruneInitialDelay = 1 * time.Minute

	// pruneInterval is how often expired chats are removed.
	pruneInterval = 1 * time.Hour

	// chatMetricsInterval is how often the active chats gauge is refreshed.
	chatMetricsInterval = 5 * time.Minute
)

// pruneExpiredChats periodically removes chats idle longer than ttl.
func pruneExpiredChats(ctx context.Context, store history.Store, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(pruneInitialDelay):
		performPrune(ctx, store, ttl, m, log)
	}

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			performPrune(ctx, store, ttl, m, log)
		}
	}
}

// performPrune executes one prune pass.
func performPrune(ctx context.Context, store history.Store, ttl time.Duration, m *metrics.Metrics, log *logger.Logger) {
	deleted, err := store.DeleteExpired(ctx, ttl)
	if err != nil {
		log.WithError(err).Error("Failed to prune expired chats")
		return
	}
	if deleted > 0 {
		m.AddChatsPruned(deleted)
	}

	remaining, _ := store.CountChats(ctx)
	log.WithFields(map[string]interface{}{
		"deleted":   deleted,
		"remaining": remaining,
	}).Debug("Chat history prune complete")
}

// updateChatMetrics periodically refreshes the active chats gauge.
func updateChatMetrics(ctx context.Context, store history.Store, m *metrics.Metrics, log *logger.Logger) {
	ticker := time.NewTicker(chatMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := store.CountChats(ctx)
			if err != nil {
				log.WithError(err).Warn("Failed to count chats for metrics")
				continue
			}
			m.SetActiveChats(count)
		}
	}
}
