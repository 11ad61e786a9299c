package worker

import (
	"go.uber.org/zap"
)

// EventConsumer subscribes its handlers to the dispatcher it was built with.
type EventConsumer interface {
	RegisterHandlers()
}

// StartEventConsumers registers each consumer once. Handlers run in the
// publisher's goroutine, so there is nothing to stop on shutdown.
func StartEventConsumers(logger *zap.Logger, consumers ...EventConsumer) int {
	started := 0
	for _, c := range consumers {
		if c == nil {
			continue
		}
		c.RegisterHandlers()
		started++
	}
	logger.Info("event consumers registered", zap.Int("count", started))
	return started
}
