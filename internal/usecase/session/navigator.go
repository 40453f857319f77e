package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/logger"
)

// LogNavigator records the hand-off; the HTTP layer returns the route to the
// client, which performs the actual navigation.
type LogNavigator struct{}

// Navigate logs path with the request-scoped logger.
func (LogNavigator) Navigate(ctx context.Context, path string) error {
	logger.FromContext(ctx).Info("navigate", zap.String("location", path))
	return nil
}
