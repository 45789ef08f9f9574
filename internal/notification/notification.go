package notification

import (
	"context"
	"log/slog"
)

const (
	// KindDailyResult indicates a settled daily attempt.
	KindDailyResult = "daily_result"
	// KindStreakMilestone indicates a streak worth celebrating.
	KindStreakMilestone = "streak_milestone"
)

// Message describes a notification payload.
type Message struct {
	Kind   string
	UserID string
	Body   string
}

// Notifier delivers notifications to downstream systems. Actual transports
// (email, push) live outside this service.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "user_id", message.UserID, "body", message.Body)
	return nil
}
