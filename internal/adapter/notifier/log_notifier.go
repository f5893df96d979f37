package notifier

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes new-item messages to the log.
type LogNotifier struct {
	language string
	logger   *zap.Logger
}

func NewLogNotifier(language string, logger *zap.Logger) *LogNotifier {
	return &LogNotifier{language: language, logger: logger.Named("notifier")}
}

func (n *LogNotifier) Notify(_ context.Context, title, url string) error {
	n.logger.Info(FormatMessage(n.language, title, url),
		zap.String("title", title),
		zap.String("url", url),
	)
	return nil
}
