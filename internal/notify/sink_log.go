package notify

import "go.uber.org/zap"

// LogSink writes notifications to the structured log instead of the desktop.
// Useful on headless machines and as a delivery audit trail.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a log sink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("log_sink")}
}

func (s *LogSink) Send(title, body, url string, flags Flags) error {
	s.logger.Info("notification",
		zap.String("title", title),
		zap.String("body", body),
		zap.String("url", url),
		zap.Bool("persistent", flags.Persistent),
	)
	return nil
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) SupportsPersistent() bool { return false }
