package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogStreamer wraps zap with the trace-id + source convention used across
// classboard services.
type LogStreamer struct {
	zl          *zap.Logger
	environment string
}

func NewLogStreamer(environment string) (*LogStreamer, error) {
	var zl *zap.Logger
	var err error
	if environment == "production" {
		zl, err = zap.NewProduction()
	} else {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	return &LogStreamer{zl: zl, environment: environment}, nil
}

// NewNop returns a streamer that discards everything. Test use only.
func NewNop() *LogStreamer {
	return &LogStreamer{zl: zap.NewNop()}
}

// Log emits one structured line. traceID correlates all lines of a single
// operation; source names the emitting layer (SERVICE, REPO, CRON).
func (s *LogStreamer) Log(level zapcore.Level, traceID, msg string, fields map[string]any, source string, err error) {
	zfields := make([]zap.Field, 0, len(fields)+3)
	zfields = append(zfields, zap.String("traceId", traceID), zap.String("source", source))
	for k, v := range fields {
		zfields = append(zfields, zap.Any(k, v))
	}
	if err != nil {
		zfields = append(zfields, zap.Error(err))
	}

	switch level {
	case zapcore.DebugLevel:
		s.zl.Debug(msg, zfields...)
	case zapcore.WarnLevel:
		s.zl.Warn(msg, zfields...)
	case zapcore.ErrorLevel:
		s.zl.Error(msg, zfields...)
	default:
		s.zl.Info(msg, zfields...)
	}
}

func (s *LogStreamer) Sync() {
	_ = s.zl.Sync()
}
