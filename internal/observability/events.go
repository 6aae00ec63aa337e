package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/raidsim/internal/game/combat"
)

// EventSink writes combat events to a zap logger. Error events are logged at
// warn level; everything else at debug.
//
// EventSink is safe for concurrent use when the underlying logger is.
type EventSink struct {
	logger *zap.Logger
}

var _ combat.EventSink = (*EventSink)(nil)

// NewEventSink creates an EventSink writing to logger.
//
// Precondition: logger must be non-nil.
func NewEventSink(logger *zap.Logger) *EventSink {
	return &EventSink{logger: logger}
}

// ForTrial returns a sink whose entries carry the trial index.
func (s *EventSink) ForTrial(trial int) combat.EventSink {
	return &EventSink{logger: s.logger.With(zap.Int("trial", trial))}
}

// Emit implements combat.EventSink.
func (s *EventSink) Emit(ev combat.Event) {
	level := zapcore.DebugLevel
	if ev.Type == combat.EventError {
		level = zapcore.WarnLevel
	}
	ce := s.logger.Check(level, "combat event")
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.Int("tick", ev.Tick),
		zap.String("type", string(ev.Type)),
		zap.Int("boss_hp", ev.BossHP),
		zap.Int("phase", ev.Phase),
	}
	if ev.Actor != "" {
		fields = append(fields, zap.String("actor", ev.Actor))
	}
	if ev.Amount != 0 {
		fields = append(fields, zap.Int("amount", ev.Amount))
	}
	if ev.Detail != "" {
		fields = append(fields, zap.String("detail", ev.Detail))
	}
	ce.Write(fields...)
}
