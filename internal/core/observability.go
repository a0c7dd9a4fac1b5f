package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MetricsRecorder receives one observation per service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan terminates a span started by a Tracer.
type TraceSpan interface {
	End(err error)
}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// AuditEntry is one committed mutation as seen by an AuditRecorder.
type AuditEntry struct {
	Operation  string    `json:"operation"`
	Changes    []Change  `json:"changes"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AuditRecorder consumes the change log of committed transactions.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithLogger attaches a structured logger to the service.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder attaches a metrics recorder to the service.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		s.metrics = recorder
	}
}

// WithTracer attaches a tracer to the service.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithAuditRecorder attaches an audit recorder to the service.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) {
		s.audit = recorder
	}
}

// WithClock overrides the service clock, used by tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// instrument wraps one operation with tracing, metrics and logging.
func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	started := s.nowFn()

	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}

	err := fn(ctx)

	duration := s.nowFn().Sub(started)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, duration)
	}
	if s.logger != nil {
		if err != nil {
			s.logger.Warn("operation failed",
				zap.String("operation", operation),
				zap.Duration("duration", duration),
				zap.Error(err))
		} else {
			s.logger.Debug("operation completed",
				zap.String("operation", operation),
				zap.Duration("duration", duration))
		}
	}
	return err
}

func (s *Service) recordAudit(ctx context.Context, operation string, changes []Change) {
	if s.audit == nil || len(changes) == 0 {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation:  operation,
		Changes:    changes,
		OccurredAt: s.nowFn(),
	})
}
