package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oss-sentinel/sentinel/internal/domain"
	"github.com/oss-sentinel/sentinel/internal/metrics"
	"github.com/oss-sentinel/sentinel/internal/notify"
	"github.com/oss-sentinel/sentinel/internal/probe"
)

// Appender is the write side of the history store.
type Appender interface {
	Append(ctx context.Context, o *domain.ProbeOutcome) error
}

// Loop probes every configured service once per tick, persists each
// outcome, and alerts on failures. Scheduling is fixed-delay: the next
// tick starts Interval after the previous tick completed, so slow
// probes stretch the cycle instead of piling up.
type Loop struct {
	Logger   *zap.Logger
	Store    Appender
	Checker  probe.Checker
	Notifier notify.Notifier // nil when notifications are disabled
	Services []domain.ServiceSpec
	Interval time.Duration
}

func New(
	logger *zap.Logger,
	store Appender,
	checker probe.Checker,
	notifier notify.Notifier,
	services []domain.ServiceSpec,
	interval time.Duration,
) *Loop {
	if interval <= 0 {
		interval = 300 * time.Second
	}
	return &Loop{
		Logger:   logger,
		Store:    store,
		Checker:  checker,
		Notifier: notifier,
		Services: services,
		Interval: interval,
	}
}

// Run does an immediate tick, then one tick per interval until ctx is
// cancelled. Cancellation is honored during the inter-tick sleep and
// inside in-flight probes (the context flows into the HTTP client).
func (l *Loop) Run(ctx context.Context) {
	l.Logger.Info("monitor_started",
		zap.Int("services", len(l.Services)),
		zap.Duration("interval", l.Interval),
	)

	for {
		l.RunTick(ctx)

		select {
		case <-ctx.Done():
			l.Logger.Info("monitor_stopped")
			return
		case <-time.After(l.Interval):
		}
	}
}

// RunTick probes each service exactly once, in configured order.
// Storage and notification failures are logged and never abort the tick.
func (l *Loop) RunTick(ctx context.Context) {
	start := time.Now()
	for _, svc := range l.Services {
		if ctx.Err() != nil {
			return
		}

		out := l.Checker.Check(ctx, svc)
		metrics.RecordProbe(out)

		if err := l.Store.Append(ctx, &out); err != nil {
			metrics.AppendErrors.Inc()
			l.Logger.Warn("append_error",
				zap.String("service", svc.Name),
				zap.Error(err),
			)
		}

		if out.Failed() {
			l.Logger.Warn("probe_failed",
				zap.String("service", svc.Name),
				zap.String("url", svc.URL),
				zap.String("details", out.Details),
			)
			l.alert(ctx, svc, out)
			continue
		}

		l.Logger.Debug("probe_ok",
			zap.String("service", svc.Name),
			zap.Intp("status", out.StatusCode),
			zap.Float64p("response_time", out.ResponseTime),
		)
	}
	l.Logger.Info("tick_complete", zap.Duration("took", time.Since(start)))
}

func (l *Loop) alert(ctx context.Context, svc domain.ServiceSpec, out domain.ProbeOutcome) {
	if l.Notifier == nil {
		return
	}
	subject, body := failureMessage(svc, out)
	err := l.Notifier.Send(ctx, subject, body)
	metrics.RecordNotification(err)
	if err != nil {
		l.Logger.Warn("notify_error",
			zap.String("service", svc.Name),
			zap.Error(err),
		)
	}
}

// failureMessage renders the alert subject and body. The body names the
// service and URL and either the status mismatch or the transport error.
func failureMessage(svc domain.ServiceSpec, out domain.ProbeOutcome) (string, string) {
	var b strings.Builder
	var subject string

	fmt.Fprintf(&b, "Service %q reported a failure.\n\nURL: %s\n", svc.Name, svc.URL)
	if out.StatusCode != nil {
		subject = fmt.Sprintf("[monitor alert] %s returned an unexpected status", svc.Name)
		fmt.Fprintf(&b, "Expected status: %d\nActual status: %d\n", svc.ExpectedStatus, *out.StatusCode)
	} else {
		subject = fmt.Sprintf("[monitor alert] %s is unreachable", svc.Name)
		fmt.Fprintf(&b, "Error: %s\n", out.Details)
	}
	fmt.Fprintf(&b, "\nChecked at: %s\n", out.Timestamp.Format(time.RFC3339))
	b.WriteString("\n- OSS Status Sentinel")

	return subject, b.String()
}
