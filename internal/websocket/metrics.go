package websocket

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Metrics records hub activity. A nil *Metrics records nothing.
type Metrics struct {
	connectionsTotal   metric.Int64Counter
	connectionsActive  metric.Int64UpDownCounter
	connectionDuration metric.Float64Histogram
	broadcastsTotal    metric.Int64Counter
	deliveriesTotal    metric.Int64Counter
	droppedTotal       metric.Int64Counter
}

// NewMetrics creates the hub instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m    Metrics
		err  error
		errs []error
	)

	m.connectionsTotal, err = meter.Int64Counter("websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections"))
	errs = append(errs, err)

	m.connectionsActive, err = meter.Int64UpDownCounter("websocket_connections_active",
		metric.WithDescription("Number of active WebSocket connections"))
	errs = append(errs, err)

	m.connectionDuration, err = meter.Float64Histogram("websocket_connection_duration_seconds",
		metric.WithDescription("Duration of WebSocket connections"),
		metric.WithUnit("s"))
	errs = append(errs, err)

	m.broadcastsTotal, err = meter.Int64Counter("websocket_broadcasts_total",
		metric.WithDescription("Events fanned out to clients"))
	errs = append(errs, err)

	m.deliveriesTotal, err = meter.Int64Counter("websocket_deliveries_total",
		metric.WithDescription("Frames queued to individual clients"))
	errs = append(errs, err)

	m.droppedTotal, err = meter.Int64Counter("websocket_dropped_events_total",
		metric.WithDescription("Events dropped because the broadcast queue was full"))
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) recordConnect(ctx context.Context) {
	if m == nil {
		return
	}
	m.connectionsTotal.Add(ctx, 1)
	m.connectionsActive.Add(ctx, 1)
}

func (m *Metrics) recordDisconnect(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.connectionsActive.Add(ctx, -1)
	m.connectionDuration.Record(ctx, d.Seconds())
}

func (m *Metrics) recordBroadcast(ctx context.Context, delivered int) {
	if m == nil {
		return
	}
	m.broadcastsTotal.Add(ctx, 1)
	m.deliveriesTotal.Add(ctx, int64(delivered))
}

func (m *Metrics) recordDropped(ctx context.Context) {
	if m == nil {
		return
	}
	m.droppedTotal.Add(ctx, 1)
}
