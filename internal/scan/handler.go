package scan

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/toolroom-io/scanbridge/internal/lookup"
	"github.com/toolroom-io/scanbridge/internal/pkg/metrics"
	"github.com/toolroom-io/scanbridge/internal/realtime"
	"github.com/toolroom-io/scanbridge/pkg/log"
)

// Handler resolves scans against the tool registry and fans the outcome out
// to connected sessions.
type Handler struct {
	resolver lookup.Resolver
	notifier realtime.Notifier
	logger   log.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewHandler wires a Handler to its collaborators.
func NewHandler(resolver lookup.Resolver, notifier realtime.Notifier) *Handler {
	return &Handler{
		resolver: resolver,
		notifier: notifier,
		logger:   log.WithName("scan"),
		now:      time.Now,
	}
}

// HandleScan processes one decoded reader message. Every valid payload
// produces exactly one scan_result broadcast; the lookup is attempted once
// with no debounce or retry. The returned error reports lookup degradation
// for metrics, after the degraded outcome has already been broadcast.
func (h *Handler) HandleScan(ctx context.Context, topic string, event *ScanEvent) error {
	res := Result{
		TagUID:     strings.TrimSpace(event.TagUID),
		ReaderID:   event.ReaderID,
		Timestamp:  event.Timestamp,
		ReceivedAt: h.now().UTC(),
	}

	if res.TagUID == "" {
		res.Status = StatusInvalid
		res.Message = "scan carried no tag uid"
		h.logger.Warn("invalid scan", "topic", topic, "reader", event.ReaderID)
		h.notifier.Broadcast(realtime.EventScanResult, res)
		return nil
	}

	record, err := h.resolver.ByTag(ctx, res.TagUID)
	switch {
	case err == nil:
		res.Status = StatusFound
		res.Tool = record
		h.logger.Info("scan resolved", "tag", res.TagUID, "tool", record.ID, "reader", event.ReaderID)

	case errors.Is(err, lookup.ErrNotFound):
		res.Status = StatusNotFound
		res.Message = "tag is not registered"
		h.logger.Info("scan unmatched", "tag", res.TagUID, "reader", event.ReaderID)

	default:
		// The registry being down must not silence the dashboard.
		res.Status = StatusDegraded
		res.Message = "lookup unavailable, try again"
		h.logger.Error(err, "scan lookup failed", "tag", res.TagUID, "reader", event.ReaderID)
		metrics.HandlerErrorsTotal.WithLabelValues("lookup").Inc()
		h.notifier.Broadcast(realtime.EventScanResult, res)
		return err
	}

	h.notifier.Broadcast(realtime.EventScanResult, res)
	return nil
}

// HandleSensor re-broadcasts an environmental reading as a sensor_data event.
// Readings are fire-and-forget; a malformed one was already rejected by the
// codec before reaching here.
func (h *Handler) HandleSensor(_ context.Context, topic string, reading *SensorReading) error {
	h.logger.Debug("sensor reading", "topic", topic, "type", reading.Type, "value", reading.Value)
	h.notifier.Broadcast(realtime.EventSensorData, reading)
	return nil
}
