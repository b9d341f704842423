package fulfillment

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/config"
	"github.com/Additional-Code/fulfillment/internal/messaging"
	bolsvc "github.com/Additional-Code/fulfillment/internal/service/bol"
	shipmentsvc "github.com/Additional-Code/fulfillment/internal/service/shipment"
	"github.com/Additional-Code/fulfillment/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/fulfillment/worker/fulfillment")

// Module registers the ledger event handler.
var Module = fx.Module("worker_fulfillment",
	fx.Provide(
		fx.Annotate(
			NewLedgerEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewLedgerEventHandler warms the entry-form listing cache after shipment
// mutations. The mutating instance already invalidated both tiers; this
// handler recomputes the lists so the next read on any instance is hot.
func NewLedgerEventHandler(logger *zap.Logger, cfg config.Config, bols *bolsvc.Service) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.fulfillment.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event shipmentsvc.LedgerEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode ledger event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		if _, err := bols.InitialData(ctx); err != nil {
			logger.Warn("listing cache warm-up failed",
				zap.String("type", event.Type),
				zap.String("order_number", event.OrderNumber),
				zap.Error(err),
			)

			// Warm-up is best effort; do not hold the offset back.
			return nil
		}

		logger.Info("ledger event processed",
			zap.String("type", event.Type),
			zap.String("order_number", event.OrderNumber),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
