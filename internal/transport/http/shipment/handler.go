package shipment

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/fulfillment/internal/dto"
	"github.com/Additional-Code/fulfillment/internal/presentation/http/response"
	service "github.com/Additional-Code/fulfillment/internal/service/shipment"
	"github.com/Additional-Code/fulfillment/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/fulfillment/transport/http/shipment")

// Handler exposes the incremental shipment endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a shipment Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/v1/shipments")
	g.POST("", h.create)
	g.GET("", h.listByOrder)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateShipmentRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "shipments.create", trace.WithAttributes(attribute.String("order.number", payload.OrderNumber)))
	defer span.End()

	created, err := h.svc.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewShipmentResponse(created)).Build()
}

func (h *Handler) listByOrder(c echo.Context) error {
	b := response.New(c)

	number := c.QueryParam("order_number")
	if number == "" {
		return b.WithError(errorbank.BadRequest("order_number is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "shipments.listByOrder", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	_, rows, err := h.svc.ListByOrder(ctx, number)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.ShipmentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.NewShipmentResponse(&rows[i]))
	}
	return b.WithData(out).Build()
}
