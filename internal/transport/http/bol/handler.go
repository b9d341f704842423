package bol

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/fulfillment/internal/dto"
	"github.com/Additional-Code/fulfillment/internal/presentation/http/response"
	service "github.com/Additional-Code/fulfillment/internal/service/bol"
	"github.com/Additional-Code/fulfillment/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/fulfillment/transport/http/bol")

// Handler exposes the legacy BOL entry-form endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a BOL entry Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance. The static routes come
// before the :poSkuKey catch-all.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/bol")
	g.GET("/initial-data", h.initialData)
	g.POST("/save", h.save)
	g.GET("/:poSkuKey", h.existingData)
}

func (h *Handler) initialData(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "bol.initialData")
	defer span.End()

	data, err := h.svc.InitialData(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(data).Build()
}

func (h *Handler) existingData(c echo.Context) error {
	b := response.New(c)

	key := c.Param("poSkuKey")

	ctx, span := httpTracer.Start(c.Request().Context(), "bol.existingData", trace.WithAttributes(attribute.String("bol.key", key)))
	defer span.End()

	data, err := h.svc.ExistingData(ctx, key)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(data).Build()
}

func (h *Handler) save(c echo.Context) error {
	b := response.New(c)

	var payload dto.BolSaveRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCode(service.CodeSaveFailed), errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "bol.save", trace.WithAttributes(attribute.String("bol.key", payload.PoSkuKey)))
	defer span.End()

	if err := h.svc.Save(ctx, payload); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithMessage("saved").Build()
}
