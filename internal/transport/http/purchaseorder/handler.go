package purchaseorder

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/fulfillment/internal/dto"
	"github.com/Additional-Code/fulfillment/internal/presentation/http/response"
	service "github.com/Additional-Code/fulfillment/internal/service/purchaseorder"
	"github.com/Additional-Code/fulfillment/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/fulfillment/transport/http/purchaseorder")

// Handler exposes purchase order and BOL line endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a purchase order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance. The statistics route is
// static and takes precedence over the :id routes.
func Register(e *echo.Echo, h *Handler) {
	pos := e.Group("/api/pos")
	pos.GET("", h.search)
	pos.POST("", h.create)
	pos.GET("/:po_id/bols", h.getWithBols)

	bols := e.Group("/api/bols")
	bols.POST("", h.createBols)
	bols.DELETE("", h.deleteByBolNumber)
	bols.GET("/statistics", h.statistics)
	bols.DELETE("/:id", h.deleteByID)
	bols.PATCH("/:id", h.updateByID)
}

func (h *Handler) search(c echo.Context) error {
	b := response.New(c)

	term := c.QueryParam("search")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	ctx, span := httpTracer.Start(c.Request().Context(), "pos.search", trace.WithAttributes(attribute.String("po.search", term)))
	defer span.End()

	pos, err := h.svc.Search(ctx, term, limit, offset)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := make([]dto.PurchaseOrderResponse, 0, len(pos))
	for i := range pos {
		out = append(out, dto.NewPurchaseOrderResponse(&pos[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreatePurchaseOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "pos.create", trace.WithAttributes(attribute.String("po.number", payload.PoNumber)))
	defer span.End()

	po, err := h.svc.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewPurchaseOrderResponse(po)).Build()
}

func (h *Handler) getWithBols(c echo.Context) error {
	b := response.New(c)

	id, err := uuid.Parse(c.Param("po_id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("po_id must be a uuid", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "pos.getWithBols", trace.WithAttributes(attribute.String("po.id", id.String())))
	defer span.End()

	po, rows, err := h.svc.GetWithBols(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	out := dto.PurchaseOrderWithBolsResponse{
		PurchaseOrderResponse: dto.NewPurchaseOrderResponse(po),
		Bols:                  make([]dto.BolShipmentResponse, 0, len(rows)),
	}
	for i := range rows {
		out.Bols = append(out.Bols, dto.NewBolShipmentResponse(&rows[i]))
	}
	return b.WithData(out).Build()
}

func (h *Handler) createBols(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateBolsRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "bols.create", trace.WithAttributes(
		attribute.String("po.id", payload.PoID),
		attribute.Int("bols.count", len(payload.Items)),
	))
	defer span.End()

	result, err := h.svc.CreateBols(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(result).Build()
}

func (h *Handler) deleteByID(c echo.Context) error {
	b := response.New(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("id must be a uuid", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "bols.deleteByID", trace.WithAttributes(attribute.String("bol.id", id.String())))
	defer span.End()

	if err := h.svc.DeleteByID(ctx, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithMessage("deleted").Build()
}

func (h *Handler) deleteByBolNumber(c echo.Context) error {
	b := response.New(c)

	bolNumber := c.QueryParam("bol_number")

	ctx, span := httpTracer.Start(c.Request().Context(), "bols.deleteByBolNumber", trace.WithAttributes(attribute.String("bol.number", bolNumber)))
	defer span.End()

	count, err := h.svc.DeleteByBolNumber(ctx, bolNumber)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]int{"deleted_count": count}).Build()
}

func (h *Handler) updateByID(c echo.Context) error {
	b := response.New(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("id must be a uuid", errorbank.WithCause(err))).Build()
	}

	var payload dto.UpdateBolRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "bols.updateByID", trace.WithAttributes(attribute.String("bol.id", id.String())))
	defer span.End()

	updated, err := h.svc.UpdateByID(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewBolShipmentResponse(updated)).Build()
}

func (h *Handler) statistics(c echo.Context) error {
	b := response.New(c)

	var poID uuid.UUID
	if raw := c.QueryParam("po_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return b.WithError(errorbank.BadRequest("po_id must be a uuid", errorbank.WithCause(err))).Build()
		}
		poID = parsed
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "bols.statistics")
	defer span.End()

	stats, err := h.svc.Statistics(ctx, poID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(stats).Build()
}
