package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"allocation/internal/core/application/usecases/queries"
	"allocation/internal/core/ports"
	"allocation/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports whether the database can be reached.
type HealthChecker func(ctx context.Context) error

// ProductStockReader runs the product stock query.
type ProductStockReader interface {
	Handle(ctx context.Context, query queries.GetProductStockQuery) (queries.GetProductStockQueryResponse, error)
}

// Error is the body of every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ProductStock struct {
	SKU       string       `json:"sku"`
	Version   int          `json:"version"`
	Quantity  int          `json:"quantity"`
	Allocated int          `json:"allocated"`
	Available int          `json:"available"`
	Batches   []BatchStock `json:"batches"`
}

type BatchStock struct {
	Reference string     `json:"reference"`
	ETA       *time.Time `json:"eta"`
	Quantity  int        `json:"quantity"`
	Allocated int        `json:"allocated"`
	Available int        `json:"available"`
}

// Server exposes the read-only HTTP surface of the allocation service.
type Server struct {
	health       HealthChecker
	productStock ProductStockReader
}

func NewServer(health HealthChecker, productStock ProductStockReader) *Server {
	return &Server{
		health:       health,
		productStock: productStock,
	}
}

// Register mounts the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", s.Health)
	e.GET("/api/v1/products/:sku/stock", s.GetProductStock)
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	if err := s.health(ctx.Request().Context()); err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, Error{
			Code:    http.StatusServiceUnavailable,
			Message: "Database is unreachable",
		})
	}

	return ctx.String(http.StatusOK, "Healthy")
}

// GetProductStock handles GET /api/v1/products/:sku/stock.
func (s *Server) GetProductStock(ctx echo.Context) error {
	query, err := queries.NewGetProductStockQuery(ctx.Param("sku"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: "Invalid sku: " + err.Error(),
		})
	}

	stock, err := s.productStock.Handle(ctx.Request().Context(), query)
	switch {
	case errors.Is(err, ports.ErrProductNotFound), errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: "Product not found",
		})
	case err != nil:
		return ctx.JSON(http.StatusInternalServerError, Error{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve product stock",
		})
	}

	response := ProductStock{
		SKU:       stock.SKU,
		Version:   stock.Version,
		Quantity:  stock.Quantity,
		Allocated: stock.Allocated,
		Available: stock.Available,
		Batches:   make([]BatchStock, len(stock.Batches)),
	}
	for i, b := range stock.Batches {
		response.Batches[i] = BatchStock{
			Reference: b.Reference,
			ETA:       b.ETA,
			Quantity:  b.Quantity,
			Allocated: b.Allocated,
			Available: b.Available,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}
