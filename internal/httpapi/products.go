package httpapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jaliltomas/preciosbot/internal/db"
)

func (s *Server) handleProducts(c echo.Context) error {
	limit, offset := parsePaging(c)

	items, total, err := s.pool.ListProducts(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return success(c, map[string]any{
		"products": items,
		"total":    total,
	})
}

func (s *Server) handleCatalogStats(c echo.Context) error {
	stats, err := s.pool.GetCatalogStats(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, stats)
}

// handleProductSearch embeds the query text and returns catalog entries over
// the display similarity threshold. This threshold is independent of the
// ingestion match threshold.
func (s *Server) handleProductSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return failValidation(c, "q must not be empty")
	}

	limit := 5
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = min(parsed, 50)
		}
	}

	embedding, err := s.embedder.EmbedQuery(c.Request().Context(), query)
	if err != nil {
		return err
	}

	items, err := s.pool.FindSimilarProducts(c.Request().Context(), embedding, s.opts.SimilarityThreshold, limit)
	if err != nil {
		return err
	}

	results := make([]map[string]any, 0, len(items))
	for _, item := range items {
		results = append(results, map[string]any{
			"product_id":      item.ProductID,
			"normalized_name": item.NormalizedName,
			"last_price":      item.LastPrice,
			"similarity":      item.Similarity,
		})
	}
	return success(c, map[string]any{"results": results})
}

func (s *Server) handleProductDetail(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return failValidation(c, "product_id must be an integer")
	}

	item, err := s.pool.GetProduct(c.Request().Context(), productID)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "product not found")
		}
		return err
	}
	return success(c, item)
}

func (s *Server) handleDeleteProduct(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return failValidation(c, "product_id must be an integer")
	}

	if err := s.pool.DeleteProduct(c.Request().Context(), productID); err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "product not found")
		}
		return err
	}
	return success(c, map[string]any{"deleted": productID})
}

func (s *Server) handleProductHistory(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil {
		return failValidation(c, "product_id must be an integer")
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = min(parsed, maxPageSize)
		}
	}

	items, err := s.pool.GetProductHistory(c.Request().Context(), productID, limit)
	if err != nil {
		return err
	}
	return success(c, map[string]any{"history": items})
}

func (s *Server) handleHistory(c echo.Context) error {
	limit, offset := parsePaging(c)

	items, total, err := s.pool.ListPriceHistory(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return success(c, map[string]any{
		"history": items,
		"total":   total,
	})
}

func (s *Server) handleRemoveHistory(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("before"))
	if raw == "" {
		return failValidation(c, "before must be an RFC3339 timestamp")
	}

	cutoff, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return failValidation(c, "before must be an RFC3339 timestamp")
	}

	removed, err := s.pool.RemoveHistoryBefore(c.Request().Context(), cutoff)
	if err != nil {
		return err
	}
	return success(c, map[string]any{"removed": removed})
}
