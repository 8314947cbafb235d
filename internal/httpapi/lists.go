package httpapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jaliltomas/preciosbot/internal/db"
	"github.com/jaliltomas/preciosbot/internal/pricesheet"
)

func (s *Server) handleGenerateLists(c echo.Context) error {
	ctx := c.Request().Context()

	rows, err := s.pool.ListSheetRows(ctx)
	if err != nil {
		return err
	}

	sheet := pricesheet.Render(rows, time.Now())

	priceListID, err := s.pool.SavePriceList(ctx, sheet.Retail, sheet.Reseller, sheet.TotalProducts, sheet.TotalCategories)
	if err != nil {
		return err
	}

	return success(c, map[string]any{
		"price_list_id":    priceListID,
		"list_retail":      sheet.Retail,
		"list_reseller":    sheet.Reseller,
		"total_products":   sheet.TotalProducts,
		"total_categories": sheet.TotalCategories,
	})
}

func (s *Server) handleLists(c echo.Context) error {
	limit, offset := parsePaging(c)

	items, total, err := s.pool.ListPriceLists(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return success(c, map[string]any{
		"lists": items,
		"total": total,
	})
}

func (s *Server) handleListDetail(c echo.Context) error {
	priceListID, err := strconv.ParseInt(c.Param("price_list_id"), 10, 64)
	if err != nil {
		return failValidation(c, "price_list_id must be an integer")
	}

	item, err := s.pool.GetPriceList(c.Request().Context(), priceListID)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "price list not found")
		}
		return err
	}
	return success(c, item)
}

func (s *Server) handleDeleteList(c echo.Context) error {
	priceListID, err := strconv.ParseInt(c.Param("price_list_id"), 10, 64)
	if err != nil {
		return failValidation(c, "price_list_id must be an integer")
	}

	if err := s.pool.DeletePriceList(c.Request().Context(), priceListID); err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "price list not found")
		}
		return err
	}
	return success(c, map[string]any{"deleted": priceListID})
}

func (s *Server) handleLatestList(c echo.Context) error {
	item, err := s.pool.LatestPriceList(c.Request().Context())
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "no price lists generated yet")
		}
		return err
	}
	return success(c, item)
}
