package httpapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jaliltomas/preciosbot/internal/db"
)

type categoryRequest struct {
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	MarkupRetail         float64 `json:"markup_retail"`
	MarkupReseller       float64 `json:"markup_reseller"`
	IsRetailPercentage   *bool   `json:"is_retail_percentage"`
	IsResellerPercentage *bool   `json:"is_reseller_percentage"`
}

func (s *Server) handleCategories(c echo.Context) error {
	items, err := s.pool.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, map[string]any{"categories": items})
}

func (s *Server) handleUpsertCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, "invalid JSON body")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return failValidation(c, "name must not be empty")
	}
	if req.MarkupRetail < 0 || req.MarkupReseller < 0 {
		return failValidation(c, "markups must not be negative")
	}

	isRetailPct := true
	if req.IsRetailPercentage != nil {
		isRetailPct = *req.IsRetailPercentage
	}
	isResellerPct := true
	if req.IsResellerPercentage != nil {
		isResellerPct = *req.IsResellerPercentage
	}

	categoryID, err := s.pool.UpsertCategory(c.Request().Context(), db.CategoryItem{
		Name:                 name,
		Description:          strings.TrimSpace(req.Description),
		MarkupRetail:         req.MarkupRetail,
		MarkupReseller:       req.MarkupReseller,
		IsRetailPercentage:   isRetailPct,
		IsResellerPercentage: isResellerPct,
	})
	if err != nil {
		return err
	}
	return success(c, map[string]any{"category_id": categoryID})
}

// handleSeedCategories inserts the default category set. Existing categories
// keep their configured markups.
func (s *Server) handleSeedCategories(c echo.Context) error {
	created, err := s.pool.SeedCategories(c.Request().Context(), db.DefaultCategories())
	if err != nil {
		return err
	}
	return success(c, map[string]any{"created": created})
}

func (s *Server) handleDeleteCategory(c echo.Context) error {
	categoryID, err := strconv.ParseInt(c.Param("category_id"), 10, 64)
	if err != nil {
		return failValidation(c, "category_id must be an integer")
	}

	if err := s.pool.DeleteCategory(c.Request().Context(), categoryID); err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "category not found")
		}
		return err
	}
	return success(c, map[string]any{"deleted": categoryID})
}
