package httpapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jaliltomas/preciosbot/internal/db"
	"github.com/jaliltomas/preciosbot/internal/pipeline"
)

type providerRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Active *bool  `json:"active"`
}

func (r *providerRequest) validate() (name, phone string, active bool, err string) {
	name = strings.TrimSpace(r.Name)
	if name == "" {
		return "", "", false, "name must not be empty"
	}

	phone = pipeline.NormalizePhone(r.Phone)
	if phone == "" {
		return "", "", false, "phone must contain digits"
	}

	active = true
	if r.Active != nil {
		active = *r.Active
	}
	return name, phone, active, ""
}

func (s *Server) handleProviders(c echo.Context) error {
	items, err := s.pool.ListProviders(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, map[string]any{"providers": items})
}

func (s *Server) handleCreateProvider(c echo.Context) error {
	var req providerRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, "invalid JSON body")
	}

	name, phone, active, validationErr := req.validate()
	if validationErr != "" {
		return failValidation(c, validationErr)
	}

	providerID, err := s.pool.CreateProvider(c.Request().Context(), name, phone, active)
	if err != nil {
		return err
	}
	return success(c, map[string]any{"provider_id": providerID})
}

func (s *Server) handleUpdateProvider(c echo.Context) error {
	providerID, err := strconv.ParseInt(c.Param("provider_id"), 10, 64)
	if err != nil {
		return failValidation(c, "provider_id must be an integer")
	}

	var req providerRequest
	if err := c.Bind(&req); err != nil {
		return failValidation(c, "invalid JSON body")
	}

	name, phone, active, validationErr := req.validate()
	if validationErr != "" {
		return failValidation(c, validationErr)
	}

	if err := s.pool.UpdateProvider(c.Request().Context(), providerID, name, phone, active); err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "provider not found")
		}
		return err
	}
	return success(c, map[string]any{"updated": true})
}

func (s *Server) handleDeleteProvider(c echo.Context) error {
	providerID, err := strconv.ParseInt(c.Param("provider_id"), 10, 64)
	if err != nil {
		return failValidation(c, "provider_id must be an integer")
	}

	if err := s.pool.DeleteProvider(c.Request().Context(), providerID); err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "provider not found")
		}
		return err
	}
	return success(c, map[string]any{"deleted": true})
}
