package httpapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jaliltomas/preciosbot/internal/db"
)

func (s *Server) handleMessages(c echo.Context) error {
	limit, offset := parsePaging(c)

	items, total, err := s.pool.ListMessages(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return success(c, map[string]any{
		"messages": items,
		"total":    total,
	})
}

func (s *Server) handleRecentMessages(c echo.Context) error {
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := parsePositiveInt(raw); err == nil {
			limit = min(parsed, maxPageSize)
		}
	}

	items, err := s.pool.RecentMessages(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return success(c, map[string]any{"messages": items})
}

func (s *Server) handleMessageStats(c echo.Context) error {
	stats, err := s.pool.GetMessageStats(c.Request().Context())
	if err != nil {
		return err
	}
	return success(c, stats)
}

func (s *Server) handleMessageDetail(c echo.Context) error {
	messageID, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		return failValidation(c, "message_id must be an integer")
	}

	item, err := s.pool.GetMessage(c.Request().Context(), messageID)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "message not found")
		}
		return err
	}
	return success(c, item)
}

func (s *Server) handleDeleteMessage(c echo.Context) error {
	messageID, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		return failValidation(c, "message_id must be an integer")
	}

	if err := s.pool.DeleteMessage(c.Request().Context(), messageID); err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "message not found")
		}
		return err
	}
	return success(c, map[string]any{"deleted": true})
}
