package server

import (
	"linkvault/internal/middleware"
	"linkvault/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns configured feature flags and their state for the caller.
// @Summary Feature flags
// @Tags features
// @Produce json
// @Success 200 {object} models.Response
// @Router /features [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	var id uint
	if identity := middleware.CurrentIdentity(c); identity != nil {
		id = identity.UserID
	}

	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(id),
	}, "")
}
