package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-triage/internal/api/dto"
	"github.com/spec-kit/helpdesk-triage/internal/service"
)

// CatalogHandler lists routing rules and teams.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// RoutingRules GET /routing-rules.
func (h *CatalogHandler) RoutingRules(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.ToRoutingRuleResponses(h.catalog.RoutingRules())})
}

// Teams GET /teams.
func (h *CatalogHandler) Teams(c *fiber.Ctx) error {
	teams, err := h.catalog.Teams(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ToTeamResponses(teams)})
}
