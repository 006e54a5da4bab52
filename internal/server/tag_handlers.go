package server

import (
	"linkvault/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListTags handles GET /api/tags
// @Summary List own tags with usage counts
// @Tags tags
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=[]models.TagUsage}
// @Router /tags [get]
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.tagService.List(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, tags, "")
}

// CreateTag handles POST /api/tags
// @Summary Create a tag
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string} true "Tag"
// @Success 201 {object} models.Response{data=models.Tag}
// @Failure 400 {object} models.Response
// @Failure 409 {object} models.Response
// @Router /tags [post]
func (s *Server) CreateTag(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	tag, err := s.tagService.Create(c.UserContext(), userID(c), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, tag, "Tag created successfully")
}

// DeleteTag handles DELETE /api/tags/:id
// @Summary Delete a tag
// @Description Removes the tag from every bookmark carrying it
// @Tags tags
// @Produce json
// @Security BearerAuth
// @Param id path int true "Tag ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /tags/{id} [delete]
func (s *Server) DeleteTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.tagService.Delete(c.UserContext(), userID(c), id); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, nil, "Tag deleted successfully")
}
