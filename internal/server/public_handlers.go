package server

import (
	"linkvault/internal/models"
	"linkvault/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultPublicLimit = 20

func publicInput(c *fiber.Ctx) service.PublicBookmarksInput {
	page := parsePagination(c, defaultPublicLimit)
	return service.PublicBookmarksInput{
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
}

// ListPublicBookmarks handles GET /api/public/bookmarks
// @Summary Public feed
// @Tags public
// @Produce json
// @Param tag query string false "Tag name"
// @Param search query string false "Search term"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} models.Response{data=[]models.Bookmark}
// @Failure 403 {object} models.Response
// @Router /public/bookmarks [get]
func (s *Server) ListPublicBookmarks(c *fiber.Ctx) error {
	bookmarks, err := s.bookmarkService.ListPublic(c.UserContext(), publicInput(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, bookmarks, "")
}

// ListUserPublicBookmarks handles GET /api/public/users/:username/bookmarks
// @Summary A user's public bookmarks
// @Tags public
// @Produce json
// @Param username path string true "Username"
// @Param tag query string false "Tag name"
// @Param search query string false "Search term"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} models.Response{data=[]models.Bookmark}
// @Failure 404 {object} models.Response
// @Router /public/users/{username}/bookmarks [get]
func (s *Server) ListUserPublicBookmarks(c *fiber.Ctx) error {
	bookmarks, err := s.bookmarkService.ListPublicByUsername(c.UserContext(), c.Params("username"), publicInput(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, bookmarks, "")
}

// PopularTags handles GET /api/public/tags
// @Summary Most used tags on public bookmarks
// @Tags public
// @Produce json
// @Param limit query int false "Number of tags" default(20)
// @Success 200 {object} models.Response{data=[]models.PopularTag}
// @Router /public/tags [get]
func (s *Server) PopularTags(c *fiber.Ctx) error {
	tags, err := s.tagService.Popular(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, tags, "")
}
