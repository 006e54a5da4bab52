package server

import (
	"linkvault/internal/middleware"
	"linkvault/internal/models"
	"linkvault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListBookmarks handles GET /api/bookmarks
// @Summary List own bookmarks
// @Description Newest first, optionally filtered by folder, tag or a search term
// @Tags bookmarks
// @Produce json
// @Security BearerAuth
// @Param folder query string false "Folder name"
// @Param tag query string false "Tag name"
// @Param search query string false "Matches title, description or URL"
// @Success 200 {object} models.Response{data=[]models.Bookmark}
// @Failure 401 {object} models.Response
// @Router /bookmarks [get]
func (s *Server) ListBookmarks(c *fiber.Ctx) error {
	bookmarks, err := s.bookmarkService.List(c.UserContext(), userID(c), service.ListBookmarksInput{
		Folder: c.Query("folder"),
		Tag:    c.Query("tag"),
		Search: c.Query("search"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, bookmarks, "")
}

// ListFolders handles GET /api/bookmarks/folders
// @Summary List folders
// @Tags bookmarks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=[]models.FolderCount}
// @Router /bookmarks/folders [get]
func (s *Server) ListFolders(c *fiber.Ctx) error {
	folders, err := s.bookmarkService.ListFolders(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, folders, "")
}

// GetBookmark handles GET /api/bookmarks/:id
// @Summary Get a bookmark
// @Description Public bookmarks are visible to anyone, private ones only to their owner
// @Tags bookmarks
// @Produce json
// @Param id path int true "Bookmark ID"
// @Success 200 {object} models.Response{data=models.Bookmark}
// @Failure 403 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /bookmarks/{id} [get]
func (s *Server) GetBookmark(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	bookmark, err := s.bookmarkService.Get(c.UserContext(), middleware.CurrentIdentity(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, bookmark, "")
}

// CreateBookmark handles POST /api/bookmarks
// @Summary Create a bookmark
// @Description Missing title, description or favicon are filled from the page when metadata fetching is enabled
// @Tags bookmarks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateBookmarkInput true "Bookmark"
// @Success 201 {object} models.Response{data=models.Bookmark}
// @Failure 400 {object} models.Response
// @Failure 409 {object} models.Response
// @Router /bookmarks [post]
func (s *Server) CreateBookmark(c *fiber.Ctx) error {
	var req service.CreateBookmarkInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	bookmark, err := s.bookmarkService.Create(c.UserContext(), userID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, bookmark, "Bookmark created successfully")
}

// UpdateBookmark handles PUT /api/bookmarks/:id
// @Summary Update a bookmark
// @Description Only supplied fields change. A tags array replaces the whole set.
// @Tags bookmarks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bookmark ID"
// @Param request body service.UpdateBookmarkInput true "Fields to change"
// @Success 200 {object} models.Response{data=models.Bookmark}
// @Failure 400 {object} models.Response
// @Failure 403 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /bookmarks/{id} [put]
func (s *Server) UpdateBookmark(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateBookmarkInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	bookmark, err := s.bookmarkService.Update(c.UserContext(), userID(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, bookmark, "Bookmark updated successfully")
}

// ToggleBookmarkPrivacy handles PATCH /api/bookmarks/:id/privacy
// @Summary Toggle bookmark visibility
// @Tags bookmarks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bookmark ID"
// @Success 200 {object} models.Response{data=object{is_public=bool}}
// @Failure 403 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /bookmarks/{id}/privacy [patch]
func (s *Server) ToggleBookmarkPrivacy(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	isPublic, err := s.bookmarkService.TogglePrivacy(c.UserContext(), userID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	message := "Bookmark is now private"
	if isPublic {
		message = "Bookmark is now public"
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"is_public": isPublic}, message)
}

// DeleteBookmark handles DELETE /api/bookmarks/:id
// @Summary Delete a bookmark
// @Tags bookmarks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bookmark ID"
// @Success 200 {object} models.Response
// @Failure 404 {object} models.Response
// @Router /bookmarks/{id} [delete]
func (s *Server) DeleteBookmark(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.bookmarkService.Delete(c.UserContext(), userID(c), id); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, nil, "Bookmark deleted successfully")
}
