package server

import (
	"linkvault/internal/models"
	"linkvault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/users/profile
// @Summary Own profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=models.Profile}
// @Failure 404 {object} models.Response
// @Router /users/profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.UserContext(), userID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, profile, "")
}

// UpdateProfile handles PUT /api/users/profile
// @Summary Update profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Fields to change"
// @Success 200 {object} models.Response{data=models.User}
// @Failure 400 {object} models.Response
// @Router /users/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.profileService.UpdateProfile(c.UserContext(), userID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, user, "Profile updated successfully")
}

// ChangePassword handles PUT /api/users/password
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ChangePasswordInput true "Current and new password"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.Response
// @Failure 401 {object} models.Response
// @Router /users/password [put]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.profileService.ChangePassword(c.UserContext(), userID(c), req); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, nil, "Password changed successfully")
}

// DeleteAccount handles DELETE /api/users/account
// @Summary Delete account
// @Description Deletes the account with all of its bookmarks and tags
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{password=string} true "Password confirmation"
// @Success 200 {object} models.Response
// @Failure 401 {object} models.Response
// @Router /users/account [delete]
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.profileService.DeleteAccount(c.UserContext(), userID(c), req.Password); err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, nil, "Account deleted successfully")
}

// GetPublicProfile handles GET /api/users/:username/public
// @Summary Public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.Response{data=models.PublicProfile}
// @Failure 404 {object} models.Response
// @Router /users/{username}/public [get]
func (s *Server) GetPublicProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetPublicProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, profile, "")
}
