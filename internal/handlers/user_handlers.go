package handlers

import (
	"fmt"
	"net/http"
	"time"

	"tourbase/internal/common"
	"tourbase/internal/middleware"
	"tourbase/internal/models"
	"tourbase/internal/repositories"
	"tourbase/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UserHandlers handles the account profile surface and the admin user CRUD.
type UserHandlers struct {
	userRepo repositories.UserRepository
	storage  services.MinioService
	bucket   string
}

func NewUserHandlers(userRepo repositories.UserRepository, storage services.MinioService, bucket string) *UserHandlers {
	return &UserHandlers{
		userRepo: userRepo,
		storage:  storage,
		bucket:   bucket,
	}
}

type UpdateMeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Me handles GET /api/v1/users/me.
func (h *UserHandlers) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return common.Unauthenticated("not authenticated")
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "user": user})
}

// UpdateMe handles PATCH /api/v1/users/me. Password updates are rejected
// here; they go through the dedicated password route.
func (h *UserHandlers) UpdateMe(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return common.Unauthenticated("not authenticated")
	}

	var raw map[string]any
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if _, ok := raw["password"]; ok {
		return common.ValidationFailed("this route is not for password updates, use /update-password")
	}

	if name, ok := raw["name"].(string); ok && name != "" {
		user.Name = name
	}
	if email, ok := raw["email"].(string); ok && email != "" {
		user.Email = models.NormalizeEmail(email)
	}

	if err := h.userRepo.Update(c.Request().Context(), user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "user": user})
}

// UploadPhoto handles PATCH /api/v1/users/me/photo with a multipart image.
func (h *UserHandlers) UploadPhoto(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return common.Unauthenticated("not authenticated")
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return common.ValidationFailed("a photo file is required")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	objectName := fmt.Sprintf("user-%s-%d.jpeg", user.ID, time.Now().Unix())
	if err := h.storage.UploadImage(c.Request().Context(), h.bucket, objectName, src, file.Size); err != nil {
		return fmt.Errorf("failed to upload photo: %w", err)
	}

	user.Photo = objectName
	if err := h.userRepo.Update(c.Request().Context(), user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "user": user})
}

// DeleteMe handles DELETE /api/v1/users/me by deactivating the account.
func (h *UserHandlers) DeleteMe(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return common.Unauthenticated("not authenticated")
	}
	if err := h.userRepo.Deactivate(c.Request().Context(), user.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUsers handles GET /api/v1/users (admin only).
func (h *UserHandlers) ListUsers(c echo.Context) error {
	limit, offset := pagination(c)
	users, err := h.userRepo.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"results": len(users),
		"users":   users,
	})
}

// GetUser handles GET /api/v1/users/:id (admin only).
func (h *UserHandlers) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid user id")
	}
	user, err := h.userRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "user": user})
}

// UpdateUser handles PATCH /api/v1/users/:id (admin only; never passwords).
func (h *UserHandlers) UpdateUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid user id")
	}
	user, err := h.userRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request format")
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = models.NormalizeEmail(req.Email)
	}
	if req.Role != "" {
		if !models.ValidRole(req.Role) {
			return common.ValidationFailed("unknown role")
		}
		user.Role = req.Role
	}

	if err := h.userRepo.Update(c.Request().Context(), user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "success", "user": user})
}

// DeleteUser handles DELETE /api/v1/users/:id (admin only, hard delete).
func (h *UserHandlers) DeleteUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.ValidationFailed("invalid user id")
	}
	if err := h.userRepo.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
