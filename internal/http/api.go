package http

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"blog-server/internal/auth"
	"blog-server/internal/domain"
	"blog-server/internal/service"
	"blog-server/internal/storage"
)

// maxAvatarSize caps avatar uploads at 5 MiB.
const maxAvatarSize = 5 << 20

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	creds   *auth.Credentials
	avatars storage.AvatarStore
	logger  *logrus.Logger
}

func NewHandler(users service.UserService, creds *auth.Credentials, avatars storage.AvatarStore, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:   users,
		creds:   creds,
		avatars: avatars,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("/register", h.register)
			users.POST("/login", h.login)
			users.GET("/authors", h.listAuthors)

			protected := users.Group("")
			protected.Use(h.requireAuth())
			{
				protected.GET("/:id", h.getUser)
				protected.POST("/change-avatar", h.changeAvatar)
				protected.POST("/edit-user", h.editUser)
			}
		}
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

// httpError is the uniform error body; every failure goes through fail.
type httpError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, httpError{Message: message, StatusCode: status})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type registerRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Fill in all fields.")
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Password2)
	if err != nil {
		status, msg := registrationError(err)
		fail(c, status, msg)
		return
	}

	c.JSON(http.StatusCreated, userToResponse(user))
}

func registrationError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return http.StatusUnprocessableEntity, "Fill in all fields."
	case errors.Is(err, service.ErrEmailExists):
		return http.StatusUnprocessableEntity, "Email already exists."
	case errors.Is(err, service.ErrNameExists):
		return http.StatusUnprocessableEntity, "Name already taken."
	case errors.Is(err, service.ErrPasswordTooShort):
		return http.StatusUnprocessableEntity, "Password should be at least 6 characters."
	case errors.Is(err, service.ErrPasswordMismatch):
		return http.StatusUnprocessableEntity, "Passwords do not match."
	}
	return http.StatusUnprocessableEntity, err.Error()
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Fill in all fields.")
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrMissingFields) {
			fail(c, http.StatusUnprocessableEntity, "Fill in all fields.")
			return
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, "Invalid credentials.")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := h.creds.IssueToken(user.ID, user.Name)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	// 201 is what the original service returned for login; clients depend on it.
	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"id":    user.ID,
		"name":  user.Name,
	})
}

func (h *Handler) getUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusNotFound, "User not found.")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusNotFound, "User not found.")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) changeAvatar(c *gin.Context) {
	identity := callerIdentity(c)
	if identity == nil {
		fail(c, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "Please choose an image.")
		return
	}
	if file.Size > maxAvatarSize {
		fail(c, http.StatusUnprocessableEntity, "Image size should not exceed 5MB.")
		return
	}

	current, err := h.users.GetByID(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			fail(c, http.StatusNotFound, "User not found.")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	newName := avatarFilename(file.Filename)
	src, err := file.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, "Error while uploading the avatar.")
		return
	}
	defer src.Close()

	if err := h.avatars.Save(c.Request.Context(), newName, src, file.Size); err != nil {
		fail(c, http.StatusInternalServerError, "Error while uploading the avatar.")
		return
	}

	updated, err := h.users.ChangeAvatar(c.Request.Context(), identity.UserID, newName)
	if err != nil {
		// the new file is orphaned at this point; it is unreferenced and harmless
		fail(c, http.StatusInternalServerError, "Error while updating the avatar.")
		return
	}

	// Old file removal happens only after the record points at the new one,
	// so the user always has a valid avatar on disk. Removal failures leave
	// an orphan behind, nothing worse.
	if current.Avatar != "" {
		if err := h.avatars.Remove(c.Request.Context(), current.Avatar); err != nil {
			h.logger.Warnf("remove old avatar %s: %v", current.Avatar, err)
		}
	}

	c.JSON(http.StatusOK, userToResponse(updated))
}

// avatarFilename injects a unique suffix between the base name and the
// extension so concurrent uploads cannot collide.
func avatarFilename(original string) string {
	base := filepath.Base(original)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + uuid.NewString() + ext
}

func (h *Handler) editUser(c *gin.Context) {
	// Placeholder: edit semantics were never specified upstream.
	c.JSON(http.StatusOK, "Edit user details")
}

func (h *Handler) listAuthors(c *gin.Context) {
	authors, err := h.users.ListAuthors(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	resp := make([]UserResponse, len(authors))
	for i := range authors {
		resp[i] = userToResponse(&authors[i])
	}
	c.JSON(http.StatusOK, resp)
}

// UserResponse is the wire shape of a user record. It has no password
// field at all, so a hash cannot leak through any handler.
type UserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
	Role      string `json:"role"`
	Posts     int    `json:"posts"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Avatar:    user.Avatar,
		Role:      string(user.Role),
		Posts:     user.Posts,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}
