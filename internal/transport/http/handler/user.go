package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"msgboard/internal/app"
	"msgboard/internal/model"
	"msgboard/internal/transport/http/response"
	"msgboard/internal/validation"
)

const msgInvalidUserBody = "Invalid user body"

type UserService interface {
	Create(ctx context.Context, input app.NewUser) (model.SafeUser, error)
	FindByUsername(ctx context.Context, username string) (model.SafeUser, error)
	Authenticate(ctx context.Context, credentials app.Credentials) (model.SafeUser, error)
	DeleteByUsername(ctx context.Context, username string) (model.SafeUser, error)
	Update(ctx context.Context, username string, update app.UserUpdate) (model.SafeUser, error)
}

type UserHandler struct {
	users UserService
	log   logrus.FieldLogger
}

type UserRequest struct {
	Username string `json:"username" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

func NewUserHandler(users UserService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{users: users, log: log.WithField("component", "user_handler")}
}

func (h *UserHandler) Signup(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}

	user, err := h.users.Create(c.Request.Context(), app.NewUser{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	if err != nil {
		response.ServiceError(c, err, "Error creating user")
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), app.Credentials{
		Username: strings.TrimSpace(req.Username),
		Password: req.Password,
	})
	if err != nil {
		response.ServiceError(c, err, "Error logging in user")
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}

	user, err := h.users.Update(c.Request.Context(), strings.TrimSpace(req.Username), app.UserUpdate{
		Password: &req.Password,
	})
	if err != nil {
		response.ServiceError(c, err, "Error resetting password")
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		response.Error(c, http.StatusBadRequest, "Username is required")
		return
	}

	user, err := h.users.FindByUsername(c.Request.Context(), username)
	if err != nil {
		response.ServiceError(c, err, "Error fetching user data")
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		response.Error(c, http.StatusNotFound, "User not found")
		return
	}

	user, err := h.users.DeleteByUsername(c.Request.Context(), username)
	if err != nil {
		response.ServiceError(c, err, "Error deleting user")
		return
	}
	response.OK(c, user)
}

func (h *UserHandler) bindUser(c *gin.Context) (UserRequest, bool) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.WithError(err).Debug("decode user body failed")
		response.Error(c, http.StatusBadRequest, msgInvalidUserBody)
		return req, false
	}
	if result := validation.Struct(req); !result.Valid() {
		h.log.WithField("problems", result.String()).Debug("user body rejected")
		response.Error(c, http.StatusBadRequest, msgInvalidUserBody)
		return req, false
	}
	return req, true
}
