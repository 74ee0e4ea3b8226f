package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/twinchat/twinchat/internal/pkg/errcode"
	"github.com/twinchat/twinchat/internal/pkg/response"
	"github.com/twinchat/twinchat/internal/service"
)

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}

func (h *ProfileHandler) Create(c *gin.Context) {
	var update service.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	profile, err := h.profiles.Create(c.Request.Context(), c.Param("user_id"), &update)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var update service.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), c.Param("user_id"), &update)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}
