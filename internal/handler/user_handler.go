package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/bargain-backend/internal/model"
	"github.com/shinyyama/bargain-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserHandler struct {
	users repository.UserRepository
	log   *zap.Logger
}

func NewUserHandler(users repository.UserRepository, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

type PublicUserResponse struct {
	UID      string  `json:"uid"`
	Username string  `json:"username"`
	FullName *string `json:"fullName"`
	UserType string  `json:"userType"`
	City     *string `json:"city"`
}

type ProfileResponse struct {
	UID           string `json:"uid"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	UserType      string `json:"userType"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	WalletBalance string `json:"walletBalance"`
}

func toProfileResponse(u *model.User) ProfileResponse {
	return ProfileResponse{
		UID:           u.UID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		UserType:      string(u.UserType),
		Phone:         u.Phone,
		Address:       u.Address,
		City:          u.City,
		State:         u.State,
		PostalCode:    u.PostalCode,
		Country:       u.Country,
		WalletBalance: money(u.WalletBalance),
	}
}

func (h *UserHandler) GetPublic(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return badRequest(c, "invalid uid")
	}
	u, err := h.users.FindByUID(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "user not found"))
		}
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, PublicUserResponse{
		UID:      u.UID,
		Username: u.Username,
		FullName: strPtrOrNil(u.FullName),
		UserType: string(u.UserType),
		City:     strPtrOrNil(u.City),
	})
}

// Me returns the caller's profile, creating an empty account on first use.
func (h *UserHandler) Me(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	u, err := h.users.Ensure(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toProfileResponse(u))
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
