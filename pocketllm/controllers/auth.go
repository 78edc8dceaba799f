// pocketllm/controllers/auth.go
package controllers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/config"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/sources/psql/dao"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

type AuthController struct {
	userDAO *dao.UserDAO
	cfg     config.Config
}

func NewAuthController(userDAO *dao.UserDAO, cfg config.Config) *AuthController {
	return &AuthController{
		userDAO: userDAO,
		cfg:     cfg,
	}
}

// Login issues a portal token, creating the account on first sight. Admin
// rights come from the configured admin list, never from the request.
func (c *AuthController) Login(ctx context.Context, req types.LoginRequest) (*types.LoginResponse, error) {
	if req.Username == "" {
		return nil, fmt.Errorf("%w: username required", types.ErrInvalidInput)
	}
	user, err := c.userDAO.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		email := req.Email
		if email == "" {
			email = req.Username + "@example.com"
		}
		user, err = c.userDAO.CreateUser(ctx, req.Username, email, c.cfg.IsAdminUser(req.Username))
		if err != nil {
			return nil, err
		}
	}
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"is_admin": user.IsAdmin,
		"exp":      time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}
	return &types.LoginResponse{
		Token:    signed,
		UserID:   strconv.Itoa(user.ID),
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}, nil
}

// Me resolves the account behind a validated token.
func (c *AuthController) Me(ctx context.Context, userID int) (*types.UserResponse, error) {
	user, err := c.userDAO.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, types.ErrNotFound
	}
	return &types.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
	}, nil
}
