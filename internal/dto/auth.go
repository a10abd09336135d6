package dto

import (
	"time"

	"github.com/yukikurage/group-task-api/internal/services"
)

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	User                  UserDTO   `json:"user"`
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// ToAuthResponse converts an issued token pair
func ToAuthResponse(result *services.AuthResult) AuthResponse {
	return AuthResponse{
		User:                  ToProfileDTO(*result.User),
		AccessToken:           result.AccessToken,
		AccessTokenExpiresAt:  result.AccessTokenExpiresAt,
		RefreshToken:          result.RefreshToken,
		RefreshTokenExpiresAt: result.RefreshTokenExpiresAt,
		TokenType:             "Bearer",
	}
}
