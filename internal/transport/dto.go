package transport

import (
	"time"

	"github.com/Skotchmaster/session_auth/internal/models"
)

// AccountView is the public shape of an account. It has no field for the
// password hash or either token.
type AccountView struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	ProfilePicture string    `json:"profilePicture"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
}

func FromAccount(a *models.Account) AccountView {
	if a == nil {
		return AccountView{}
	}
	return AccountView{
		ID:             a.ID,
		Username:       a.Username,
		Email:          a.Email,
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		ProfilePicture: a.ProfilePicture,
		Role:           string(a.Role),
		CreatedAt:      a.CreatedAt,
	}
}

type RegisterRequest struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ProfilePicture string `json:"profilePicture"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	User AccountView `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
