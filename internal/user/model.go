package user

import (
	"time"

	"tokenbook/internal/auth"
)

type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         auth.Role `db:"role" json:"role"`
	AgeVerified  bool      `db:"age_verified" json:"ageVerified"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// RegisterRequest only admits marketplace roles; staff accounts are seeded.
type RegisterRequest struct {
	Name        string    `json:"name" validate:"required,min=2,max=100"`
	Email       string    `json:"email" validate:"required,email"`
	Password    string    `json:"password" validate:"required,min=8,max=72"`
	Role        auth.Role `json:"role" validate:"required,oneof=SEEKER PROVIDER"`
	AgeVerified bool      `json:"ageVerified"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type AuthResponse struct {
	Success      bool   `json:"success"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	User         *User  `json:"user"`
}

type UserResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}
