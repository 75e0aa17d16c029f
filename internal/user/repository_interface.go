package user

import (
	"context"

	"tokenbook/internal/auth"
	"tokenbook/internal/db"
)

type Repository interface {
	Create(ctx context.Context, q db.Queryer, name, email, passwordHash string, role auth.Role, ageVerified bool) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
