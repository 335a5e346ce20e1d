package user

import (
	"context"
	"time"

	"gymtrack/internal/auth"
)

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash string, role auth.Role, mobileNo, address *string, birthdate *time.Time) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListMembers(ctx context.Context, search string) ([]User, error)
	CountMembers(ctx context.Context) (int, error)
}
