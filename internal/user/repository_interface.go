package user

import "context"

type Repository interface {
	CreateClient(ctx context.Context, name, email, passwordHash, phone, address string) (*User, error)
	CreateProvider(ctx context.Context, name, email, passwordHash, description, address string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}
