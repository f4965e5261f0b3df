package provider

import "context"

type Repository interface {
	GetByID(ctx context.Context, id int) (*Provider, error)
	GetByUserID(ctx context.Context, userID int) (*Provider, error)
	List(ctx context.Context, approved *bool) ([]Provider, error)
	Approve(ctx context.Context, id int) (*Provider, error)
	ApprovedIDs(ctx context.Context) ([]int, error)
}
