package client

import "context"

// Repository defines persistence operations for client devices.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, clientID uint) (*Client, error)
	GetBySID(ctx context.Context, sid string) (*Client, error)
	Update(ctx context.Context, c *Client) error
	ListByActor(ctx context.Context, actorID uint) ([]*Client, error)
}
