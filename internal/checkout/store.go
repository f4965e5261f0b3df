package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoPendingCheckout = errors.New("no pending checkout")

// Pending is the server-held record of the slot a client is paying for.
// Verification reads the slot from here, never from the request body.
type Pending struct {
	ClientID  int       `json:"client_id"`
	SlotID    int       `json:"slot_id"`
	OrderID   string    `json:"order_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Gateway   string    `json:"gateway"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Save(ctx context.Context, p Pending) error
	Get(ctx context.Context, clientID int) (*Pending, error)
	// MarkConsumed records that orderID produced bookingID. The pending
	// checkout itself stays until its TTL runs out.
	MarkConsumed(ctx context.Context, orderID, bookingID string) error
	// ConsumedBy returns the booking an order produced, or "" if none.
	ConsumedBy(ctx context.Context, orderID string) (string, error)
}

type redisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore keeps one pending checkout per client that expires after ttl.
// A newer checkout replaces the previous one.
func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	return &redisStore{redis: client, ttl: ttl}
}

func key(clientID int) string {
	return fmt.Sprintf("checkout:pending:%d", clientID)
}

func consumedKey(orderID string) string {
	return "checkout:consumed:" + orderID
}

func (s *redisStore) Save(ctx context.Context, p Pending) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key(p.ClientID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save pending checkout: %w", err)
	}
	return nil
}

func (s *redisStore) Get(ctx context.Context, clientID int) (*Pending, error) {
	data, err := s.redis.Get(ctx, key(clientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoPendingCheckout
		}
		return nil, fmt.Errorf("load pending checkout: %w", err)
	}

	var p Pending
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode pending checkout: %w", err)
	}
	return &p, nil
}

func (s *redisStore) MarkConsumed(ctx context.Context, orderID, bookingID string) error {
	if err := s.redis.Set(ctx, consumedKey(orderID), bookingID, s.ttl).Err(); err != nil {
		return fmt.Errorf("mark checkout consumed: %w", err)
	}
	return nil
}

func (s *redisStore) ConsumedBy(ctx context.Context, orderID string) (string, error) {
	bookingID, err := s.redis.Get(ctx, consumedKey(orderID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("load consumed checkout: %w", err)
	}
	return bookingID, nil
}
