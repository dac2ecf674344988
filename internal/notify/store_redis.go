package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"stokri/pkg/domain"
	"stokri/pkg/platform/sentinel"
)

// notificationListCap bounds the per-user backlog; older entries fall off.
const notificationListCap = 200

// RedisStore keeps each recipient's notifications in a capped list. Loss on
// eviction is acceptable: notifications are awareness, not workflow state.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(recipient domain.UserID) string {
	return "notify:" + recipient.String()
}

func (s *RedisStore) Append(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key(n.Recipient), payload)
	pipe.LTrim(ctx, key(n.Recipient), 0, notificationListCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func (s *RedisStore) ListByRecipient(ctx context.Context, recipient domain.UserID) ([]*Notification, error) {
	raw, err := s.client.LRange(ctx, key(recipient), 0, notificationListCap-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]*Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			// Skip unreadable entries rather than failing the whole list.
			continue
		}
		out = append(out, &n)
	}
	return out, nil
}

// MarkRead rewrites the matching entry in place.
func (s *RedisStore) MarkRead(ctx context.Context, id domain.NotificationID, recipient domain.UserID) error {
	raw, err := s.client.LRange(ctx, key(recipient), 0, notificationListCap-1).Result()
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}
	for i, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		if n.ID != id {
			continue
		}
		n.Read = true
		payload, err := json.Marshal(&n)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		if err := s.client.LSet(ctx, key(recipient), int64(i), payload).Err(); err != nil {
			return fmt.Errorf("mark notification read: %w", err)
		}
		return nil
	}
	return sentinel.ErrNotFound
}
