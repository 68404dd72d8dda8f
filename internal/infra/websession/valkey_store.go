package websession

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/edusolve/internal/domain/auth"
)

// ValkeyStore keeps web sessions in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "session"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Create(ctx context.Context, email string, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	builder := s.client.B().Set().Key(s.key(id)).Value(email)
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return "", err
	}
	return id, nil
}

func (s *ValkeyStore) Get(ctx context.Context, id string) (string, bool, error) {
	if id == "" {
		return "", false, nil
	}
	email, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(id)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return email, true, nil
}

func (s *ValkeyStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Do(ctx, s.client.B().Del().Key(s.key(id)).Build()).Error()
}

func (s *ValkeyStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

var _ auth.SessionStore = (*ValkeyStore)(nil)
