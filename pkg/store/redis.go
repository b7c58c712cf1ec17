package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/flowlens/pkg/flow"
)

// DefaultRedisPrefix namespaces flowlens keys.
const DefaultRedisPrefix = "flowlens:"

// RedisStore keeps each flow as a JSON value under <prefix>flow:<id> and
// orders them with a sorted set <prefix>flows scored by creation time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, storageErr(fmt.Sprintf("connect redis %s", addr), err)
	}
	return NewRedisStore(client, prefix), nil
}

// NewRedisStore wraps an existing client. The store owns the client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) flowKey(id string) string { return s.prefix + "flow:" + id }
func (s *RedisStore) indexKey() string         { return s.prefix + "flows" }

func (s *RedisStore) Save(ctx context.Context, doc *flow.Document, name string) (string, error) {
	data, err := encodeFlow(doc)
	if err != nil {
		return "", err
	}
	id := newID()
	t := now()
	e := entry{
		Summary: Summary{ID: id, Name: DisplayName(doc, name, id), CreatedAt: t, UpdatedAt: t},
		Flow:    data,
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return "", storageErr("encode flow entry", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.flowKey(id), raw, 0)
		p.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(t.UnixMilli()), Member: id})
		return nil
	})
	if err != nil {
		return "", storageErr("save flow", err)
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	e, err := s.load(ctx, id)
	if err != nil || e == nil {
		return nil, err
	}
	return e.record()
}

func (s *RedisStore) Update(ctx context.Context, id string, doc *flow.Document) (bool, error) {
	data, err := encodeFlow(doc)
	if err != nil {
		return false, err
	}
	e, err := s.load(ctx, id)
	if err != nil || e == nil {
		return false, err
	}
	e.Flow = data
	e.UpdatedAt = now()
	raw, err := json.Marshal(e)
	if err != nil {
		return false, storageErr("encode flow entry", err)
	}
	// XX: a concurrent Delete wins over this Update.
	ok, err := s.client.SetXX(ctx, s.flowKey(id), raw, redis.KeepTTL).Result()
	if err != nil {
		return false, storageErr("update flow", err)
	}
	return ok, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) (bool, error) {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, s.flowKey(id))
		p.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return false, storageErr("delete flow", err)
	}
	return del.Val() > 0, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, storageErr("list flows", err)
	}
	out := []Summary{}
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.flowKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storageErr("list flows", err)
	}
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue // deleted between ZRANGE and MGET
		}
		var e entry
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			return nil, storageErr("decode flow entry", err)
		}
		out = append(out, e.Summary)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) load(ctx context.Context, id string) (*entry, error) {
	raw, err := s.client.Get(ctx, s.flowKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get flow", err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, storageErr("decode flow entry", err)
	}
	return &e, nil
}

var _ Store = (*RedisStore)(nil)
