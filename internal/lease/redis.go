package lease

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisTable stores lease records as one hash per content id under
// {table}:{id}.
type RedisTable struct {
	client *redis.Client
	table  string
}

func NewRedisTable(client *redis.Client, table string) *RedisTable {
	return &RedisTable{client: client, table: table}
}

func (t *RedisTable) key(id string) string {
	return t.table + ":" + id
}

func (t *RedisTable) Upsert(ctx context.Context, id string, fields map[string]string) error {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return t.client.HSet(ctx, t.key(id), args...).Err()
}

func (t *RedisTable) SetAndClear(ctx context.Context, id string, set map[string]string, clear []string) error {
	args := make([]interface{}, 0, len(set)*2)
	for k, v := range set {
		args = append(args, k, v)
	}

	pipe := t.client.TxPipeline()
	pipe.HSet(ctx, t.key(id), args...)
	pipe.HDel(ctx, t.key(id), clear...)
	_, err := pipe.Exec(ctx)
	return err
}
