// Package redistree is a RemoteTree backed by Redis, for deployments where
// several server instances share one store. Each room lives in a single
// hash: field = path relative to the room, value = JSON-encoded leaf. Every
// mutation publishes the room key, and subscribers re-read the hash.
package redistree

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/ebrun/Askroom/internal/store"
)

type Tree struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Tree {
	return &Tree{rdb: rdb}
}

var _ store.RemoteTree = (*Tree)(nil)

// keyField splits a path into the hash key (the first two segments, e.g.
// rooms/{roomId}) and the field prefix inside that hash.
func keyField(path string) (key, field string) {
	segments := store.Split(path)
	if len(segments) < 2 {
		return store.Join(segments...), ""
	}
	return store.Join(segments[0], segments[1]), store.Join(segments[2:]...)
}

func (t *Tree) Subscribe(path string, onChange func(store.Snapshot)) (store.Subscription, error) {
	key, field := keyField(path)
	if field != "" {
		return nil, fmt.Errorf("redistree: can only subscribe at a room root, got %q", path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := t.rdb.Subscribe(ctx, key)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("redistree: subscribe %s: %w", key, err)
	}

	snap, err := t.readRoom(ctx, key)
	if err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, err
	}
	onChange(snap)

	sub := &subscription{cancel: cancel, pubsub: pubsub}
	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				snap, err := t.readRoom(ctx, key)
				if err != nil {
					log.Error().Err(err).Str("module", "store.redistree").Str("key", key).Msg("re-read after publish")
					continue
				}
				onChange(snap)
			}
		}
	}()
	return sub, nil
}

type subscription struct {
	cancel context.CancelFunc
	pubsub *redis.PubSub
	once   sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		_ = s.pubsub.Close()
	})
}

func (t *Tree) Push(ctx context.Context, path string, value map[string]any) (string, error) {
	id := store.NewChildID()
	child := store.Join(path, id)
	key, field := keyField(child)

	fields, err := flatten(field, value)
	if err != nil {
		return "", err
	}
	if len(fields) == 0 {
		return "", fmt.Errorf("redistree: push to %s with no leaves", path)
	}
	if err := t.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return "", fmt.Errorf("redistree: push %s: %w", child, err)
	}
	return id, t.publish(ctx, key)
}

func (t *Tree) Update(ctx context.Context, path string, partial map[string]any) error {
	key, field := keyField(path)
	fields, err := flatten(field, partial)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	if err := t.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redistree: update %s: %w", path, err)
	}
	return t.publish(ctx, key)
}

func (t *Tree) Remove(ctx context.Context, path string) error {
	key, field := keyField(path)
	if field == "" {
		n, err := t.rdb.Del(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("redistree: remove %s: %w", path, err)
		}
		if n == 0 {
			return nil
		}
		return t.publish(ctx, key)
	}

	names, err := t.rdb.HKeys(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redistree: remove %s: %w", path, err)
	}
	var doomed []string
	for _, name := range names {
		if name == field || strings.HasPrefix(name, field+"/") {
			doomed = append(doomed, name)
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	if err := t.rdb.HDel(ctx, key, doomed...).Err(); err != nil {
		return fmt.Errorf("redistree: remove %s: %w", path, err)
	}
	return t.publish(ctx, key)
}

func (t *Tree) publish(ctx context.Context, key string) error {
	if err := t.rdb.Publish(ctx, key, "1").Err(); err != nil {
		return fmt.Errorf("redistree: publish %s: %w", key, err)
	}
	return nil
}

func (t *Tree) readRoom(ctx context.Context, key string) (store.Snapshot, error) {
	fields, err := t.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redistree: read %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return unflatten(fields), nil
}

// flatten turns a nested value into hash fields, JSON-encoding each leaf.
func flatten(prefix string, value map[string]any) (map[string]any, error) {
	out := make(map[string]any)
	var walk func(field string, v any) error
	walk = func(field string, v any) error {
		if m, ok := v.(map[string]any); ok {
			for name, child := range m {
				next := name
				if field != "" {
					next = field + "/" + name
				}
				if err := walk(next, child); err != nil {
					return err
				}
			}
			return nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("redistree: encode %s: %w", field, err)
		}
		out[field] = string(raw)
		return nil
	}
	if err := walk(prefix, value); err != nil {
		return nil, err
	}
	return out, nil
}

func unflatten(fields map[string]string) store.Snapshot {
	root := make(store.Snapshot)
	for field, raw := range fields {
		segments := store.Split(field)
		if len(segments) == 0 {
			continue
		}
		node := map[string]any(root)
		for _, s := range segments[:len(segments)-1] {
			child, ok := node[s].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[s] = child
			}
			node = child
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw // tolerate values written by other tooling
		}
		node[segments[len(segments)-1]] = v
	}
	return root
}
