package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"

	"ysa-registration/internal/model"
)

// snapshotKey names the single slot holding the serialized registration
// list. It matches the remote collection name so fallback data is easy to
// find next to its source.
const snapshotKey = "ysa_registrations"

// SnapshotStore is the local fallback cache: one named slot holding the
// entire registration list as a single serialized value. There is no partial
// update; callers read the whole list, mutate it, and write it back.
type SnapshotStore interface {
	Read(ctx context.Context) ([]model.Registration, error)
	Write(ctx context.Context, regs []model.Registration) error
}

// ── File-backed slot ─────────────────────────────────────────────────────────

// FileSnapshot keeps the slot in a JSON file under a data directory, for
// single-host deployments with no redis at hand.
type FileSnapshot struct {
	path string
}

// NewFileSnapshot stores the slot at dir/ysa_registrations.json.
func NewFileSnapshot(dir string) *FileSnapshot {
	return &FileSnapshot{path: filepath.Join(dir, snapshotKey+".json")}
}

func (f *FileSnapshot) Read(_ context.Context) ([]model.Registration, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return []model.Registration{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var regs []model.Registration
	if err := json.Unmarshal(data, &regs); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return regs, nil
}

func (f *FileSnapshot) Write(_ context.Context, regs []model.Registration) error {
	if regs == nil {
		regs = []model.Registration{}
	}
	data, err := json.Marshal(regs)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	// Write-then-rename so a crash mid-write never truncates the slot.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// ── Redis-backed slot ────────────────────────────────────────────────────────

// RedisSnapshot keeps the slot in a single redis key, for deployments where
// several instances must share the fallback.
type RedisSnapshot struct {
	c *redis.Client
}

func NewRedisSnapshot(c *redis.Client) *RedisSnapshot { return &RedisSnapshot{c: c} }

func (r *RedisSnapshot) Read(ctx context.Context) ([]model.Registration, error) {
	val, err := r.c.Get(ctx, snapshotKey).Result()
	if err == redis.Nil {
		return []model.Registration{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var regs []model.Registration
	if err := json.Unmarshal([]byte(val), &regs); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return regs, nil
}

func (r *RedisSnapshot) Write(ctx context.Context, regs []model.Registration) error {
	if regs == nil {
		regs = []model.Registration{}
	}
	data, err := json.Marshal(regs)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.c.Set(ctx, snapshotKey, string(data), time.Duration(0)).Err(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

var (
	_ SnapshotStore = (*FileSnapshot)(nil)
	_ SnapshotStore = (*RedisSnapshot)(nil)
)
