// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	"gitforum/internal/models"
)

// KV persists submission records by key. Implementations must be safe for
// concurrent use.
type KV interface {
	Get(ctx context.Context, key string) (models.Submission, bool, error)
	Put(ctx context.Context, s models.Submission) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]models.Submission, error)
}

func sortByCreated(subs []models.Submission) {
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].CreatedAt.Before(subs[j].CreatedAt)
		}
		return subs[i].Key < subs[j].Key
	})
}

// MemoryKV keeps records in process memory.
type MemoryKV struct {
	mu   sync.Mutex
	subs map[string]models.Submission
}

// NewMemoryKV returns an empty store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{subs: make(map[string]models.Submission)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (models.Submission, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[key]
	return s, ok, nil
}

func (m *MemoryKV) Put(_ context.Context, s models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[s.Key] = s
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs, key)
	return nil
}

func (m *MemoryKV) List(_ context.Context) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Submission, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s)
	}
	sortByCreated(out)
	return out, nil
}

// FileKV keeps records in a JSON file so they survive restarts. The file
// is re-read on every call, letting several CLI invocations share it.
type FileKV struct {
	mu   sync.Mutex
	path string
}

// NewFileKV returns a store backed by path. The file is created on the
// first write.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

func (f *FileKV) load() (map[string]models.Submission, error) {
	subs := make(map[string]models.Submission)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return subs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return subs, nil
	}
	if err := json.Unmarshal(data, &subs); err != nil {
		return nil, fmt.Errorf("decode state file %s: %w", f.path, err)
	}
	return subs, nil
}

// save writes through a temporary file so a crash never leaves a
// truncated state file behind.
func (f *FileKV) save(subs map[string]models.Submission) error {
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".submissions-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (f *FileKV) Get(_ context.Context, key string) (models.Submission, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs, err := f.load()
	if err != nil {
		return models.Submission{}, false, err
	}
	s, ok := subs[key]
	return s, ok, nil
}

func (f *FileKV) Put(_ context.Context, s models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs, err := f.load()
	if err != nil {
		return err
	}
	subs[s.Key] = s
	return f.save(subs)
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := subs[key]; !ok {
		return nil
	}
	delete(subs, key)
	return f.save(subs)
}

func (f *FileKV) List(_ context.Context) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs, err := f.load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Submission, 0, len(subs))
	for _, s := range subs {
		out = append(out, s)
	}
	sortByCreated(out)
	return out, nil
}

// DefaultValkeyKey is the hash holding submission records.
const DefaultValkeyKey = "forum:submissions"

// ValkeyKV keeps records as fields of one Valkey hash, shared by every
// client pointed at the same instance.
type ValkeyKV struct {
	client *redis.Client
	key    string
}

// NewValkeyKV returns a store on the hash key. An empty key uses
// DefaultValkeyKey.
func NewValkeyKV(client *redis.Client, key string) *ValkeyKV {
	if key == "" {
		key = DefaultValkeyKey
	}
	return &ValkeyKV{client: client, key: key}
}

func (v *ValkeyKV) Get(ctx context.Context, key string) (models.Submission, bool, error) {
	data, err := v.client.HGet(ctx, v.key, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Submission{}, false, nil
	}
	if err != nil {
		return models.Submission{}, false, fmt.Errorf("valkey hget %s: %w", key, err)
	}
	var s models.Submission
	if err := json.Unmarshal(data, &s); err != nil {
		return models.Submission{}, false, fmt.Errorf("decode submission %s: %w", key, err)
	}
	return s, true, nil
}

func (v *ValkeyKV) Put(ctx context.Context, s models.Submission) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	if err := v.client.HSet(ctx, v.key, s.Key, data).Err(); err != nil {
		return fmt.Errorf("valkey hset %s: %w", s.Key, err)
	}
	return nil
}

func (v *ValkeyKV) Delete(ctx context.Context, key string) error {
	if err := v.client.HDel(ctx, v.key, key).Err(); err != nil {
		return fmt.Errorf("valkey hdel %s: %w", key, err)
	}
	return nil
}

func (v *ValkeyKV) List(ctx context.Context) ([]models.Submission, error) {
	all, err := v.client.HGetAll(ctx, v.key).Result()
	if err != nil {
		return nil, fmt.Errorf("valkey hgetall: %w", err)
	}
	out := make([]models.Submission, 0, len(all))
	for key, raw := range all {
		var s models.Submission
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("decode submission %s: %w", key, err)
		}
		out = append(out, s)
	}
	sortByCreated(out)
	return out, nil
}
