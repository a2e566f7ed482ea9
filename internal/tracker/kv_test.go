// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tracker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"gitforum/internal/models"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testValkeyKV returns a ValkeyKV on DB 15 under a per-test hash key.
// Skips if Valkey is unavailable.
func testValkeyKV(t *testing.T) KV {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	key := "test:submissions:" + t.Name()
	t.Cleanup(func() {
		client.Del(ctx, key)
		client.Close()
	})
	return NewValkeyKV(client, key)
}

func TestKVContract(t *testing.T) {
	stores := []struct {
		name string
		open func(t *testing.T) KV
	}{
		{"memory", func(t *testing.T) KV { return NewMemoryKV() }},
		{"file", func(t *testing.T) KV { return NewFileKV(filepath.Join(t.TempDir(), "state", "subs.json")) }},
		{"valkey", testValkeyKV},
	}

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for _, st := range stores {
		t.Run(st.name, func(t *testing.T) {
			kv := st.open(t)
			ctx := context.Background()

			if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
				t.Fatalf("Get missing: %v %v", ok, err)
			}
			if list, err := kv.List(ctx); err != nil || len(list) != 0 {
				t.Fatalf("List empty: %v %v", list, err)
			}

			later := models.Submission{Key: "edit-post_b", Kind: models.OpEditPost, Target: "b", CommitID: "c2", CreatedAt: base.Add(time.Minute)}
			earlier := models.Submission{Key: "new-post_new", Kind: models.OpNewPost, Target: "new", CommitID: "c1", CreatedAt: base}
			for _, s := range []models.Submission{later, earlier} {
				if err := kv.Put(ctx, s); err != nil {
					t.Fatalf("Put: %v", err)
				}
			}

			got, ok, err := kv.Get(ctx, "new-post_new")
			if err != nil || !ok || got.CommitID != "c1" || !got.CreatedAt.Equal(base) {
				t.Errorf("Get: %+v %v %v", got, ok, err)
			}

			list, err := kv.List(ctx)
			if err != nil || len(list) != 2 || list[0].Key != "new-post_new" {
				t.Errorf("List order: %+v %v", list, err)
			}

			earlier.LastCheckedAt = base.Add(30 * time.Second)
			earlier.LastStatus = "queued"
			if err := kv.Put(ctx, earlier); err != nil {
				t.Fatal(err)
			}
			got, _, _ = kv.Get(ctx, "new-post_new")
			if got.LastStatus != "queued" || !got.Checked() {
				t.Errorf("overwrite: %+v", got)
			}

			if err := kv.Delete(ctx, "new-post_new"); err != nil {
				t.Fatal(err)
			}
			if err := kv.Delete(ctx, "new-post_new"); err != nil {
				t.Errorf("second Delete: %v", err)
			}
			if list, _ := kv.List(ctx); len(list) != 1 {
				t.Errorf("after delete: %+v", list)
			}
		})
	}
}

func TestFileKVSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.json")
	ctx := context.Background()

	s := models.Submission{Key: "new-post_new", Kind: models.OpNewPost, Target: "new", CommitID: "c1", CreatedAt: time.Now().UTC()}
	if err := NewFileKV(path).Put(ctx, s); err != nil {
		t.Fatal(err)
	}

	got, ok, err := NewFileKV(path).Get(ctx, s.Key)
	if err != nil || !ok || got.CommitID != "c1" {
		t.Errorf("reopened: %+v %v %v", got, ok, err)
	}
}

func TestFileKVCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileKV(path).List(context.Background()); err == nil {
		t.Error("expected an error for a corrupt state file")
	}
}
