package memory

import (
	"context"
	"errors"
	"testing"

	"plantwatch/internal/storage"
)

func TestKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewKV()

	loaded, err := kv.Load(ctx, storage.KeyAuthSession)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.State != storage.StateAbsent {
		t.Fatalf("state = %s, want absent", loaded.State)
	}

	payload := []byte(`{"expiresAt":1}`)
	if err := kv.Save(ctx, storage.KeyAuthSession, payload); err != nil {
		t.Fatalf("save: %v", err)
	}
	payload[0] = 'x'

	loaded, err = kv.Load(ctx, storage.KeyAuthSession)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.State != storage.StateValid {
		t.Fatalf("state = %s, want valid", loaded.State)
	}
	if string(loaded.Data) != `{"expiresAt":1}` {
		t.Fatalf("data = %s, stored bytes were aliased", loaded.Data)
	}

	if err := kv.Delete(ctx, storage.KeyAuthSession); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := kv.Delete(ctx, storage.KeyAuthSession); err != nil {
		t.Fatalf("delete missing key: %v", err)
	}
	loaded, err = kv.Load(ctx, storage.KeyAuthSession)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.State != storage.StateAbsent {
		t.Fatalf("state after delete = %s, want absent", loaded.State)
	}
}

func TestKVEmptyKey(t *testing.T) {
	kv := NewKV()
	if _, err := kv.Load(context.Background(), ""); !errors.Is(err, storage.ErrEmptyKey) {
		t.Errorf("load empty key: err = %v", err)
	}
	if err := kv.Save(context.Background(), "", nil); !errors.Is(err, storage.ErrEmptyKey) {
		t.Errorf("save empty key: err = %v", err)
	}
}
