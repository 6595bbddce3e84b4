package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/Elyon-code/book-recommendation-engine/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	if _, err := ms.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("Get(missing) error = %v, want store not found", err)
	}

	if err := ms.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := ms.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get() = (%q, %v), want (v, nil)", got, err)
	}

	if err := ms.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Errorf("Get() after delete error = %v, want store not found", err)
	}
}

func TestMemoryStoreBatch(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	kvs := map[string][]byte{"a": []byte("1"), "b": []byte("2")}
	if err := ms.BatchSet(ctx, kvs); err != nil {
		t.Fatalf("BatchSet() error = %v", err)
	}

	got, err := ms.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet() error = %v", err)
	}
	if !reflect.DeepEqual(got, kvs) {
		t.Errorf("BatchGet() = %v, want %v (missing keys skipped)", got, kvs)
	}
}

func TestMemoryStoreZSet(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	// 平均分榜：3 > 1 > 2；4 与 2 同分，按成员升序
	for member, score := range map[string]float64{"1": 4.5, "2": 3.0, "3": 5.0, "4": 3.0} {
		if err := ms.ZAdd(ctx, "top", score, member); err != nil {
			t.Fatalf("ZAdd() error = %v", err)
		}
	}

	got, err := ms.ZRange(ctx, "top", 0, 2)
	if err != nil {
		t.Fatalf("ZRange() error = %v", err)
	}
	want := []string{"3", "1", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ZRange() = %v, want %v", got, want)
	}

	score, err := ms.ZScore(ctx, "top", "3")
	if err != nil || score != 5.0 {
		t.Errorf("ZScore() = (%v, %v), want (5, nil)", score, err)
	}
	if _, err := ms.ZScore(ctx, "top", "missing"); !core.IsStoreNotFound(err) {
		t.Errorf("ZScore(missing) error = %v, want store not found", err)
	}
}

func TestMemoryStoreHash(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()
	defer ms.Close()

	if err := ms.HSet(ctx, "h", "f1", []byte("v1")); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}
	if err := ms.HSet(ctx, "h", "f2", []byte("v2")); err != nil {
		t.Fatalf("HSet() error = %v", err)
	}

	got, err := ms.HGet(ctx, "h", "f1")
	if err != nil || string(got) != "v1" {
		t.Errorf("HGet() = (%q, %v), want (v1, nil)", got, err)
	}

	all, err := ms.HGetAll(ctx, "h")
	if err != nil {
		t.Fatalf("HGetAll() error = %v", err)
	}
	if len(all) != 2 || string(all["f2"]) != "v2" {
		t.Errorf("HGetAll() = %v, want both fields", all)
	}
}
