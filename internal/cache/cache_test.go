package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mapCache) Put(_ context.Context, key string, value []byte, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func TestNoopCacheAlwaysMisses(t *testing.T) {
	var c Cache = NoopCache{}
	c.Put(context.Background(), "k", []byte("v"), time.Minute)
	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Error("NoopCache returned a hit")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := &mapCache{data: map[string][]byte{}}

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	PutJSON(ctx, c, "p", payload{Name: "bank", Count: 3}, DefaultTTL)

	var got payload
	if !GetJSON(ctx, c, "p", &got) {
		t.Fatal("GetJSON missed a stored key")
	}
	if got.Name != "bank" || got.Count != 3 {
		t.Errorf("GetJSON = %+v", got)
	}

	c.data["broken"] = []byte("{not json")
	if GetJSON(ctx, c, "broken", &got) {
		t.Error("GetJSON reported a hit for a corrupt entry")
	}
	if GetJSON(ctx, c, "absent", &got) {
		t.Error("GetJSON reported a hit for a missing key")
	}
}
