package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// DefaultStorageKey is the key the document lives under.
const DefaultStorageKey = "smartcalendar:data:v1"

// ErrCorruptDocument is returned when the stored document cannot be decoded.
// The stored value is left in place; Store.Reset discards it explicitly.
var ErrCorruptDocument = errors.New("stored document is corrupt")

// KeyValue is the raw string storage the backends sit on.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Backend persists the whole document. Load returns (nil, nil) when nothing is stored.
type Backend interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	Clear(ctx context.Context) error
}

// DocumentBackend stores the document as JSON under a single key.
type DocumentBackend struct {
	kv  KeyValue
	key string
}

func NewDocumentBackend(kv KeyValue, key string) *DocumentBackend {
	if key == "" {
		key = DefaultStorageKey
	}
	return &DocumentBackend{kv: kv, key: key}
}

func (b *DocumentBackend) Load(ctx context.Context) (*Document, error) {
	raw, ok, err := b.kv.Get(ctx, b.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	doc.normalize()
	return &doc, nil
}

// normalize replaces missing collections with empty ones so the document
// always encodes with four arrays.
func (d *Document) normalize() {
	if d.Categories == nil {
		d.Categories = []Category{}
	}
	if d.Subcategories == nil {
		d.Subcategories = []Subcategory{}
	}
	if d.Events == nil {
		d.Events = []Event{}
	}
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
}

func (b *DocumentBackend) Save(ctx context.Context, doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return b.kv.Set(ctx, b.key, string(data))
}

func (b *DocumentBackend) Clear(ctx context.Context) error {
	return b.kv.Remove(ctx, b.key)
}

// MemoryKV is an in-process KeyValue.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
