package testsupport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
)

// ErrInjected is returned by MemBlobs operations armed to fail.
var ErrInjected = errors.New("injected blob failure")

// MemBlobs is an in-memory blob store.
type MemBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte

	FailPut    bool
	FailDelete bool
}

func NewMemBlobs() *MemBlobs {
	return &MemBlobs{objects: map[string][]byte{}}
}

func (m *MemBlobs) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPut {
		return "", ErrInjected
	}
	m.objects[key] = append([]byte(nil), data...)

	return m.URL(key), nil
}

func (m *MemBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("MemBlobs - Get(%s): %w", key, errs.ErrRecordNotFound)
	}

	return append([]byte(nil), data...), nil
}

func (m *MemBlobs) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := m.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete {
		return ErrInjected
	}
	delete(m.objects, key)

	return nil
}

func (m *MemBlobs) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemBlobs) URL(key string) string {
	return "mem://" + key
}

// Keys lists the stored keys in lexical order.
func (m *MemBlobs) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
