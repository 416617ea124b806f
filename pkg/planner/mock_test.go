package planner

import (
	"context"
	"fmt"
	"sync"

	"github.com/mdn/stumptown-deployer/pkg/s3client"
)

// mockClient is a hand-rolled s3client.Client for planner tests.
type mockClient struct {
	mu sync.Mutex

	listFunc       func(ctx context.Context, bucket, prefix string) (map[string]s3client.ObjectInfo, error)
	objectHashFunc func(ctx context.Context, bucket, key string) (string, error)
	putFunc        func(ctx context.Context, req *s3client.PutRequest) error

	hashCalls []string
}

func (m *mockClient) List(ctx context.Context, bucket, prefix string) (map[string]s3client.ObjectInfo, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, bucket, prefix)
	}
	return nil, fmt.Errorf("List not implemented")
}

func (m *mockClient) ObjectHash(ctx context.Context, bucket, key string) (string, error) {
	m.mu.Lock()
	m.hashCalls = append(m.hashCalls, key)
	m.mu.Unlock()

	if m.objectHashFunc != nil {
		return m.objectHashFunc(ctx, bucket, key)
	}
	return "", fmt.Errorf("ObjectHash not implemented")
}

func (m *mockClient) Put(ctx context.Context, req *s3client.PutRequest) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, req)
	}
	return fmt.Errorf("Put not implemented")
}

func (m *mockClient) hashCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hashCalls)
}

// stubHasher returns a hash oracle backed by a fixed path→hash map.
func stubHasher(hashes map[string]string) func(string) (string, error) {
	return func(path string) (string, error) {
		if hash, ok := hashes[path]; ok {
			return hash, nil
		}
		return "", fmt.Errorf("no stub hash for %s", path)
	}
}
