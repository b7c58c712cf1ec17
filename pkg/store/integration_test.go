//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowlens/pkg/flow"
)

// Run with: go test -tags integration ./pkg/store
// FLOWLENS_REDIS_ADDR=localhost:6379 FLOWLENS_MONGO_URI=mongodb://localhost:27017

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("FLOWLENS_REDIS_ADDR")
	if addr == "" {
		t.Skip("FLOWLENS_REDIS_ADDR not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s, err := OpenRedis(ctx, addr, "flowlens-test:"+uuid.NewString()+":")
		require.NoError(t, err)
		return &spacedSaves{Store: s}
	})
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("FLOWLENS_MONGO_URI")
	if uri == "" {
		t.Skip("FLOWLENS_MONGO_URI not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s, err := OpenMongo(ctx, uri, "flowlens_test", "flows_"+uuid.NewString())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.coll.Drop(context.Background()) })
		return s
	})
}

// spacedSaves waits between saves so that creation scores, which have
// millisecond resolution, are distinct.
type spacedSaves struct{ Store }

func (s *spacedSaves) Save(ctx context.Context, doc *flow.Document, name string) (string, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, doc, name)
}
