package storage

import (
	"context"
	"testing"
	"time"

	"github.com/HatiCode/tanklevels/pkg/tank"
	"github.com/HatiCode/tanklevels/pkg/testutil"
)

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	s := NewRedisStoreWithClient(client, time.Minute)
	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	tests := []struct {
		name  string
		entry Entry
	}{
		{"success", Entry{Engine: "sweep", Outcome: tank.Success(time.Date(2024, 1, 1, 9, 46, 21, 818181819, time.UTC))}},
		{"failure", Entry{Engine: "bisect", Outcome: tank.Failure()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := Key(Query{Engine: tt.entry.Engine})
			if err := s.Put(ctx, key, tt.entry); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, found, err := s.Get(ctx, key)
			if err != nil || !found {
				t.Fatalf("Get() = found %v, err %v", found, err)
			}
			if got.Engine != tt.entry.Engine || !got.Outcome.Equal(tt.entry.Outcome) {
				t.Errorf("Get() = %+v, want %+v", got, tt.entry)
			}

			ttl, err := client.TTL(ctx, outcomeKeyPrefix+key).Result()
			if err != nil {
				t.Fatalf("TTL() error = %v", err)
			}
			if ttl <= 0 || ttl > time.Minute {
				t.Errorf("TTL = %s, want (0, 1m]", ttl)
			}
		})
	}

	if _, found, err := s.Get(ctx, "absent"); err != nil || found {
		t.Errorf("Get(absent) = found %v, err %v", found, err)
	}
}

func TestNewRedisStore_RequiresAddr(t *testing.T) {
	if _, err := NewRedisStore("", "", 0, time.Minute); err == nil {
		t.Fatal("expected error for empty addr")
	}
}
