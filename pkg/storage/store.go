// Package storage caches feasibility outcomes keyed by a hash of the complete query
// input: engine, limits, request and every sample. A cached entry can only be served
// for an identical snapshot, so caching never changes an answer.
package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/HatiCode/tanklevels/pkg/tank"
)

// Entry is a cached outcome.
type Entry struct {
	Engine     string       `json:"engine"`
	Outcome    tank.Outcome `json:"outcome"`
	ComputedAt time.Time    `json:"computedAt"`
}

// Store keeps entries by key. Implementations are safe for concurrent use.
type Store interface {
	Put(ctx context.Context, key string, e Entry) error
	Get(ctx context.Context, key string) (Entry, bool, error)
}

// Query is the full input of one CheckOperation call.
type Query struct {
	Engine   string
	MinLevel float64
	MaxLevel float64
	Request  tank.Request
	Samples  []tank.Sample
}

// Key hashes q with xxhash. Timestamps are hashed as Unix nanoseconds so the same
// instant in different locations maps to the same key.
func Key(q Query) string {
	d := xxhash.New()
	var buf [8]byte

	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	putF64 := func(v float64) { putU64(math.Float64bits(v)) }
	putTime := func(t time.Time) { putU64(uint64(t.UnixNano())) }

	_, _ = d.WriteString(q.Engine)
	_, _ = d.Write([]byte{0})
	putF64(q.MinLevel)
	putF64(q.MaxLevel)
	putTime(q.Request.EarliestStart)
	putU64(uint64(q.Request.Duration))
	putF64(q.Request.Quantity)
	putU64(uint64(len(q.Samples)))
	for _, s := range q.Samples {
		putTime(s.Timestamp)
		putF64(s.Level)
	}

	return fmt.Sprintf("%016x", d.Sum64())
}
