package allocation

import (
	"context"
	"time"

	"stokri/pkg/domain"
	dErrors "stokri/pkg/domain-errors"
)

// memoryTx serializes transactions with sharded mutexes keyed by asset ID.
// The asset row is the single contention point, so locking its shard for the
// duration of fn gives the same read-check-write isolation a FOR UPDATE row
// lock provides in SQL.
const numShards = 128

// defaultTxTimeout bounds a transaction that arrives without a deadline.
const defaultTxTimeout = 5 * time.Second

type memoryTx struct {
	shards  [numShards]chan struct{}
	stores  Stores
	timeout time.Duration
}

// NewMemoryTx wraps a set of in-memory stores in a StoreTx. Intended for
// tests and single-process dev runs; production uses the SQL implementation.
func NewMemoryTx(stores Stores) StoreTx {
	t := &memoryTx{stores: stores}
	for i := range t.shards {
		t.shards[i] = make(chan struct{}, 1)
	}
	return t
}

func (t *memoryTx) RunInTx(ctx context.Context, assetID domain.AssetID, fn func(stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.shards[shardFor(assetID)]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "transaction aborted: lock wait timed out")
	}
	defer func() { <-shard }()

	return fn(t.stores)
}

// shardFor hashes the asset ID with FNV-1a for even shard distribution.
func shardFor(assetID domain.AssetID) int {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	s := assetID.String()
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return int(h % numShards)
}
