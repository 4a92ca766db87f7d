package plant

import "sync"

const lockShards = 64

// plantLocks serializes work per plant id. Ids sharing a shard also serialize.
type plantLocks struct {
	shards [lockShards]sync.Mutex
}

func (l *plantLocks) lock(plantID int64) func() {
	m := &l.shards[uint64(plantID)%lockShards]
	m.Lock()
	return m.Unlock
}
