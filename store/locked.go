package store

import (
	"biometria/models"
	"context"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
)

type keyLock struct {
	sync.RWMutex
	refs int // guarded by the map shard lock
}

// Locked serializes writes per identity and lets reads of the same identity
// share. Identities never wait on each other.
type Locked struct {
	Store
	locks cmap.ConcurrentMap[string, *keyLock]
}

func NewLocked(s Store) *Locked {
	return &Locked{Store: s, locks: cmap.New[*keyLock]()}
}

func (l *Locked) acquire(id string) *keyLock {
	var held *keyLock
	l.locks.Upsert(id, nil, func(exist bool, valueInMap, _ *keyLock) *keyLock {
		if !exist {
			valueInMap = &keyLock{}
		}
		valueInMap.refs++
		held = valueInMap
		return valueInMap
	})
	return held
}

func (l *Locked) release(id string) {
	l.locks.RemoveCb(id, func(_ string, v *keyLock, exists bool) bool {
		if !exists {
			return false
		}
		v.refs--
		return v.refs == 0
	})
}

func (l *Locked) write(id string, fn func()) {
	k := l.acquire(id)
	k.Lock()
	defer l.release(id)
	defer k.Unlock()
	fn()
}

func (l *Locked) read(id string, fn func()) {
	k := l.acquire(id)
	k.RLock()
	defer l.release(id)
	defer k.RUnlock()
	fn()
}

func (l *Locked) Upsert(ctx context.Context, rec *models.Enrollment) (err error) {
	l.write(rec.IdentityID, func() { err = l.Store.Upsert(ctx, rec) })
	return
}

func (l *Locked) Get(ctx context.Context, identityID string) (rec *models.Enrollment, err error) {
	l.read(identityID, func() { rec, err = l.Store.Get(ctx, identityID) })
	return
}

func (l *Locked) Delete(ctx context.Context, identityID string) (n int64, err error) {
	l.write(identityID, func() { n, err = l.Store.Delete(ctx, identityID) })
	return
}

// Len is the number of identities currently holding or waiting on a lock.
func (l *Locked) Len() int {
	return l.locks.Count()
}
