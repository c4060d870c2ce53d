package plugin

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

// stagingLocks is a set of try-locks keyed by staging directory name.
type stagingLocks struct {
	held cmap.ConcurrentMap[string, string]
}

func newStagingLocks() *stagingLocks {
	return &stagingLocks{held: cmap.New[string]()}
}

// tryLock claims key for opID. It returns false and the holder's op id when
// the key is taken.
func (l *stagingLocks) tryLock(key, opID string) (release func(), ok bool, holder string) {
	if !l.held.SetIfAbsent(key, opID) {
		holder, _ = l.held.Get(key)
		return nil, false, holder
	}
	return func() {
		l.held.RemoveCb(key, func(_ string, v string, exists bool) bool {
			return exists && v == opID
		})
	}, true, ""
}
