package session

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// shard guards one bucket of session records. Mutations to a record happen
// under its shard lock only, which gives per-key atomicity without a store
// wide lock.
type shard struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// store is a token-sharded session map.
type store struct {
	shards [shardCount]*shard
}

func newStore() *store {
	s := &store{}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*Session)}
	}

	return s
}

func (s *store) shardFor(token string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))

	return s.shards[h.Sum32()%shardCount]
}

// put inserts a record.
func (s *store) put(sess *Session) {
	sh := s.shardFor(sess.Token)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.sessions[sess.Token] = sess
}

// get returns a copy of the record, so callers never observe a concurrent
// mutation mid-read.
func (s *store) get(token string) (Session, bool) {
	sh := s.shardFor(token)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[token]
	if !ok {
		return Session{}, false
	}

	return *sess, true
}

// update applies fn to the record under its shard lock. fn returning false
// means the record was not in a state the caller could act on.
func (s *store) update(token string, fn func(*Session) bool) (Session, bool) {
	sh := s.shardFor(token)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[token]
	if !ok {
		return Session{}, false
	}

	if !fn(sess) {
		return *sess, false
	}

	return *sess, true
}

// eachShard runs fn once per shard under that shard's lock. Used by the
// sweep and bulk-termination passes so they only ever hold one shard at a
// time.
func (s *store) eachShard(fn func(map[string]*Session)) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		fn(sh.sessions)
		sh.mu.Unlock()
	}
}

// sweepShard visits one shard by index; bulk operations fan out across
// indexes concurrently.
func (s *store) sweepShard(i int, now time.Time, fn func(*Session, time.Time) bool) int {
	sh := s.shards[i]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	touched := 0

	for _, sess := range sh.sessions {
		if fn(sess, now) {
			touched++
		}
	}

	return touched
}

// removeShard deletes records in one shard for which fn returns true.
func (s *store) removeShard(i int, fn func(*Session) bool) int {
	sh := s.shards[i]

	sh.mu.Lock()
	defer sh.mu.Unlock()

	removed := 0

	for token, sess := range sh.sessions {
		if fn(sess) {
			delete(sh.sessions, token)
			removed++
		}
	}

	return removed
}
