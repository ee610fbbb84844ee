package workflow

import (
	"strconv"
	"sync"
)

// keyedLocker serialises transitions on the same entity inside one process
type keyedLocker struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{entries: make(map[string]*lockEntry)}
}

// Lock blocks until key is free and returns the matching unlock func
func (l *keyedLocker) Lock(key string) func() {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, key) // Drop idle keys so the map does not grow with every id ever seen
		}
		l.mu.Unlock()
	}
}

func transferKey(id uint) string     { return "transfer:" + strconv.FormatUint(uint64(id), 10) }
func playerKey(id uint) string       { return "player:" + strconv.FormatUint(uint64(id), 10) }
func registrationKey(id uint) string { return "registration:" + strconv.FormatUint(uint64(id), 10) }
func clubKey(id uint) string         { return "club:" + strconv.FormatUint(uint64(id), 10) }
func usernameKey(name string) string { return "username:" + name }
