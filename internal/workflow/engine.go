// Package workflow implements the club transfer and registration state machines
// on top of the relational store.
package workflow

import (
	"context"
	"time"

	"club_system/internal/events"
	"club_system/internal/utils"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Options configures an Engine. Only DB is required.
type Options struct {
	DB       *gorm.DB
	Cache    utils.Cache
	Events   events.Publisher
	Clock    clockwork.Clock
	Log      logrus.FieldLogger
	CacheTTL time.Duration
}

// Engine runs every workflow command as one store transaction
type Engine struct {
	db     *gorm.DB
	cache  utils.Cache
	events events.Publisher
	clock  clockwork.Clock
	log    logrus.FieldLogger
	ttl    time.Duration
	locks  *keyedLocker
	sync   *Synchronizer
}

// New builds an Engine, filling unset options with in-process defaults
func New(opts Options) *Engine {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Cache == nil {
		opts.Cache = utils.NewMemoryCache()
	}
	if opts.Events == nil {
		opts.Events = events.NewLogPublisher(opts.Log)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 60 * time.Second
	}
	return &Engine{
		db:     opts.DB,
		cache:  opts.Cache,
		events: opts.Events,
		clock:  opts.Clock,
		log:    opts.Log,
		ttl:    opts.CacheTTL,
		locks:  newKeyedLocker(),
		sync:   NewSynchronizer(opts.Cache, opts.Log),
	}
}

// Synchronizer exposes the consistency synchronizer used by the engine
func (e *Engine) Synchronizer() *Synchronizer { return e.sync }

// now truncates to microseconds so timestamps survive every SQL driver unchanged
func (e *Engine) now() time.Time {
	return e.clock.Now().UTC().Truncate(time.Microsecond)
}

// publish delivers an event after commit; the store stays authoritative if it fails
func (e *Engine) publish(ctx context.Context, subject string, payload any) {
	ev, err := events.NewEvent(subject, payload, e.now())
	if err == nil {
		err = e.events.Publish(ctx, ev)
	}
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"subject": subject,
			"error":   err.Error(),
		}).Warn("Failed to publish event")
	}
}

// invalidate drops cached read models so the next read rebuilds them from the store
func (e *Engine) invalidate(ctx context.Context, keys ...string) {
	invalidate(ctx, e.cache, e.log, keys...)
}

func invalidate(ctx context.Context, cache utils.Cache, log logrus.FieldLogger, keys ...string) {
	if err := cache.Delete(ctx, keys...); err != nil {
		log.WithFields(logrus.Fields{
			"keys":  keys,
			"error": err.Error(),
		}).Warn("Failed to invalidate cache")
	}
}

// cached returns the read model under key, rebuilding it with load on a miss.
// Cache errors fall through to the store.
func cached[T any](ctx context.Context, e *Engine, key string, load func() (T, error)) (T, error) {
	var v T
	if found, err := e.cache.Get(ctx, key, &v); err == nil && found {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if err := e.cache.Set(ctx, key, v, e.ttl); err != nil {
		e.log.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Failed to cache read model")
	}
	return v, nil
}
