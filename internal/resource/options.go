package resource

import "time"

type options struct {
	expiry         time.Duration
	itemCap        int
	pageCap        int
	localMutations bool
}

// Option configures a Client.
type Option func(*options)

// WithExpiryWindow sets how long a cached item or page counts as fresh.
func WithExpiryWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.expiry = d
		}
	}
}

// WithItemCapacity bounds the item cache; least-recently-used records are
// evicted past it. Liked state survives eviction.
func WithItemCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.itemCap = n
		}
	}
}

// WithPageCapacity bounds the number of retained page entries.
func WithPageCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageCap = n
		}
	}
}

// WithLocalMutations makes Mutate a purely local optimistic+persisted
// operation with no gateway call and no rollback path. Used when the
// backend does not implement the like endpoints.
func WithLocalMutations() Option {
	return func(o *options) {
		o.localMutations = true
	}
}

func defaultOptions() options {
	return options{
		expiry:  5 * time.Minute,
		itemCap: 512,
		pageCap: 64,
	}
}
