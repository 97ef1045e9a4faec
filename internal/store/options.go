package store

import "time"

type options struct {
	now func() time.Time
}

// Option configures a GORM-backed store.
type Option func(*options)

// WithClock sets the clock used to stamp CreatedAt. Defaults to time.Now in UTC.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
