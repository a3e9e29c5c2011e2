package arcreplacer

import (
	"io"
	"log"
)

// Option configures a [Replacer] at construction time.
type Option func(*Replacer)

// WithLogger directs diagnostic messages (pin-fallback eviction, an Evict
// call that found no victim) to logger instead of the default discard
// sink. Passing nil is a no-op.
func WithLogger(logger *log.Logger) Option {
	return func(r *Replacer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
