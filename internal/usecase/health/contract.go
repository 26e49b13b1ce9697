package health

import "context"

// StorePinger checks shared cache store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ModelReadiness reports whether any model passed warm-up.
type ModelReadiness interface {
	AnyReady() bool
}
