package model

import "strings"

// Tier is a coarse model-quality selector chosen by the caller.
type Tier string

// Tier constants.
const (
	Standard Tier = "standard"
	// Deep is the higher-capability "deep think" tier.
	Deep Tier = "deep"
)

// IsValid checks if the tier is one of the supported values.
func (t Tier) IsValid() bool {
	return t == Standard || t == Deep
}

// ID names a backend model. Canonical identifiers may carry a namespace
// ("meta-llama/llama-4-scout"); Short drops it for display.
type ID struct {
	id    string
	short string
}

// NewID creates a model identifier.
func NewID(id string) ID {
	short := id
	if i := strings.LastIndex(id, "/"); i >= 0 {
		short = id[i+1:]
	}
	return ID{id: id, short: short}
}

// ID returns the canonical identifier sent to the provider.
func (m ID) ID() string { return m.id }

// Short returns the display name: the part after the namespace separator.
func (m ID) Short() string { return m.short }

// IsZero reports whether the identifier is empty.
func (m ID) IsZero() bool { return m.id == "" }

func (m ID) String() string { return m.id }
