package model

// Capability gates super-user operations: restore, hard delete, and searches
// over the deleted tier or across tiers. It is an in-process guard checked at
// the store layer, not an authentication system. The zero value grants
// nothing.
type Capability struct {
	tierAdmin bool
}

// TierAdmin returns the capability that authorizes tier management.
func TierAdmin() Capability {
	return Capability{tierAdmin: true}
}

// AllowsTierAdmin reports whether the holder may operate on the deleted tier.
func (c Capability) AllowsTierAdmin() bool {
	return c.tierAdmin
}
