// Package services holds domain services: logic that spans entities but
// carries no state of its own.
package services

import (
	"wayfinder-backend/domain/core/entities"
	"wayfinder-backend/domain/navigation"
)

// AccessPolicy is the sole authorization boundary the navigation subsystem
// respects. It encapsulates visibility, premium and NFT gating; nothing
// downstream re-implements these checks.
type AccessPolicy struct{}

// NewAccessPolicy creates the default access policy.
func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

// HasAccess reports whether the user may be shown the node. The preview
// clock is honored so premium expiry can be evaluated at a simulated
// instant.
func (p *AccessPolicy) HasAccess(node *entities.Node, user *entities.User, preview navigation.Preview) bool {
	if node == nil || !node.Visible {
		return false
	}
	if node.PremiumOnly && !user.PremiumActive(preview.Clock()) {
		return false
	}
	if node.RequiredNFT != "" && !user.OwnsNFT(node.RequiredNFT) {
		return false
	}
	return true
}
