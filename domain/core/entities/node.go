package entities

import (
	"time"

	"wayfinder-backend/domain/core/valueobjects"
)

// Node is a unit of content that can serve as a navigation waypoint.
// The navigation subsystem only reads nodes; they are created and mutated
// by the content-editing side, so this is a plain read model rather than
// a rich aggregate.
type Node struct {
	ID          valueobjects.NodeID
	Slug        string
	WorkspaceID string
	Title       string

	// Source identifies where the content came from (import feed, editor,
	// syndication partner). Used by the repeat filter alongside tags.
	Source string
	Tags   []string

	// Visibility gates. A node must be visible, public and recommendable
	// to be eligible for suggestion-driven navigation.
	Visible       bool
	Public        bool
	Recommendable bool
	PremiumOnly   bool
	RequiredNFT   string

	PopularityScore float64
	Embedding       []float32

	// Weight is transient: the manual transitions fetch copies the edge
	// weight onto the candidate so downstream ordering can use it. It is
	// never persisted on the node itself.
	Weight float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsNavigable reports whether the node may appear as a suggested next step.
func (n *Node) IsNavigable() bool {
	return n.Visible && n.Public && n.Recommendable
}

// HasTag reports whether the node carries the given tag.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TagOverlap counts tags shared between the two nodes.
func (n *Node) TagOverlap(other *Node) int {
	if other == nil {
		return 0
	}
	seen := make(map[string]struct{}, len(n.Tags))
	for _, t := range n.Tags {
		seen[t] = struct{}{}
	}
	count := 0
	for _, t := range other.Tags {
		if _, ok := seen[t]; ok {
			count++
		}
	}
	return count
}

// Transition is a directed, weighted editor-authored link between nodes.
type Transition struct {
	ID        string
	SourceID  valueobjects.NodeID
	Target    *Node
	Weight    float64
	CreatedAt time.Time
}

// User is the navigating principal as the router sees it: just enough
// identity to scope sessions and evaluate access gates.
type User struct {
	ID           string
	WorkspaceID  string
	Premium      bool
	PremiumUntil time.Time
	NFTs         []string
}

// PremiumActive reports whether the user's premium entitlement is live at
// the given instant. A zero PremiumUntil means a non-expiring entitlement.
func (u *User) PremiumActive(now time.Time) bool {
	if u == nil || !u.Premium {
		return false
	}
	if u.PremiumUntil.IsZero() {
		return true
	}
	return now.Before(u.PremiumUntil)
}

// OwnsNFT reports whether the user holds the given token.
func (u *User) OwnsNFT(token string) bool {
	if u == nil {
		return false
	}
	for _, t := range u.NFTs {
		if t == token {
			return true
		}
	}
	return false
}
