package events

import "time"

// DomainEvent is the base interface for events published by the
// navigation subsystem. Events represent something that has happened.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
}

// SourceNavigation is the event source label used on the bus.
const SourceNavigation = "wayfinder.navigation"

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }

// TransitionRouted is raised when a routing call picked a next node.
type TransitionRouted struct {
	BaseEvent
	UserID       string `json:"user_id"`
	WorkspaceID  string `json:"workspace_id"`
	FromNodeID   string `json:"from_node_id"`
	ToNodeID     string `json:"to_node_id"`
	Policy       string `json:"policy"`
	FallbackUsed bool   `json:"fallback_used"`
}

// NewTransitionRouted creates a TransitionRouted event.
func NewTransitionRouted(userID, workspaceID, fromID, toID, policy string, fallbackUsed bool, at time.Time) TransitionRouted {
	return TransitionRouted{
		BaseEvent: BaseEvent{
			AggregateID: fromID,
			EventType:   "transition.routed",
			Timestamp:   at,
		},
		UserID:       userID,
		WorkspaceID:  workspaceID,
		FromNodeID:   fromID,
		ToNodeID:     toID,
		Policy:       policy,
		FallbackUsed: fallbackUsed,
	}
}

// TransitionNoRoute is raised when a routing call terminated without a
// node, carrying the reason so operators can tell empty graphs from
// budget pressure.
type TransitionNoRoute struct {
	BaseEvent
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	FromNodeID  string `json:"from_node_id"`
	Reason      string `json:"reason"`
}

// NewTransitionNoRoute creates a TransitionNoRoute event.
func NewTransitionNoRoute(userID, workspaceID, fromID, reason string, at time.Time) TransitionNoRoute {
	return TransitionNoRoute{
		BaseEvent: BaseEvent{
			AggregateID: fromID,
			EventType:   "transition.no_route",
			Timestamp:   at,
		},
		UserID:      userID,
		WorkspaceID: workspaceID,
		FromNodeID:  fromID,
		Reason:      reason,
	}
}
