// Package pubsub provides the cluster-wide topic bus. Delivery is
// at-most-once and best-effort: subscribers treat every message as an
// advisory notification and re-derive state on their own transport events.
// Do not build anything on this bus that cannot tolerate a dropped message.
package pubsub

// Kind tags a bus message payload.
type Kind string

const (
	KindAllowAccess      Kind = "allow_access"
	KindRejectAccess     Kind = "reject_access"
	KindExpireFlow       Kind = "expire_flow"
	KindCreateMembership Kind = "create_membership"
	KindDeleteMembership Kind = "delete_membership"
	KindDisconnect       Kind = "disconnect"
	KindPresenceJoin     Kind = "presence_join"
	KindPresenceLeave    Kind = "presence_leave"
)

// Message is the tagged tuple carried on a topic. Only the fields relevant
// to the kind are set.
type Message struct {
	Kind Kind `json:"kind"`

	ActorID    uint `json:"actor_id,omitempty"`
	GroupID    uint `json:"group_id,omitempty"`
	PolicyID   uint `json:"policy_id,omitempty"`
	ResourceID uint `json:"resource_id,omitempty"`
	FlowID     uint `json:"flow_id,omitempty"`
	ClientID   uint `json:"client_id,omitempty"`
	GatewayID  uint `json:"gateway_id,omitempty"`

	// Key and NodeID carry presence diffs between cluster nodes.
	Key    string `json:"key,omitempty"`
	NodeID string `json:"node_id,omitempty"`
}

// Handler consumes one message. Handlers must not block; slow work belongs
// in the handler's own goroutine.
type Handler func(topic string, msg Message)
