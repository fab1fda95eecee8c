// Package sessions manages the long-lived websocket connections of clients,
// gateways, and relays. Registering a connection tracks presence; closing it
// untracks, which is what makes leave automatic on disconnect.
package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cordon-zt/cordon/internal/infrastructure/presence"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/goroutine"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// Kind names a connection's entity class.
type Kind string

const (
	KindClient  Kind = "client"
	KindGateway Kind = "gateway"
	KindRelay   Kind = "relay"
)

var (
	ErrNotConnected    = fmt.Errorf("entity is not connected")
	ErrSendChannelFull = fmt.Errorf("session send channel is full")
)

const (
	sendBuffer = 256

	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Session is one live websocket connection.
type Session struct {
	Kind        Kind
	EntityID    uint
	EntitySID   string
	AccountID   uint
	Conn        *websocket.Conn
	Send        chan pubsub.Message
	SessionID   string
	ConnectedAt time.Time

	// Fingerprint identifies the session's credentials for relay leave
	// debouncing; a rejoin with a different fingerprint cuts over hard.
	Fingerprint string

	untrack func()
	closed  bool
}

// Hub indexes live sessions by kind and entity ID on this node. Cluster-wide
// visibility comes from the presence registry, not the hub.
type Hub struct {
	mu       sync.RWMutex
	sessions map[Kind]map[uint]*Session

	registry      presence.Registry
	relayDebounce *presence.RelayDebouncer
	bus           pubsub.Bus
	logger        logger.Interface
}

// NewHub creates a session hub.
func NewHub(registry presence.Registry, relayDebounce *presence.RelayDebouncer, bus pubsub.Bus, log logger.Interface) *Hub {
	return &Hub{
		sessions: map[Kind]map[uint]*Session{
			KindClient:  make(map[uint]*Session),
			KindGateway: make(map[uint]*Session),
			KindRelay:   make(map[uint]*Session),
		},
		registry:      registry,
		relayDebounce: relayDebounce,
		bus:           bus,
		logger:        log.Named("sessions"),
	}
}

// Register tracks a new connection. A second connection for the same entity
// replaces the first: the old socket is closed and its presence entry is
// released before the new one is tracked.
//
// topic is the presence topic the session is visible on; payload rides along
// in the presence meta (relay sessions put their credential fingerprint
// here).
func (h *Hub) Register(ctx context.Context, kind Kind, topic string, entityID uint, entitySID string, accountID uint, conn *websocket.Conn, payload map[string]string) (*Session, error) {
	session := &Session{
		Kind:        kind,
		EntityID:    entityID,
		EntitySID:   entitySID,
		AccountID:   accountID,
		Conn:        conn,
		Send:        make(chan pubsub.Message, sendBuffer),
		SessionID:   uuid.NewString(),
		ConnectedAt: time.Now().UTC(),
		Fingerprint: payload["fingerprint"],
	}

	h.mu.Lock()
	displaced := h.sessions[kind][entityID]
	if displaced != nil {
		h.closeLocked(displaced)
	}
	h.sessions[kind][entityID] = session
	h.mu.Unlock()

	// The displaced session is no longer current, so its reader's Unregister
	// is a no-op; its presence entry must be released here.
	if displaced != nil && displaced.untrack != nil {
		displaced.untrack()
	}

	if kind == KindRelay && h.relayDebounce != nil {
		// Join runs before Track so a held leave with a changed fingerprint
		// fires ahead of the new join announcement. A silent rejoin takes
		// over the held session ID; Track then replaces that entry without
		// announcing a second join.
		if heldID, announce := h.relayDebounce.Join(entitySID, session.Fingerprint); !announce {
			session.SessionID = heldID
		}
	}

	untrack, err := h.registry.Track(ctx, topic, presence.Meta{
		Key:       entitySID,
		SessionID: session.SessionID,
		JoinedAt:  session.ConnectedAt,
		Payload:   payload,
	})
	if err != nil {
		h.mu.Lock()
		if h.sessions[kind][entityID] == session {
			delete(h.sessions[kind], entityID)
		}
		h.mu.Unlock()
		return nil, fmt.Errorf("failed to track session presence: %w", err)
	}
	session.untrack = untrack

	h.logger.Infow("session registered",
		"kind", kind,
		"entity_sid", entitySID,
		"session_id", session.SessionID,
	)

	goroutine.SafeGo(h.logger, "session-writer-"+session.SessionID, func() {
		h.writeLoop(session)
	})

	return session, nil
}

// Unregister releases the session. Relay leaves are debounced; every other
// kind untracks immediately.
func (h *Hub) Unregister(session *Session) {
	h.mu.Lock()
	if current, ok := h.sessions[session.Kind][session.EntityID]; !ok || current != session {
		h.mu.Unlock()
		return
	}
	delete(h.sessions[session.Kind], session.EntityID)
	h.closeLocked(session)
	h.mu.Unlock()

	if session.Kind == KindRelay && h.relayDebounce != nil && session.untrack != nil {
		h.relayDebounce.Leave(session.EntitySID, session.Fingerprint, session.SessionID, session.untrack)
	} else if session.untrack != nil {
		session.untrack()
	}

	h.logger.Infow("session unregistered",
		"kind", session.Kind,
		"entity_sid", session.EntitySID,
		"session_id", session.SessionID,
	)
}

// SendTo queues a message on the entity's session, if connected locally.
func (h *Hub) SendTo(kind Kind, entityID uint, msg pubsub.Message) error {
	h.mu.RLock()
	session, ok := h.sessions[kind][entityID]
	h.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}

	select {
	case session.Send <- msg:
		return nil
	default:
		return ErrSendChannelFull
	}
}

// Disconnect force-closes the entity's session, typically after the backing
// token was revoked.
func (h *Hub) Disconnect(kind Kind, entityID uint) {
	h.mu.RLock()
	session, ok := h.sessions[kind][entityID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.Unregister(session)
}

// IsConnected reports whether the entity has a session on this node.
func (h *Hub) IsConnected(kind Kind, entityID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.sessions[kind][entityID]
	return ok
}

// writeLoop is the session's only writer; pings share it so control frames
// never race payload frames.
func (h *Hub) writeLoop(session *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-session.Send:
			if !ok {
				return
			}
			_ = session.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := session.Conn.WriteJSON(msg); err != nil {
				h.logger.Warnw("failed to write to session, dropping connection",
					"kind", session.Kind,
					"entity_sid", session.EntitySID,
					"error", err,
				)
				h.Unregister(session)
				return
			}
		case <-ticker.C:
			_ = session.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := session.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.Unregister(session)
				return
			}
		}
	}
}

// closeLocked closes the socket and send channel. Callers hold h.mu.
func (h *Hub) closeLocked(session *Session) {
	if session.closed {
		return
	}
	session.closed = true
	close(session.Send)
	_ = session.Conn.Close()
}
