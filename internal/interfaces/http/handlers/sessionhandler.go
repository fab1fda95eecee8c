package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/cordon-zt/cordon/internal/domain/client"
	"github.com/cordon-zt/cordon/internal/domain/gateway"
	"github.com/cordon-zt/cordon/internal/domain/relay"
	"github.com/cordon-zt/cordon/internal/infrastructure/auth"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/infrastructure/sessions"
	"github.com/cordon-zt/cordon/internal/interfaces/http/middleware"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/id"
	"github.com/cordon-zt/cordon/internal/shared/logger"
	"github.com/cordon-zt/cordon/internal/shared/utils"
)

const (
	pongWait  = 60 * time.Second
	readLimit = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Sessions authenticate with bearer tokens, not cookies, so origin
		// checks add nothing here.
		return true
	},
}

// SessionHandler upgrades client, gateway, and relay connections into hub
// sessions. Registering tracks presence; the connection dropping untracks,
// which is what makes a leave automatic.
type SessionHandler struct {
	hub      *sessions.Hub
	bus      pubsub.Bus
	checker  authorization.Checker
	clients  client.Repository
	gateways gateway.Repository
	relays   relay.Repository
	hasher   *auth.CredentialHasher
	logger   logger.Interface
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	hub *sessions.Hub,
	bus pubsub.Bus,
	checker authorization.Checker,
	clients client.Repository,
	gateways gateway.Repository,
	relays relay.Repository,
	hasher *auth.CredentialHasher,
	log logger.Interface,
) *SessionHandler {
	return &SessionHandler{
		hub:      hub,
		bus:      bus,
		checker:  checker,
		clients:  clients,
		gateways: gateways,
		relays:   relays,
		hasher:   hasher,
		logger:   log,
	}
}

// ClientWS handles GET /v1/session/client
//
// The session subscribes the client's topic so grant and revocation events
// reach it wherever in the cluster they were published.
func (h *SessionHandler) ClientWS(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	clientSID := c.Query("client_id")
	if err := id.ValidatePrefix(clientSID, id.PrefixClient); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid client_id format, expected cli_xxxxx"))
		return
	}

	cl, err := h.clients.GetBySID(c.Request.Context(), clientSID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if cl == nil || cl.IsDeleted() || cl.AccountID() != subject.AccountID || cl.ActorID() != subject.ActorID {
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("client not found"))
		return
	}

	cl.Seen(c.ClientIP(), c.Request.UserAgent(), c.Query("version"))
	if err := h.clients.Update(c.Request.Context(), cl); err != nil {
		h.logger.Warnw("failed to record client sighting", "client_sid", clientSID, "error", err)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("failed to upgrade to websocket", "error", err, "client_sid", clientSID, "ip", c.ClientIP())
		return
	}

	session, err := h.hub.Register(
		c.Request.Context(),
		sessions.KindClient,
		pubsub.ActorClientsTopic(cl.ActorID()),
		cl.ID(), cl.SID(), cl.AccountID(),
		conn, nil,
	)
	if err != nil {
		h.logger.Errorw("failed to register client session", "client_sid", clientSID, "error", err)
		_ = conn.Close()
		return
	}

	unsubscribe, err := h.subscribeEntity(pubsub.ClientTopic(cl.ID()), sessions.KindClient, cl.ID())
	if err != nil {
		h.logger.Errorw("failed to subscribe client topic", "client_sid", clientSID, "error", err)
		h.hub.Unregister(session)
		return
	}
	defer unsubscribe()

	h.readPump(session)
}

// GatewayWS handles GET /v1/session/gateway
//
// The presence entry goes on the gateway's site topic; that is what flow
// authorization consults when it filters candidate gateways to online ones.
func (h *SessionHandler) GatewayWS(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.checker.EnsureHasPermission(subject, authorization.PermissionConnectGateway); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	gatewaySID := c.Query("gateway_id")
	if err := id.ValidatePrefix(gatewaySID, id.PrefixGateway); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid gateway_id format, expected gw_xxxxx"))
		return
	}

	gw, err := h.gateways.GetBySID(c.Request.Context(), gatewaySID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if gw == nil || gw.IsDeleted() || gw.AccountID() != subject.AccountID {
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("gateway not found"))
		return
	}

	gw.Seen(c.Query("version"), c.ClientIP(), parseLocation(c))
	if err := h.gateways.Update(c.Request.Context(), gw); err != nil {
		h.logger.Warnw("failed to record gateway sighting", "gateway_sid", gatewaySID, "error", err)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("failed to upgrade to websocket", "error", err, "gateway_sid", gatewaySID, "ip", c.ClientIP())
		return
	}

	session, err := h.hub.Register(
		c.Request.Context(),
		sessions.KindGateway,
		pubsub.SiteGatewaysTopic(gw.SiteID()),
		gw.ID(), gw.SID(), gw.AccountID(),
		conn, nil,
	)
	if err != nil {
		h.logger.Errorw("failed to register gateway session", "gateway_sid", gatewaySID, "error", err)
		_ = conn.Close()
		return
	}

	unsubscribe, err := h.subscribeEntity(pubsub.GatewayTopic(gw.ID()), sessions.KindGateway, gw.ID())
	if err != nil {
		h.logger.Errorw("failed to subscribe gateway topic", "gateway_sid", gatewaySID, "error", err)
		h.hub.Unregister(session)
		return
	}
	defer unsubscribe()

	h.readPump(session)
}

// RelayWS handles GET /v1/session/relay
//
// Relay presence carries the credential fingerprint so a leave can be
// debounced while a rejoin under a changed secret cuts over immediately.
func (h *SessionHandler) RelayWS(c *gin.Context) {
	subject, ok := middleware.SubjectFrom(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.checker.EnsureHasPermission(subject, authorization.PermissionConnectRelay); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	relaySID := c.Query("relay_id")
	if err := id.ValidatePrefix(relaySID, id.PrefixRelay); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid relay_id format, expected rly_xxxxx"))
		return
	}

	rl, err := h.relays.GetBySID(c.Request.Context(), relaySID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if rl == nil || rl.IsDeleted() || (!rl.IsGlobal() && *rl.AccountID() != subject.AccountID) {
		utils.ErrorResponseWithError(c, errors.NewNotFoundError("relay not found"))
		return
	}

	// The stamp secret is the credential peers pin; a session without the
	// current one must not become present, or gateways would hand clients a
	// relay they cannot authenticate against.
	stampSecret := c.Query("stamp_secret")
	if rl.StampSecretHash() == "" || h.hasher.Verify(stampSecret, rl.StampSecretHash()) != nil {
		h.logger.Warnw("relay presented a stale stamp secret", "relay_sid", relaySID, "ip", c.ClientIP())
		utils.ErrorResponse(c, http.StatusUnauthorized, "invalid stamp secret")
		return
	}

	topic := pubsub.GlobalRelaysTopic()
	accountID := subject.AccountID
	if !rl.IsGlobal() {
		topic = pubsub.AccountRelaysTopic(*rl.AccountID())
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("failed to upgrade to websocket", "error", err, "relay_sid", relaySID, "ip", c.ClientIP())
		return
	}

	// The fingerprint is derived from the secret, never the secret itself;
	// it only needs to change exactly when the secret does.
	digest := sha256.Sum256([]byte(stampSecret))
	payload := map[string]string{"fingerprint": hex.EncodeToString(digest[:8])}
	session, err := h.hub.Register(
		c.Request.Context(),
		sessions.KindRelay,
		topic,
		rl.ID(), rl.SID(), accountID,
		conn, payload,
	)
	if err != nil {
		h.logger.Errorw("failed to register relay session", "relay_sid", relaySID, "error", err)
		_ = conn.Close()
		return
	}

	h.readPump(session)
}

// subscribeEntity forwards the entity's bus topic into its local session.
// A disconnect message force-closes instead of forwarding.
func (h *SessionHandler) subscribeEntity(topic string, kind sessions.Kind, entityID uint) (func(), error) {
	return h.bus.Subscribe(topic, func(_ string, msg pubsub.Message) {
		if msg.Kind == pubsub.KindDisconnect {
			h.hub.Disconnect(kind, entityID)
			return
		}
		if err := h.hub.SendTo(kind, entityID, msg); err != nil {
			h.logger.Debugw("dropping message for absent session",
				"kind", kind,
				"entity_id", entityID,
				"message_kind", msg.Kind,
				"error", err,
			)
		}
	})
}

// readPump holds the connection open until the peer goes away. Inbound
// frames are heartbeats only; state flows server to entity.
func (h *SessionHandler) readPump(session *sessions.Session) {
	defer h.hub.Unregister(session)

	conn := session.Conn
	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Warnw("session read error",
					"kind", session.Kind,
					"entity_sid", session.EntitySID,
					"error", err,
				)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func parseLocation(c *gin.Context) *gateway.Location {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil
	}
	return &gateway.Location{Lat: lat, Lon: lon}
}
