package gateway

// RelayMode names which relay fleet the client may use.
type RelayMode string

const (
	RelayModeManaged    RelayMode = "managed"
	RelayModeSelfHosted RelayMode = "self_hosted"
)

// RelayTransport names the ICE transport the client may request.
type RelayTransport string

const (
	RelayTransportSTUN RelayTransport = "stun"
	RelayTransportTURN RelayTransport = "turn"
)

// RelayStrategy picks the relay mode and transport for a resource reachable
// through the given sites. When routing policies are mixed, the client must
// honor the strictest one.
//
//	stun_only   -> managed fleet, STUN discovery only
//	self_hosted -> account relays, TURN
//	managed     -> managed fleet, TURN
func RelayStrategy(sites []*Site) (RelayMode, RelayTransport) {
	strictest := RoutingManaged
	for _, s := range sites {
		if s.Routing().Strictness() > strictest.Strictness() {
			strictest = s.Routing()
		}
	}

	switch strictest {
	case RoutingStunOnly:
		return RelayModeManaged, RelayTransportSTUN
	case RoutingSelfHosted:
		return RelayModeSelfHosted, RelayTransportTURN
	default:
		return RelayModeManaged, RelayTransportTURN
	}
}
