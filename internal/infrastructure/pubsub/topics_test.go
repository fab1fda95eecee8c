package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicNames(t *testing.T) {
	assert.Equal(t, "accounts:3", AccountTopic(3))
	assert.Equal(t, "gateways:5", GatewayTopic(5))
	assert.Equal(t, "clients:8", ClientTopic(8))
	assert.Equal(t, "actor_clients:2", ActorClientsTopic(2))
	assert.Equal(t, "account_relays:4", AccountRelaysTopic(4))
	assert.Equal(t, "global_relays", GlobalRelaysTopic())
	assert.Equal(t, "sites:9", SiteGatewaysTopic(9))
}

func TestPresenceTopicDerivation(t *testing.T) {
	assert.Equal(t, "presences:sites:9", PresenceTopic(SiteGatewaysTopic(9)))
	assert.Equal(t, "presences:global_relays", PresenceTopic(GlobalRelaysTopic()))
}
