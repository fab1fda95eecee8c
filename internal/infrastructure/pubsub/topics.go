package pubsub

import "fmt"

// Topic naming is a string convention stable across the cluster. Every node
// must derive identical topic names for the same entity.

func AccountTopic(accountID uint) string {
	return fmt.Sprintf("accounts:%d", accountID)
}

func AccountClientsTopic(accountID uint) string {
	return fmt.Sprintf("account_clients:%d", accountID)
}

func AccountGatewaysTopic(accountID uint) string {
	return fmt.Sprintf("account_gateways:%d", accountID)
}

func GroupGatewaysTopic(groupID uint) string {
	return fmt.Sprintf("group_gateways:%d", groupID)
}

func AccountRelaysTopic(accountID uint) string {
	return fmt.Sprintf("account_relays:%d", accountID)
}

// GlobalRelaysTopic tracks the managed relay fleet shared by all accounts.
func GlobalRelaysTopic() string {
	return "global_relays"
}

func ActorClientsTopic(actorID uint) string {
	return fmt.Sprintf("actor_clients:%d", actorID)
}

func FlowTopic(flowID uint) string {
	return fmt.Sprintf("flows:%d", flowID)
}

func GatewayTopic(gatewayID uint) string {
	return fmt.Sprintf("gateways:%d", gatewayID)
}

func ClientTopic(clientID uint) string {
	return fmt.Sprintf("clients:%d", clientID)
}

// PresenceTopic derives the change-notification topic for a presence topic.
func PresenceTopic(topic string) string {
	return "presences:" + topic
}

// SiteGatewaysTopic tracks gateway connections belonging to one site.
// Presence changes announce on PresenceTopic of this, "presences:sites:{id}".
func SiteGatewaysTopic(siteID uint) string {
	return fmt.Sprintf("sites:%d", siteID)
}
