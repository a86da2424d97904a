package bridge

import (
	"strings"

	"github.com/muurk/dohome/internal/entity"
)

// Topics builds the topic names used by the bridge
type Topics struct {
	Prefix          string
	DiscoveryPrefix string
}

// BridgeState is the availability topic carrying the last will
func (t Topics) BridgeState() string { return t.Prefix + "/bridge/state" }

// DiscoverTrigger is the topic that starts on-demand discovery
func (t Topics) DiscoverTrigger() string { return t.Prefix + "/bridge/discover" }

// DiscoveryStatus is the topic discovery status is published on
func (t Topics) DiscoveryStatus() string { return t.Prefix + "/bridge/discovery" }

// State is the state topic of the entity with the given unique id
func (t Topics) State(uniqueID string) string { return t.Prefix + "/" + uniqueID }

// Command is the command topic of the entity with the given unique id
func (t Topics) Command(uniqueID string) string { return t.State(uniqueID) + "/set" }

// CommandWildcard subscribes to every entity command topic
func (t Topics) CommandWildcard() string { return t.Prefix + "/+/set" }

// Config is the Home Assistant discovery topic of e
func (t Topics) Config(e entity.Entity) string {
	return t.DiscoveryPrefix + "/" + e.Kind().String() + "/" + e.UniqueID() + "/config"
}

// commandTarget returns the unique id a command topic addresses
func (t Topics) commandTarget(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Prefix+"/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/set")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
