// Package bridge publishes DoHome entities to an MQTT broker using Home
// Assistant MQTT discovery, and turns command topics back into device
// exchanges.
//
// Topics, with the default prefixes:
//
//	homeassistant/switch/<unique_id>/config   retained discovery config
//	homeassistant/light/<unique_id>/config    retained discovery config
//	dohome/<unique_id>                         retained JSON state
//	dohome/<unique_id>/set                     JSON commands
//	dohome/bridge/state                        online/offline (last will)
//	dohome/bridge/discover                     on-demand discovery trigger
//	dohome/bridge/discovery                    discovery status: idle, active, error
package bridge
