// Package app assembles the DoHome daemon: discovery, entities, status
// polling, and the optional MQTT bridge and HTTP API that expose them.
package app
