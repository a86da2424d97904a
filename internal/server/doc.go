// Package server implements the local HTTP API of the DoHome daemon.
//
// Endpoints:
//
//	GET  /api/devices               discovered device records grouped by category
//	GET  /api/entities              entities with their current state
//	POST /api/entities/{id}         run a command ({"state":"ON"}, ...)
//	POST /api/discover?duration=N   run one on-demand discovery window (1-60s)
//	GET  /api/events                WebSocket stream of entity and discovery events
//	GET  /api/version               build version
//
// When advertising is enabled the API is announced over mDNS as a
// _dohome._tcp service so other hosts on the LAN can find it.
//
// # Events
//
// Every WebSocket message is a JSON object:
//
//	{"type":"event","event_type":"entity.state","timestamp":"...","payload":{...}}
//
// Event types are entity.added, entity.state and discovery.status. Clients
// only receive; anything they send is discarded.
//
// # Graceful Shutdown
//
// Shutdown withdraws the mDNS record, closes WebSocket clients and waits for
// in-flight requests to finish.
package server
