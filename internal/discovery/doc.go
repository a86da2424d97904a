// Package discovery finds DoHome devices with UDP broadcast.
//
// A discovery round sends "cmd=ping" to the broadcast address on port 6091
// and listens on the same port for a bounded window. Every device on the
// segment answers with an announcement; replies may arrive duplicated, out of
// order, or mixed with unrelated traffic (including the round's own probe).
//
// # Discovery Process
//
//  1. Bind the listen address and broadcast the probe
//  2. Read datagrams until the window expires; expiry ends the round normally
//  3. Drop datagrams shorter than 70 bytes and anything that is not a valid
//     announcement
//  4. Add each announced device to the Registry; report only new records
//
// # Usage Example
//
//	reg := discovery.NewRegistry()
//	scanner := discovery.NewScanner(reg, discovery.ResolveBroadcast(""))
//	found, err := scanner.Discover(ctx, discovery.DefaultRounds)
//	if err != nil {
//	    return err // socket fault; devices found before it are in reg
//	}
//	for category, devices := range found {
//	    fmt.Println(category, devices)
//	}
//
// # Registry Semantics
//
// Records are compared field by field. A device that reappears at a new
// address is stored as an additional record, so hosts may see it twice;
// Lookup returns the newest.
//
// # Network Requirements
//
// - UDP port 6091 must be free locally and open in the firewall
// - Devices must be on the same broadcast domain
//
// # Thread Safety
//
// Registry is safe for concurrent use. A Scanner serializes its own rounds.
package discovery
