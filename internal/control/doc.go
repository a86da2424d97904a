// Package control sends commands to DoHome devices and validates their replies.
//
// Every command is one UDP exchange on a fresh socket: send
// "cmd=ctrl&devices=[<sid>]&op=<json>" and read a single reply before the
// timeout. The reply must name the addressed device and echo the expected op
// code; anything else is reported as a typed protocol error. Nothing is
// retried here; callers that poll simply try again on their next tick.
//
// # Commands
//
//   - QueryStatus: op 25, reply 25
//   - SetBinary:   op 5, reply 5 (relay, relay1-relay4, soft_poweroff)
//   - SetColor:    op 6, reply 6 (r, g, b, w, m)
//   - TurnOff:     op 6 with every channel 0
//
// # Color Scaling
//
// Host brightness (0-255) becomes device units with trunc(100*b/255); each
// channel is sent as round(50*channel/255*units). Full white at full
// brightness is therefore 5000 on every channel.
package control
