// Package entity maps discovered DoHome devices to the switches and lights a
// host exposes.
//
// The category of a device decides what it provides:
//
//	_DT-PLUG            one switch, key soft_poweroff
//	_THIMR              one switch, key relay
//	_REALY2 / _REALY4   two or four switches relay1..relayN, named Relay_<sid>_<n>
//	_STRIPE / _DT-WYRGB one RGBWW light
//
// Switch state is read back with RefreshSwitches, which the host calls on
// its own schedule. Light state is optimistic.
package entity
