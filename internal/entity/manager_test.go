package entity

import (
	"context"
	"testing"
	"time"

	"github.com/muurk/dohome/internal/control"
	"github.com/muurk/dohome/internal/devicesim"
	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/protocol"
)

func TestManager_Build(t *testing.T) {
	m := NewManager(nil, map[string]string{"DoHome_Plug_A1B2": "Coffee Machine"})

	tests := []struct {
		name      string
		dev       discovery.Device
		wantKind  Kind
		wantIDs   []string
		wantNames []string
	}{
		{
			name:      "plug with alias",
			dev:       discovery.Device{SID: "A1B2", Name: "DoHome_Plug_A1B2", Category: "_DT-PLUG"},
			wantKind:  KindSwitch,
			wantIDs:   []string{"dohome_A1B2"},
			wantNames: []string{"Coffee Machine"},
		},
		{
			name:      "timer relay",
			dev:       discovery.Device{SID: "0F0F", Name: "DoHome_Timer_0F0F", Category: "_THIMR"},
			wantKind:  KindSwitch,
			wantIDs:   []string{"dohome_0F0F"},
			wantNames: []string{"DoHome_Timer_0F0F"},
		},
		{
			name:      "two channel relay",
			dev:       discovery.Device{SID: "C3D4", Name: "DoHome_Relay_C3D4", Category: "_REALY2"},
			wantKind:  KindSwitch,
			wantIDs:   []string{"dohome_C3D4_relay1", "dohome_C3D4_relay2"},
			wantNames: []string{"Relay_C3D4_1", "Relay_C3D4_2"},
		},
		{
			name:     "four channel relay",
			dev:      discovery.Device{SID: "E5F6", Name: "DoHome_Relay_E5F6", Category: "_REALY4"},
			wantKind: KindSwitch,
			wantIDs: []string{
				"dohome_E5F6_relay1", "dohome_E5F6_relay2",
				"dohome_E5F6_relay3", "dohome_E5F6_relay4",
			},
			wantNames: []string{"Relay_E5F6_1", "Relay_E5F6_2", "Relay_E5F6_3", "Relay_E5F6_4"},
		},
		{
			name:      "strip",
			dev:       discovery.Device{SID: "5F6D", Name: "DoHome_RGB_5F6D", Category: "_STRIPE"},
			wantKind:  KindLight,
			wantIDs:   []string{"dohome_5F6D"},
			wantNames: []string{"DoHome_RGB_5F6D"},
		},
		{
			name:      "bulb",
			dev:       discovery.Device{SID: "7777", Name: "DoHome_Bulb_7777", Category: "_DT-WYRGB"},
			wantKind:  KindLight,
			wantIDs:   []string{"dohome_7777"},
			wantNames: []string{"DoHome_Bulb_7777"},
		},
		{
			name: "unknown category",
			dev:  discovery.Device{SID: "9999", Name: "Mystery_9999", Category: "_SENSOR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := m.Build(tt.dev)
			if len(entities) != len(tt.wantIDs) {
				t.Fatalf("len(Build()) = %d, want %d", len(entities), len(tt.wantIDs))
			}
			for i, e := range entities {
				if e.Kind() != tt.wantKind {
					t.Errorf("[%d] Kind() = %v, want %v", i, e.Kind(), tt.wantKind)
				}
				if e.UniqueID() != tt.wantIDs[i] {
					t.Errorf("[%d] UniqueID() = %q, want %q", i, e.UniqueID(), tt.wantIDs[i])
				}
				if e.Name() != tt.wantNames[i] {
					t.Errorf("[%d] Name() = %q, want %q", i, e.Name(), tt.wantNames[i])
				}
			}
		})
	}
}

func TestManager_RegisterSkipsKnownEntities(t *testing.T) {
	m := NewManager(nil, nil)
	plug := discovery.Device{SID: "A1B2", Name: "DoHome_Plug_A1B2", Address: "192.168.1.20", Category: "_DT-PLUG"}
	relay := discovery.Device{SID: "C3D4", Name: "DoHome_Relay_C3D4", Address: "192.168.1.21", Category: "_REALY2"}

	added := m.Register(discovery.Discovered{"_DT-PLUG": {plug}, "_REALY2": {relay}})
	if len(added) != 3 {
		t.Fatalf("len(Register()) = %d, want 3", len(added))
	}

	moved := plug
	moved.Address = "192.168.1.99"
	added = m.Register(discovery.Discovered{"_DT-PLUG": {moved}})
	if len(added) != 0 {
		t.Errorf("Register() of a moved device added %d entities, want 0", len(added))
	}

	e, ok := m.Get("dohome_A1B2")
	if !ok {
		t.Fatal("Get(dohome_A1B2) not found")
	}
	if got := e.Device().Address; got != "192.168.1.99" {
		t.Errorf("Device().Address = %q, want 192.168.1.99", got)
	}

	if len(m.All()) != 3 || len(m.Switches()) != 3 || len(m.Lights()) != 0 {
		t.Errorf("All/Switches/Lights = %d/%d/%d, want 3/3/0", len(m.All()), len(m.Switches()), len(m.Lights()))
	}
}

func startDevice(t *testing.T, opts devicesim.Options) (*devicesim.Device, *Manager, discovery.Device) {
	t.Helper()

	sim, err := devicesim.Start(opts)
	if err != nil {
		t.Fatalf("devicesim.Start() error = %v", err)
	}
	t.Cleanup(func() { _ = sim.Close() })

	client := &control.Client{Port: sim.Port(), Timeout: 500 * time.Millisecond}
	dev := discovery.Device{SID: sim.SID(), Name: sim.Name(), Address: "127.0.0.1", Category: sim.Category()}
	m := NewManager(client, nil)
	m.Register(discovery.Discovered{dev.Category: {dev}})
	return sim, m, dev
}

func TestSwitch_TurnOnOff(t *testing.T) {
	sim, m, _ := startDevice(t, devicesim.Options{Name: "DoHome_Timer_0F0F", Category: "_THIMR"})
	sw := m.Switches()[0]

	if err := sw.TurnOn(context.Background()); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}
	if !sw.IsOn() || sim.Binary(protocol.KeyRelay) != 1 {
		t.Errorf("after TurnOn IsOn() = %v, device relay = %d", sw.IsOn(), sim.Binary(protocol.KeyRelay))
	}

	if err := sw.TurnOff(context.Background()); err != nil {
		t.Fatalf("TurnOff() error = %v", err)
	}
	if sw.IsOn() || sim.Binary(protocol.KeyRelay) != 0 {
		t.Errorf("after TurnOff IsOn() = %v, device relay = %d", sw.IsOn(), sim.Binary(protocol.KeyRelay))
	}
}

func TestSwitch_Refresh(t *testing.T) {
	sim, m, _ := startDevice(t, devicesim.Options{})
	sw := m.Switches()[0]

	sim.SetBinary(protocol.KeySoftPowerOff, 1)
	changed, err := sw.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !changed || !sw.IsOn() {
		t.Errorf("Refresh() changed = %v, IsOn() = %v, want true, true", changed, sw.IsOn())
	}

	changed, err = sw.Refresh(context.Background())
	if err != nil {
		t.Fatalf("second Refresh() error = %v", err)
	}
	if changed {
		t.Error("second Refresh() reported a change")
	}
}

func TestManager_RefreshSwitchesQueriesOncePerDevice(t *testing.T) {
	sim, m, _ := startDevice(t, devicesim.Options{Name: "DoHome_Relay_E5F6", Category: "_REALY4"})
	sim.SetBinary(protocol.KeyRelay3, 1)

	changed := m.RefreshSwitches(context.Background())
	if len(changed) != 1 || changed[0].Key() != protocol.KeyRelay3 {
		t.Fatalf("RefreshSwitches() changed = %v, want only relay3", changed)
	}
	if n := len(sim.Requests()); n != 1 {
		t.Errorf("device received %d requests, want 1", n)
	}

	if changed := m.RefreshSwitches(context.Background()); len(changed) != 0 {
		t.Errorf("second RefreshSwitches() changed %d switches, want 0", len(changed))
	}
}

func TestManager_RefreshSwitchesToleratesSilentDevice(t *testing.T) {
	_, m, _ := startDevice(t, devicesim.Options{Silent: true})

	if changed := m.RefreshSwitches(context.Background()); len(changed) != 0 {
		t.Errorf("RefreshSwitches() changed %d switches, want 0", len(changed))
	}
	if m.Switches()[0].IsOn() {
		t.Error("silent device switch should keep its last state")
	}
}

func TestLight_TurnOnKeepsPreviousValues(t *testing.T) {
	sim, m, _ := startDevice(t, devicesim.Options{Name: "DoHome_RGB_5F6D", Category: "_STRIPE"})
	light := m.Lights()[0]

	if err := light.TurnOn(context.Background(), nil, nil); err != nil {
		t.Fatalf("TurnOn() error = %v", err)
	}
	if got := sim.Color()["r"]; got != 5000 {
		t.Errorf("default turn on r = %d, want 5000", got)
	}

	red := control.Color{R: 255}
	if err := light.TurnOn(context.Background(), &red, nil); err != nil {
		t.Fatalf("TurnOn(red) error = %v", err)
	}
	half := 128
	if err := light.TurnOn(context.Background(), nil, &half); err != nil {
		t.Fatalf("TurnOn(half) error = %v", err)
	}
	color := sim.Color()
	if color["r"] != 2500 || color["g"] != 0 {
		t.Errorf("r, g = %d, %d, want 2500, 0", color["r"], color["g"])
	}

	state := light.State()
	if !state.On || state.Color != red || state.Brightness != 128 {
		t.Errorf("State() = %+v, want on red at 128", state)
	}

	if err := light.TurnOff(context.Background()); err != nil {
		t.Fatalf("TurnOff() error = %v", err)
	}
	if light.State().On {
		t.Error("State().On after TurnOff")
	}
	if sim.Color()["r"] != 0 {
		t.Errorf("r after TurnOff = %d, want 0", sim.Color()["r"])
	}
	if light.State().Color != red {
		t.Error("TurnOff should keep the color for the next TurnOn")
	}
}
