package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/muurk/dohome/internal/config"
	"github.com/muurk/dohome/internal/devicesim"
	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/entity"
	"github.com/muurk/dohome/internal/protocol"
)

type recordingNotifier struct {
	mu       sync.Mutex
	added    []string
	changed  []string
	statuses []discovery.State
}

func (r *recordingNotifier) EntitiesAdded(es []entity.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range es {
		r.added = append(r.added, e.UniqueID())
	}
}

func (r *recordingNotifier) StateChanged(e entity.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, e.UniqueID())
}

func (r *recordingNotifier) DiscoveryStatus(s discovery.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func newTestApp(t *testing.T, opts devicesim.Options) (*App, *devicesim.Device, *recordingNotifier) {
	t.Helper()

	sim, err := devicesim.Start(opts)
	if err != nil {
		t.Fatalf("devicesim.Start() error = %v", err)
	}
	t.Cleanup(func() { _ = sim.Close() })

	cfg := config.Default()
	cfg.Discovery.Window = 200 * time.Millisecond
	cfg.Control.PollInterval = 50 * time.Millisecond
	cfg.HTTP.Listen = ""

	a := New(cfg)
	a.Scanner.ListenAddr = "127.0.0.1:0"
	a.Scanner.Target = sim.Addr().String()
	a.Client.Port = sim.Port()

	rec := &recordingNotifier{}
	a.AddNotifier(rec)
	return a, sim, rec
}

func TestDiscoverRegistersEntities(t *testing.T) {
	a, _, rec := newTestApp(t, devicesim.Options{Name: "DoHome_Relay_C3D4", Category: "_REALY2"})

	added, err := a.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("len(Discover()) = %d, want 2", len(added))
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.added) != 2 || rec.added[0] != "dohome_C3D4_relay1" {
		t.Errorf("notified added = %v", rec.added)
	}
	// two rounds, each listening then idle
	want := []discovery.State{discovery.StateListening, discovery.StateIdle, discovery.StateListening, discovery.StateIdle}
	if len(rec.statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", rec.statuses, want)
	}
	for i := range want {
		if rec.statuses[i] != want[i] {
			t.Errorf("statuses[%d] = %v, want %v", i, rec.statuses[i], want[i])
		}
	}
}

func TestDiscoverForOnlyReportsNewEntities(t *testing.T) {
	a, _, rec := newTestApp(t, devicesim.Options{})

	if _, err := a.Discover(context.Background()); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	added, err := a.DiscoverFor(context.Background(), time.Millisecond)
	if err != nil {
		t.Fatalf("DiscoverFor() error = %v", err)
	}
	if len(added) != 0 {
		t.Errorf("on-demand discovery added %d entities, want 0", len(added))
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.added) != 1 {
		t.Errorf("notified added = %v, want one entity", rec.added)
	}
}

func TestPollOnceNotifiesChanges(t *testing.T) {
	a, sim, rec := newTestApp(t, devicesim.Options{Name: "DoHome_Timer_0F0F", Category: "_THIMR"})

	if _, err := a.Discover(context.Background()); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	a.PollOnce(context.Background())
	sim.SetBinary(protocol.KeyRelay, 1)
	a.PollOnce(context.Background())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.changed) != 1 || rec.changed[0] != "dohome_0F0F" {
		t.Errorf("changed = %v, want [dohome_0F0F]", rec.changed)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a, sim, rec := newTestApp(t, devicesim.Options{})
	a.cfg.HTTP.Listen = "127.0.0.1:0"
	a.cfg.HTTP.Advertise = false

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for len(a.Entities.All()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Run() never registered the simulated device")
		}
		time.Sleep(20 * time.Millisecond)
	}
	sim.SetBinary(protocol.KeySoftPowerOff, 1)

	for {
		rec.mu.Lock()
		n := len(rec.changed)
		rec.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("poller never reported the switch change")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
