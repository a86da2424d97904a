package discovery

import (
	"sync"
	"testing"
)

func TestRegistryAddDeduplicates(t *testing.T) {
	reg := NewRegistry()
	plug := Device{SID: "5F6D", Name: "Plug_5F6D", Address: "192.168.1.20", Category: "_DT-PLUG"}

	if !reg.Add(plug) {
		t.Fatal("first Add() = false, want true")
	}
	if reg.Add(plug) {
		t.Error("duplicate Add() = true, want false")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestRegistryKeepsNewAddressAsSecondRecord(t *testing.T) {
	reg := NewRegistry()
	first := Device{SID: "5F6D", Name: "Plug_5F6D", Address: "192.168.1.20", Category: "_DT-PLUG"}
	moved := first
	moved.Address = "192.168.1.44"

	reg.Add(first)
	if !reg.Add(moved) {
		t.Fatal("Add() of a moved device = false, want true")
	}

	devices := reg.Devices("_DT-PLUG")
	if len(devices) != 2 {
		t.Fatalf("len(Devices) = %d, want 2", len(devices))
	}
	if devices[0] != first || devices[1] != moved {
		t.Errorf("Devices() = %v, want first-seen order", devices)
	}

	got, ok := reg.Lookup("5F6D")
	if !ok || got.Address != "192.168.1.44" {
		t.Errorf("Lookup() = %+v, %v, want newest address", got, ok)
	}
}

func TestRegistryOrdering(t *testing.T) {
	reg := NewRegistry()
	reg.Add(Device{SID: "0001", Category: "_STRIPE"})
	reg.Add(Device{SID: "0002", Category: "_DT-PLUG"})
	reg.Add(Device{SID: "0003", Category: "_STRIPE"})

	// Categories in first-seen order, records in first-seen order within each
	all := reg.All()
	want := []string{"0001", "0003", "0002"}
	if len(all) != len(want) {
		t.Fatalf("len(All()) = %d, want %d", len(all), len(want))
	}
	for i, d := range all {
		if d.SID != want[i] {
			t.Errorf("All()[%d].SID = %q, want %q", i, d.SID, want[i])
		}
	}
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	reg := NewRegistry()
	reg.Add(Device{SID: "0001", Category: "_STRIPE"})

	snap := reg.Snapshot()
	snap["_STRIPE"][0].SID = "XXXX"
	snap["_NEW"] = []Device{{SID: "0009"}}

	if got := reg.Devices("_STRIPE")[0].SID; got != "0001" {
		t.Errorf("registry record mutated through snapshot: SID = %q", got)
	}
	if len(reg.Devices("_NEW")) != 0 {
		t.Error("registry gained a category through snapshot")
	}
}

func TestRegistryConcurrentAdd(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Add(Device{SID: "5F6D", Name: "Plug_5F6D", Address: "10.0.0.1", Category: "_DT-PLUG"})
			_ = reg.Snapshot()
		}()
	}
	wg.Wait()

	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
}

func TestDiscoveredMerge(t *testing.T) {
	a := Discovered{"_STRIPE": {{SID: "0001"}}}
	a.Merge(Discovered{"_STRIPE": {{SID: "0002"}}, "_THIMR": {{SID: "0003"}}})

	if a.Len() != 3 {
		t.Errorf("Len() = %d, want 3", a.Len())
	}
	if len(a["_STRIPE"]) != 2 {
		t.Errorf("len(_STRIPE) = %d, want 2", len(a["_STRIPE"]))
	}
}

func TestDiscoveredAll(t *testing.T) {
	d := Discovered{
		"_THIMR":  {{SID: "0003"}},
		"_STRIPE": {{SID: "0001"}, {SID: "0002"}},
	}

	all := d.All()
	want := []string{"0001", "0002", "0003"}
	if len(all) != len(want) {
		t.Fatalf("len(All()) = %d, want %d", len(all), len(want))
	}
	for i := range want {
		if all[i].SID != want[i] {
			t.Errorf("All()[%d].SID = %q, want %q", i, all[i].SID, want[i])
		}
	}
}
