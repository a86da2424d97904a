package discovery

import (
	"sort"
	"sync"
)

// Discovered groups devices by category, each list in first-seen order
type Discovered map[string][]Device

// Len returns the total number of devices across all categories
func (d Discovered) Len() int {
	n := 0
	for _, devices := range d {
		n += len(devices)
	}
	return n
}

// All returns every device, categories in sorted order
func (d Discovered) All() []Device {
	categories := make([]string, 0, len(d))
	for category := range d {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	out := make([]Device, 0, d.Len())
	for _, category := range categories {
		out = append(out, d[category]...)
	}
	return out
}

// Merge appends every device of other to d
func (d Discovered) Merge(other Discovered) {
	for category, devices := range other {
		d[category] = append(d[category], devices...)
	}
}

// Registry holds every device seen during the process lifetime. Records are
// deduplicated by exact equality: a device that changes address is kept as a
// second record alongside the first.
type Registry struct {
	mu         sync.RWMutex
	devices    map[string][]Device
	categories []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string][]Device),
	}
}

// Add records d under its category. It returns false if an identical record
// is already present.
func (r *Registry) Add(d Device) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, seen := r.devices[d.Category]
	for _, e := range existing {
		if e == d {
			return false
		}
	}
	if !seen {
		r.categories = append(r.categories, d.Category)
	}
	r.devices[d.Category] = append(existing, d)
	return true
}

// Snapshot returns a copy of the registry contents
func (r *Registry) Snapshot() Discovered {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Discovered, len(r.devices))
	for category, devices := range r.devices {
		out[category] = append([]Device(nil), devices...)
	}
	return out
}

// Devices returns a copy of the records for one category
func (r *Registry) Devices(category string) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Device(nil), r.devices[category]...)
}

// All returns every record, grouped by category in first-seen order
func (r *Registry) All() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Device
	for _, category := range r.categories {
		out = append(out, r.devices[category]...)
	}
	return out
}

// Lookup returns the last record with the given short id. When a device has
// been seen at several addresses, its newest address wins.
func (r *Registry) Lookup(sid string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found Device
		ok    bool
	)
	for _, category := range r.categories {
		for _, d := range r.devices[category] {
			if d.SID == sid {
				found, ok = d, true
			}
		}
	}
	return found, ok
}

// Len returns the number of records
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, devices := range r.devices {
		n += len(devices)
	}
	return n
}
