package entity

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/dohome/internal/control"
	"github.com/muurk/dohome/internal/discovery"
	"github.com/muurk/dohome/internal/logging"
)

// UniqueIDPrefix starts every entity unique id
const UniqueIDPrefix = "dohome_"

// Manager turns discovered devices into entities and tracks them by unique id
type Manager struct {
	client  *control.Client
	aliases map[string]string

	mu       sync.RWMutex
	entities []Entity
	byID     map[string]Entity
}

// NewManager creates a manager that commands devices through client.
// aliases maps device or relay names to display names.
func NewManager(client *control.Client, aliases map[string]string) *Manager {
	if client == nil {
		client = control.NewClient()
	}
	return &Manager{
		client:  client,
		aliases: aliases,
		byID:    make(map[string]Entity),
	}
}

// Build returns the entities a device provides, without registering them
func (m *Manager) Build(dev discovery.Device) []Entity {
	capability, ok := Lookup(dev.Category)
	if !ok {
		return nil
	}

	switch capability.Kind {
	case KindLight:
		return []Entity{&Light{
			client: m.client,
			dev:    dev,
			name:   m.alias(dev.Name),
			id:     UniqueIDPrefix + dev.SID,
			state:  LightState{Color: control.White, Brightness: control.MaxBrightness},
		}}

	case KindSwitch:
		out := make([]Entity, 0, len(capability.Keys))
		for i, key := range capability.Keys {
			name := dev.Name
			id := UniqueIDPrefix + dev.SID
			if capability.Numbered {
				name = fmt.Sprintf("Relay_%s_%d", dev.SID, i+1)
				id = fmt.Sprintf("%s%s_%s", UniqueIDPrefix, dev.SID, key)
			}
			out = append(out, &Switch{
				client: m.client,
				dev:    dev,
				key:    key,
				name:   m.alias(name),
				id:     id,
			})
		}
		return out
	}
	return nil
}

func (m *Manager) alias(name string) string {
	if alias, ok := m.aliases[name]; ok && alias != "" {
		return alias
	}
	return name
}

// Register builds entities for newly discovered devices and returns the ones
// that did not exist yet. A device seen again at a new address does not get a
// second entity; its existing entities are pointed at the new address.
func (m *Manager) Register(found discovery.Discovered) []Entity {
	categories := make([]string, 0, len(found))
	for category := range found {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	m.mu.Lock()
	defer m.mu.Unlock()

	var added []Entity
	for _, category := range categories {
		for _, dev := range found[category] {
			for _, e := range m.Build(dev) {
				if existing, ok := m.byID[e.UniqueID()]; ok {
					retarget(existing, dev)
					continue
				}
				m.byID[e.UniqueID()] = e
				m.entities = append(m.entities, e)
				added = append(added, e)

				logging.Info("Entity registered",
					zap.String("unique_id", e.UniqueID()),
					zap.String("name", e.Name()),
					zap.Stringer("kind", e.Kind()),
				)
			}
		}
	}
	return added
}

func retarget(e Entity, dev discovery.Device) {
	if e.Device() == dev {
		return
	}
	logging.Info("Entity moved to new address",
		zap.String("unique_id", e.UniqueID()),
		zap.String("address", dev.Address),
	)
	switch v := e.(type) {
	case *Switch:
		v.retarget(dev)
	case *Light:
		v.retarget(dev)
	}
}

// Get returns the entity with the given unique id
func (m *Manager) Get(id string) (Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byID[id]
	return e, ok
}

// All returns every registered entity in registration order
func (m *Manager) All() []Entity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Entity(nil), m.entities...)
}

// Switches returns every registered switch
func (m *Manager) Switches() []*Switch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Switch
	for _, e := range m.entities {
		if s, ok := e.(*Switch); ok {
			out = append(out, s)
		}
	}
	return out
}

// Lights returns every registered light
func (m *Manager) Lights() []*Light {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Light
	for _, e := range m.entities {
		if l, ok := e.(*Light); ok {
			out = append(out, l)
		}
	}
	return out
}

// RefreshSwitches polls every device that has switches, once per device, and
// returns the switches whose state changed. Devices that fail to answer keep
// their last known state until the next call.
func (m *Manager) RefreshSwitches(ctx context.Context) []*Switch {
	groups := make(map[discovery.Device][]*Switch)
	var order []discovery.Device
	for _, s := range m.Switches() {
		dev := s.Device()
		if _, ok := groups[dev]; !ok {
			order = append(order, dev)
		}
		groups[dev] = append(groups[dev], s)
	}

	var changed []*Switch
	for _, dev := range order {
		if ctx.Err() != nil {
			break
		}
		op, err := m.client.QueryStatus(ctx, dev)
		if err != nil {
			logging.Debug("Status poll failed",
				zap.String("sid", dev.SID),
				zap.String("address", dev.Address),
				zap.Error(err),
			)
			continue
		}
		for _, s := range groups[dev] {
			c, err := s.apply(op)
			if err != nil {
				logging.Warn("Status reply missing switch key",
					zap.String("entity", s.UniqueID()),
					zap.Error(err),
				)
				continue
			}
			if c {
				changed = append(changed, s)
			}
		}
	}
	return changed
}
