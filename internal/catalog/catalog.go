// Package catalog holds the session-immutable reference data fetched from
// the data service: cleaning service definitions and selectable time slots.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/wolfman30/cleanbook/internal/strapi"
	"github.com/wolfman30/cleanbook/pkg/logging"
)

// Service is the resolved, read-only service definition used for pricing and
// submission. Ref is the opaque relation identifier for the data service.
type Service struct {
	Ref                string  `json:"ref"`
	ServiceTypeID      string  `json:"serviceTypeId"`
	DisplayName        string  `json:"displayName"`
	Description        string  `json:"description,omitempty"`
	BasePrice          float64 `json:"basePrice"`
	BaseRoomsIncluded  int     `json:"baseRoomsIncluded"`
	BaseDurationHours  int     `json:"baseDurationHours"`
	AdditionalRoomCost float64 `json:"additionalRoomCost"`
	AdditionalHourCost float64 `json:"additionalHourCost"`
}

// Slot is a selectable start time within business hours.
type Slot struct {
	Identifier string `json:"identifier"`
	StartTime  string `json:"startTime"` // "08:00"
	EndTime    string `json:"endTime"`
}

// Gateway is the subset of the data service client the catalog needs.
type Gateway interface {
	ListServices(ctx context.Context) ([]strapi.Service, error)
	ListSlotDefinitions(ctx context.Context) ([]strapi.SlotDefinition, error)
}

// Catalog caches reference data for the lifetime of the process.
type Catalog struct {
	gw         Gateway
	logger     *logging.Logger
	hoursStart string
	hoursEnd   string

	mu       sync.RWMutex
	services []Service
	slots    []Slot
	loaded   bool
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithBusinessHours restricts slots to the [start, end] window, both in
// 24-hour "HH:MM" form.
func WithBusinessHours(start, end string) Option {
	return func(c *Catalog) {
		c.hoursStart = start
		c.hoursEnd = end
	}
}

// New creates an empty catalog. Call Load before serving requests.
func New(gw Gateway, logger *logging.Logger, opts ...Option) *Catalog {
	if gw == nil {
		panic("catalog: gateway required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Catalog{
		gw:         gw,
		logger:     logger,
		hoursStart: "08:00",
		hoursEnd:   "20:00",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches services and slot definitions. Safe to call again to refresh;
// previously loaded data is kept when a refresh fails.
func (c *Catalog) Load(ctx context.Context) error {
	raw, err := c.gw.ListServices(ctx)
	if err != nil {
		return fmt.Errorf("catalog: load services: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("catalog: data service returned no services")
	}

	rawSlots, err := c.gw.ListSlotDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("catalog: load slots: %w", err)
	}

	services := make([]Service, 0, len(raw))
	for _, s := range raw {
		services = append(services, Service{
			Ref:                s.Ref(),
			ServiceTypeID:      s.ServiceTypeID,
			DisplayName:        s.DisplayName,
			Description:        s.Description,
			BasePrice:          s.BasePrice,
			BaseRoomsIncluded:  s.BaseRoomsIncluded,
			BaseDurationHours:  s.BaseDurationHours,
			AdditionalRoomCost: s.AdditionalRoomCost,
			AdditionalHourCost: s.AdditionalHourCost,
		})
	}

	slots := make([]Slot, 0, len(rawSlots))
	for _, s := range rawSlots {
		start := clockOf(s.StartTime)
		if start < c.hoursStart || start > c.hoursEnd {
			continue
		}
		slots = append(slots, Slot{
			Identifier: s.Identifier,
			StartTime:  start,
			EndTime:    clockOf(s.EndTime),
		})
	}

	c.mu.Lock()
	c.services = services
	c.slots = slots
	c.loaded = true
	c.mu.Unlock()

	c.logger.Info("catalog loaded", "services", len(services), "slots", len(slots))
	return nil
}

// Loaded reports whether reference data has been fetched at least once.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Services returns the loaded service definitions.
func (c *Catalog) Services() []Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}

// Slots returns the business-hours slot list.
func (c *Catalog) Slots() []Slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// ResolveService finds the service definition for a serviceTypeId.
func (c *Catalog) ResolveService(serviceTypeID string) (*Service, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.services {
		if c.services[i].ServiceTypeID == serviceTypeID {
			svc := c.services[i]
			return &svc, true
		}
	}
	return nil, false
}

// DefaultServiceTypeID is the wizard's initial service selection: the first
// loaded service, or "regular" until the catalog is populated.
func (c *Catalog) DefaultServiceTypeID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.services) > 0 {
		return c.services[0].ServiceTypeID
	}
	return "regular"
}

// clockOf reduces "08:00:00.000" (or "8:00") to zero-padded "HH:MM".
// Padding must come first: the business-hours filter compares these strings
// lexically, so an unpadded hour would sort before "08:00" and be dropped.
func clockOf(raw string) string {
	if len(raw) >= 4 && raw[1] == ':' {
		raw = "0" + raw
	}
	if len(raw) >= 5 {
		return raw[:5]
	}
	return raw
}
