// Package pricing computes the total cost of a cleaning booking. Quote is a
// pure function of its inputs: no I/O, deterministic, total.
package pricing

import (
	"math"

	"github.com/wolfman30/cleanbook/internal/catalog"
)

// PropertyType is the kind of property being cleaned.
type PropertyType string

const (
	PropertyHouse PropertyType = "house"
	PropertyFlat  PropertyType = "flat"
)

// Valid reports whether p is a known property type.
func (p PropertyType) Valid() bool {
	return p == PropertyHouse || p == PropertyFlat
}

// Config holds the pricing knobs that are not carried on the fetched service
// records: property multipliers and the cleaning-supplies flat fee. Rates per
// service come from the data service, so the two sources cannot drift.
type Config struct {
	PropertyMultipliers map[PropertyType]float64
	CleaningSuppliesFee float64
}

// DefaultConfig mirrors the production configuration: houses cost 20% more
// than flats, supplies add a flat 30.
func DefaultConfig() Config {
	return Config{
		PropertyMultipliers: map[PropertyType]float64{
			PropertyHouse: 1.2,
			PropertyFlat:  1.0,
		},
		CleaningSuppliesFee: 30,
	}
}

// Breakdown itemizes a quote for display.
type Breakdown struct {
	BasePrice          float64 `json:"basePrice"`
	PropertyMultiplier float64 `json:"propertyMultiplier"`
	AdditionalRooms    int     `json:"additionalRooms"`
	AdditionalRoomCost float64 `json:"additionalRoomCost"`
	AdditionalHours    int     `json:"additionalHours"`
	AdditionalHourCost float64 `json:"additionalHourCost"`
	SuppliesFee        float64 `json:"suppliesFee"`
	Total              int     `json:"total"`
}

// Quote returns the total cost in whole currency units. A nil service (not
// yet loaded or unresolved) quotes as 0.
func (c Config) Quote(svc *catalog.Service, property PropertyType, roomCount, durationHours int, needsSupplies bool) int {
	return c.Itemize(svc, property, roomCount, durationHours, needsSupplies).Total
}

// Itemize computes the full breakdown behind a quote. Step order matters for
// reproducibility: base, property multiplier, rooms, hours, supplies, round.
func (c Config) Itemize(svc *catalog.Service, property PropertyType, roomCount, durationHours int, needsSupplies bool) Breakdown {
	if svc == nil {
		return Breakdown{PropertyMultiplier: 1}
	}

	mult := c.multiplierFor(property)
	cost := svc.BasePrice * mult

	extraRooms := max(0, roomCount-svc.BaseRoomsIncluded)
	cost += float64(extraRooms) * svc.AdditionalRoomCost

	extraHours := max(0, durationHours-svc.BaseDurationHours)
	cost += float64(extraHours) * svc.AdditionalHourCost

	var fee float64
	if needsSupplies {
		fee = c.CleaningSuppliesFee
		cost += fee
	}

	return Breakdown{
		BasePrice:          svc.BasePrice,
		PropertyMultiplier: mult,
		AdditionalRooms:    extraRooms,
		AdditionalRoomCost: svc.AdditionalRoomCost,
		AdditionalHours:    extraHours,
		AdditionalHourCost: svc.AdditionalHourCost,
		SuppliesFee:        fee,
		Total:              int(math.Round(cost)),
	}
}

func (c Config) multiplierFor(property PropertyType) float64 {
	if m, ok := c.PropertyMultipliers[property]; ok {
		return m
	}
	return 1
}
