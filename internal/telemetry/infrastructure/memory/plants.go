package memory

import (
	"errors"

	telemetry "plantwatch/internal/telemetry/domain"
)

// ErrPlantNotFound indicates a missing plant.
var ErrPlantNotFound = errors.New("plants: not found")

// PlantCatalogue is the immutable plant reference list.
type PlantCatalogue struct {
	plants []telemetry.Plant
	index  map[string]int
}

// NewPlantCatalogue validates and indexes plants.
func NewPlantCatalogue(plants []telemetry.Plant) (*PlantCatalogue, error) {
	c := &PlantCatalogue{
		plants: append([]telemetry.Plant(nil), plants...),
		index:  make(map[string]int, len(plants)),
	}
	for i, p := range c.plants {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, errors.New("plants: duplicate id " + p.ID)
		}
		c.index[p.ID] = i
	}
	return c, nil
}

// List returns the catalogue in display order.
func (c *PlantCatalogue) List() []telemetry.Plant {
	return append([]telemetry.Plant(nil), c.plants...)
}

// Get returns one plant.
func (c *PlantCatalogue) Get(id string) (telemetry.Plant, error) {
	i, ok := c.index[id]
	if !ok {
		return telemetry.Plant{}, ErrPlantNotFound
	}
	return c.plants[i], nil
}

// Exists reports whether id is a catalogued plant.
func (c *PlantCatalogue) Exists(id string) bool {
	_, ok := c.index[id]
	return ok
}
