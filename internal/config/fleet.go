package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DroneConfig describes one vehicle in the fleet file.
type DroneConfig struct {
	ID         int    `yaml:"id"`
	Name       string `yaml:"name"`
	Endpoint   string `yaml:"endpoint"`
	Baud       int    `yaml:"baud"`
	Simulation bool   `yaml:"simulation"`
}

// Fleet is the parsed fleet definition.
type Fleet struct {
	Drones []DroneConfig `yaml:"drones"`
}

// LoadFleet reads and validates a YAML fleet file.
func LoadFleet(path string) (*Fleet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fleet file: %w", err)
	}

	var fleet Fleet
	if err := yaml.Unmarshal(data, &fleet); err != nil {
		return nil, fmt.Errorf("parse fleet file %s: %w", path, err)
	}

	seen := make(map[int]bool)
	for i, d := range fleet.Drones {
		if d.ID <= 0 {
			return nil, fmt.Errorf("fleet entry %d: id must be positive", i)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("fleet entry %d: duplicate drone id %d", i, d.ID)
		}
		seen[d.ID] = true
		if !d.Simulation && d.Endpoint == "" {
			return nil, fmt.Errorf("drone %d: endpoint is required unless simulation is set", d.ID)
		}
		if fleet.Drones[i].Baud == 0 {
			fleet.Drones[i].Baud = 57600
		}
	}
	return &fleet, nil
}

// Lookup returns the fleet entry for a drone id.
func (f *Fleet) Lookup(id int) (DroneConfig, bool) {
	for _, d := range f.Drones {
		if d.ID == id {
			return d, true
		}
	}
	return DroneConfig{}, false
}
