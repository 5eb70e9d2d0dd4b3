package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/piwi3910/tubenest/internal/model"
)

// StockedOffcut is a remnant kept on the shelf for later jobs.
type StockedOffcut struct {
	ID      string  `json:"id"`
	Length  float64 `json:"length"`
	Source  string  `json:"source"` // run or project that produced it
	AddedAt string  `json:"added_at"`
}

// Inventory is the offcut shelf.
type Inventory struct {
	Offcuts []StockedOffcut `json:"offcuts"`
}

// DefaultInventoryPath returns ~/.tubenest/offcuts.json.
func DefaultInventoryPath() string {
	return filepath.Join(DefaultConfigDir(), "offcuts.json")
}

// SaveInventory writes the inventory to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveInventory(path string, inv Inventory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadInventory reads the inventory. A missing file is an empty inventory.
func LoadInventory(path string) (Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Inventory{Offcuts: []StockedOffcut{}}, nil
		}
		return Inventory{}, err
	}
	var inv Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return Inventory{}, fmt.Errorf("parse inventory %s: %w", path, err)
	}
	if inv.Offcuts == nil {
		inv.Offcuts = []StockedOffcut{}
	}
	return inv, nil
}

// AddOffcuts merges offcuts into the inventory, skipping IDs already stocked,
// and keeps the shelf sorted longest first. It returns how many were added.
func (inv *Inventory) AddOffcuts(offcuts []model.Offcut, source string, now time.Time) int {
	ids := make(map[string]bool, len(inv.Offcuts))
	for _, o := range inv.Offcuts {
		ids[o.ID] = true
	}

	added := 0
	for _, o := range offcuts {
		if ids[o.ID] {
			continue
		}
		inv.Offcuts = append(inv.Offcuts, StockedOffcut{
			ID:      o.ID,
			Length:  o.Length,
			Source:  source,
			AddedAt: now.UTC().Format(time.RFC3339),
		})
		ids[o.ID] = true
		added++
	}

	sort.SliceStable(inv.Offcuts, func(i, j int) bool {
		return inv.Offcuts[i].Length > inv.Offcuts[j].Length
	})
	return added
}

// TotalLength is the summed length of all stocked offcuts.
func (inv Inventory) TotalLength() float64 {
	var total float64
	for _, o := range inv.Offcuts {
		total += o.Length
	}
	return total
}
