// Package config provides configuration helpers and TOML parsing.
package config

import (
	"github.com/arcoapp/arco/internal/model"
)

// Default values applied by Normalize.
const (
	DefaultTotalItems     = 5
	DefaultVariation      = 20
	DefaultSlurredPercent = 50
	DefaultScaleBPM       = 60
	DefaultArpeggioBPM    = 72
	DefaultBPMUnit        = "quaver"

	DefaultBaseMultiplier  = 1.0
	DefaultDaysSinceFactor = 7
	DefaultCountDivisor    = 1

	DefaultFocusProbability = 80
)

// Weighting controls how practice history shapes item weights.
type Weighting struct {
	BaseMultiplier       float64 `json:"base_multiplier"`
	DaysSincePracticeFac float64 `json:"days_since_practice_factor"`
	PracticeCountDivisor float64 `json:"practice_count_divisor"`
}

// WeeklyFocus reserves part of each generated set for chosen keys/types/categories.
type WeeklyFocus struct {
	Enabled             bool             `json:"enabled"`
	Keys                []string         `json:"keys"`
	Types               []string         `json:"types"`
	Categories          []model.Category `json:"categories"`
	ProbabilityIncrease float64          `json:"probability_increase"` // percent of slots reserved, 0-100
}

// Active reports whether weekly focus should drive slot allocation.
func (f WeeklyFocus) Active() bool {
	return f.Enabled && (len(f.Keys) > 0 || len(f.Types) > 0 || len(f.Categories) > 0)
}

// Slot is a category+subtype bucket with a target share of the set.
type Slot struct {
	Name     string         `json:"name"`
	Types    []string       `json:"types"`
	ItemType model.Category `json:"item_type"`
	Percent  float64        `json:"percent"`
}

// Algorithm is the selection algorithm configuration. It is persisted as a
// JSON settings value; load it through Normalize so every field carries a
// usable value and the core never re-checks defaults.
type Algorithm struct {
	TotalItems         int         `json:"total_items"`
	Variation          float64     `json:"variation"`
	Slots              []Slot      `json:"slots"`
	OctaveVariety      bool        `json:"octave_variety"`
	SlurredPercent     float64     `json:"slurred_percent"`
	Weighting          Weighting   `json:"weighting"`
	DefaultScaleBPM    int         `json:"default_scale_bpm"`
	DefaultArpeggioBPM int         `json:"default_arpeggio_bpm"`
	ScaleBPMUnit       string      `json:"scale_bpm_unit"`
	ArpeggioBPMUnit    string      `json:"arpeggio_bpm_unit"`
	WeeklyFocus        WeeklyFocus `json:"weekly_focus"`
}

// DefaultAlgorithm returns the configuration used when none is persisted.
func DefaultAlgorithm() Algorithm {
	return Algorithm{
		TotalItems: DefaultTotalItems,
		Variation:  DefaultVariation,
		Slots: []Slot{
			{Name: "Tonal Scales", Types: []string{"major", "minor_harmonic", "minor_melodic"}, ItemType: model.CategoryScale, Percent: 30},
			{Name: "Chromatic Scales", Types: []string{"chromatic"}, ItemType: model.CategoryScale, Percent: 10},
			{Name: "Seventh Arpeggios", Types: []string{"diminished", "dominant"}, ItemType: model.CategoryArpeggio, Percent: 10},
			{Name: "Triad Arpeggios", Types: []string{"major", "minor"}, ItemType: model.CategoryArpeggio, Percent: 50},
		},
		OctaveVariety:  true,
		SlurredPercent: DefaultSlurredPercent,
		Weighting: Weighting{
			BaseMultiplier:       DefaultBaseMultiplier,
			DaysSincePracticeFac: DefaultDaysSinceFactor,
			PracticeCountDivisor: DefaultCountDivisor,
		},
		DefaultScaleBPM:    DefaultScaleBPM,
		DefaultArpeggioBPM: DefaultArpeggioBPM,
		ScaleBPMUnit:       DefaultBPMUnit,
		ArpeggioBPMUnit:    DefaultBPMUnit,
		WeeklyFocus: WeeklyFocus{
			Enabled:             false,
			Keys:                []string{},
			Types:               []string{},
			Categories:          []model.Category{},
			ProbabilityIncrease: DefaultFocusProbability,
		},
	}
}

// Normalize replaces out-of-range or missing fields with defaults and
// returns the result. The selection algorithm assumes a normalized config.
func (a Algorithm) Normalize() Algorithm {
	if a.TotalItems <= 0 {
		a.TotalItems = DefaultTotalItems
	}
	if a.Variation < 0 {
		a.Variation = 0
	}
	if a.SlurredPercent < 0 {
		a.SlurredPercent = 0
	}
	if a.SlurredPercent > 100 {
		a.SlurredPercent = 100
	}
	if a.Weighting.BaseMultiplier <= 0 {
		a.Weighting.BaseMultiplier = DefaultBaseMultiplier
	}
	if a.Weighting.DaysSincePracticeFac <= 0 {
		a.Weighting.DaysSincePracticeFac = DefaultDaysSinceFactor
	}
	if a.Weighting.PracticeCountDivisor <= 0 {
		a.Weighting.PracticeCountDivisor = DefaultCountDivisor
	}
	if a.DefaultScaleBPM <= 0 {
		a.DefaultScaleBPM = DefaultScaleBPM
	}
	if a.DefaultArpeggioBPM <= 0 {
		a.DefaultArpeggioBPM = DefaultArpeggioBPM
	}
	if a.ScaleBPMUnit != "quaver" && a.ScaleBPMUnit != "crotchet" {
		a.ScaleBPMUnit = DefaultBPMUnit
	}
	if a.ArpeggioBPMUnit != "quaver" && a.ArpeggioBPMUnit != "crotchet" {
		a.ArpeggioBPMUnit = DefaultBPMUnit
	}
	if a.WeeklyFocus.ProbabilityIncrease < 0 {
		a.WeeklyFocus.ProbabilityIncrease = 0
	}
	if a.WeeklyFocus.ProbabilityIncrease > 100 {
		a.WeeklyFocus.ProbabilityIncrease = 100
	}
	slots := make([]Slot, 0, len(a.Slots))
	for _, slot := range a.Slots {
		if !slot.ItemType.Valid() {
			continue
		}
		if slot.Percent < 0 {
			slot.Percent = 0
		}
		if slot.Percent > 100 {
			slot.Percent = 100
		}
		slots = append(slots, slot)
	}
	a.Slots = slots
	return a
}

// DefaultBPM returns the fallback target BPM for a category.
func (a Algorithm) DefaultBPM(category model.Category) int {
	if category == model.CategoryArpeggio {
		return a.DefaultArpeggioBPM
	}
	return a.DefaultScaleBPM
}
