// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// Category distinguishes the two kinds of catalog items.
type Category string

// Catalog item categories.
const (
	CategoryScale    Category = "scale"
	CategoryArpeggio Category = "arpeggio"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryScale || c == CategoryArpeggio
}

// Articulation is the suggested bowing for a generated item.
type Articulation string

// Articulation values.
const (
	ArticulationSlurred  Articulation = "slurred"
	ArticulationSeparate Articulation = "separate"
)

// ArticulationMode restricts which articulations an item may be assigned.
type ArticulationMode string

// Articulation modes.
const (
	ArticulationBoth         ArticulationMode = "both"
	ArticulationSeparateOnly ArticulationMode = "separate_only"
	ArticulationSlurredOnly  ArticulationMode = "slurred_only"
)

// Valid reports whether m is a known articulation mode.
func (m ArticulationMode) Valid() bool {
	return m == ArticulationBoth || m == ArticulationSeparateOnly || m == ArticulationSlurredOnly
}

// ItemRef identifies a catalog item across both categories.
type ItemRef struct {
	Category Category `json:"category"`
	ID       int64    `json:"id"`
}

// String renders the ref as "category:id".
func (r ItemRef) String() string {
	return fmt.Sprintf("%s:%d", r.Category, r.ID)
}

// CatalogItem is a scale or arpeggio as stored in the catalog.
type CatalogItem struct {
	Category         Category         `json:"category"`
	ID               int64            `json:"id"`
	Note             string           `json:"note"`
	Accidental       string           `json:"accidental,omitempty"` // "", "flat", or "sharp"
	Type             string           `json:"type"`
	Octaves          int              `json:"octaves"`
	Enabled          bool             `json:"enabled"`
	Weight           float64          `json:"weight"`
	TargetBPM        int              `json:"target_bpm,omitempty"` // 0 means unset
	ArticulationMode ArticulationMode `json:"articulation_mode"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Ref returns the item's identity.
func (i CatalogItem) Ref() ItemRef {
	return ItemRef{Category: i.Category, ID: i.ID}
}

// DisplayName renders a human-readable name, e.g. "B♭ minor harmonic - 2 octaves".
func (i CatalogItem) DisplayName() string {
	acc := ""
	switch i.Accidental {
	case "flat":
		acc = "♭"
	case "sharp":
		acc = "♯"
	}
	plural := ""
	if i.Octaves > 1 {
		plural = "s"
	}
	if i.Category == CategoryArpeggio {
		return fmt.Sprintf("%s%s %s arpeggio - %d octave%s", i.Note, acc, i.Type, i.Octaves, plural)
	}
	return fmt.Sprintf("%s%s %s - %d octave%s", i.Note, acc, strings.ReplaceAll(i.Type, "_", " "), i.Octaves, plural)
}

// PracticeStats summarizes practice history for one item.
type PracticeStats struct {
	Count     int  // entries marked practiced
	DaysSince int  // days since the most recent practiced entry
	Practiced bool // false when the item was never practiced
}

// GeneratedItem is one entry of a generated practice set.
type GeneratedItem struct {
	Category      Category     `json:"category"`
	ID            int64        `json:"id"`
	DisplayName   string       `json:"display_name"`
	Octaves       int          `json:"octaves"`
	TargetBPM     int          `json:"target_bpm"`
	IsWeeklyFocus bool         `json:"is_weekly_focus"`
	Articulation  Articulation `json:"articulation"`
}

// Ref returns the generated item's identity.
func (g GeneratedItem) Ref() ItemRef {
	return ItemRef{Category: g.Category, ID: g.ID}
}

// PracticeEntry records one item of a practice session.
type PracticeEntry struct {
	ItemType          Category     `json:"item_type"`
	ItemID            int64        `json:"item_id"`
	Articulation      Articulation `json:"articulation,omitempty"` // suggested at generation time
	WasPracticed      bool         `json:"was_practiced"`
	PracticedSlurred  bool         `json:"practiced_slurred"`
	PracticedSeparate bool         `json:"practiced_separate"`
	PracticedBPM      int          `json:"practiced_bpm,omitempty"`
	TargetBPM         int          `json:"target_bpm,omitempty"`
	MatchedTargetBPM  bool         `json:"matched_target_bpm,omitempty"`
}

// SessionSummary describes a stored practice session.
type SessionSummary struct {
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	EntriesCount   int       `json:"entries_count"`
	PracticedCount int       `json:"practiced_count"`
}

// HistoryItem aggregates practice history for one enabled item.
type HistoryItem struct {
	ItemType        Category   `json:"item_type"`
	ItemID          int64      `json:"item_id"`
	DisplayName     string     `json:"display_name"`
	TotalSessions   int        `json:"total_sessions"`
	TimesPracticed  int        `json:"times_practiced"`
	LastPracticed   *time.Time `json:"last_practiced,omitempty"`
	MaxPracticedBPM int        `json:"max_practiced_bpm,omitempty"`
	TargetBPM       int        `json:"target_bpm,omitempty"`
}

// SelectionSet is a named preset of enabled catalog items. Loading a set
// replaces the current selection; at most one set is active at a time.
type SelectionSet struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Active      bool      `json:"is_active"`
	ScaleIDs    []int64   `json:"scale_ids"`
	ArpeggioIDs []int64   `json:"arpeggio_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CatalogFilter narrows catalog listings. Zero values mean no filtering.
type CatalogFilter struct {
	Note    string
	Type    string
	Octaves int
	Enabled *bool
}
