// pkg/core/ledger.go
package core

import (
	"encoding/json"
	"time"
)

// KillEntry is one unit type and how many of it a pilot destroyed.
type KillEntry struct {
	UnitTypeID string `json:"unitTypeId"`
	KillCount  int    `json:"killCount"`
}

// Ledger maps unit-type ids to kill counts, remembering insertion order.
// Counts are always positive: setting a count of zero or less removes the entry.
// The zero value is an empty ledger ready to use.
type Ledger struct {
	order  []string
	counts map[string]int
}

// NewLedger builds a ledger from entries. Later duplicates replace earlier ones
// in place and non-positive counts are dropped.
func NewLedger(entries ...KillEntry) Ledger {
	var l Ledger
	for _, e := range entries {
		l.Set(e.UnitTypeID, e.KillCount)
	}
	return l
}

// Set replaces the count for unitTypeID, appending it if new.
// A count of zero or less removes the entry.
func (l *Ledger) Set(unitTypeID string, count int) {
	if count <= 0 {
		l.Remove(unitTypeID)
		return
	}
	if l.counts == nil {
		l.counts = make(map[string]int)
	}
	if _, ok := l.counts[unitTypeID]; !ok {
		l.order = append(l.order, unitTypeID)
	}
	l.counts[unitTypeID] = count
}

// Add adjusts the count for unitTypeID by delta and returns the new count.
func (l *Ledger) Add(unitTypeID string, delta int) int {
	n := l.Count(unitTypeID) + delta
	l.Set(unitTypeID, n)
	return l.Count(unitTypeID)
}

// Remove deletes the entry for unitTypeID. It reports whether one existed.
func (l *Ledger) Remove(unitTypeID string) bool {
	if _, ok := l.counts[unitTypeID]; !ok {
		return false
	}
	delete(l.counts, unitTypeID)
	for i, id := range l.order {
		if id == unitTypeID {
			l.order = append(l.order[:i:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

// Count returns the count for unitTypeID, zero when absent.
func (l Ledger) Count(unitTypeID string) int {
	return l.counts[unitTypeID]
}

// Has reports whether unitTypeID has an entry.
func (l Ledger) Has(unitTypeID string) bool {
	_, ok := l.counts[unitTypeID]
	return ok
}

// Len returns the number of distinct unit types.
func (l Ledger) Len() int {
	return len(l.order)
}

// Empty reports whether the ledger has no entries.
func (l Ledger) Empty() bool {
	return len(l.order) == 0
}

// Total sums all counts.
func (l Ledger) Total() int {
	total := 0
	for _, n := range l.counts {
		total += n
	}
	return total
}

// Entries returns the entries in insertion order.
func (l Ledger) Entries() []KillEntry {
	out := make([]KillEntry, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, KillEntry{UnitTypeID: id, KillCount: l.counts[id]})
	}
	return out
}

// Clone returns an independent copy.
func (l Ledger) Clone() Ledger {
	return NewLedger(l.Entries()...)
}

// MarshalJSON encodes the ledger as an ordered array of entries.
func (l Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Entries())
}

// UnmarshalJSON decodes an array of entries, applying the same rules as NewLedger.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var entries []KillEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*l = NewLedger(entries...)
	return nil
}

// KillLedgerRecord is the persisted kill and status entry for one pilot in one
// flight debrief.
type KillLedgerRecord struct {
	ID              string
	FlightDebriefID string
	PilotID         string
	MissionID       string
	Kills           Ledger
	Statuses        PilotStatuses
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LineKey addresses a single unit entry inside a ledger record.
type LineKey struct {
	RecordID   string
	UnitTypeID string
}

// ExpandedKillLine is one unit entry of a record joined with catalog data.
type ExpandedKillLine struct {
	Key             LineKey
	FlightDebriefID string
	PilotID         string
	MissionID       string
	UnitTypeID      string
	DisplayName     string
	TypeName        string
	Category        UnitCategory
	KillCategory    KillCategory
	KillCount       int
	Statuses        PilotStatuses
	RecordCreated   time.Time
}

// StatusRow is the status half of a ledger record.
type StatusRow struct {
	RecordID string
	PilotID  string
	Statuses PilotStatuses
}

// UnitKillWrite is the input of a merge-or-create for one unit entry.
type UnitKillWrite struct {
	FlightDebriefID string
	PilotID         string
	MissionID       string
	UnitTypeID      string
	Count           int
	Statuses        PilotStatuses
}

// StatusWrite is the input of a status-only save.
type StatusWrite struct {
	FlightDebriefID string
	PilotID         string
	MissionID       string
	Statuses        PilotStatuses
}
