package killbuffer

import (
	"github.com/google/uuid"
	"github.com/wingops/debrief/pkg/core"
)

// LineID addresses a line in the buffer. Persisted lines carry the ledger key
// of their entry; lines not yet saved carry a temporary id instead.
type LineID struct {
	Key  core.LineKey
	Temp string
}

func newTempID() LineID {
	return LineID{Temp: uuid.NewString()}
}

// IsTemp reports whether the line has not been persisted yet.
func (id LineID) IsTemp() bool {
	return id.Temp != ""
}

func (id LineID) String() string {
	if id.IsTemp() {
		return "tmp:" + id.Temp
	}
	return id.Key.RecordID + "/" + id.Key.UnitTypeID
}

// Line is one (pilot, unit type) kill count being edited.
type Line struct {
	ID           LineID
	PilotID      string
	UnitTypeID   string
	DisplayName  string
	KillCategory core.KillCategory
	KillCount    int
}
