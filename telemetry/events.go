// Package telemetry provides herd health tracking: events, windowed stats,
// per-creature lifetime records and CSV output.
package telemetry

// EventType identifies telemetry events.
type EventType uint8

const (
	EventConception EventType = iota
	EventBotched
	EventBirth
	EventHarvest
	EventScratch
	EventDeath
	EventMisconfig
)

var eventNames = [...]string{
	EventConception: "conception",
	EventBotched:    "botched",
	EventBirth:      "birth",
	EventHarvest:    "harvest",
	EventScratch:    "scratch",
	EventDeath:      "death",
	EventMisconfig:  "misconfig",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// MarshalCSV lets gocsv write the event name instead of the number.
func (t EventType) MarshalCSV() (string, error) {
	return t.String(), nil
}

// Event represents a single telemetry event.
type Event struct {
	Type     EventType `csv:"type"`
	Day      float64   `csv:"day"`
	EntityID uint64    `csv:"entity"`
	Code     string    `csv:"code"`

	// Optional fields depending on event type
	TargetID uint64  `csv:"target"` // partner, parent or harvester
	Amount   float64 `csv:"amount"` // litter size or wool quantity
	Detail   string  `csv:"detail"`
}

// NewConceptionEvent creates a conception event.
func NewConceptionEvent(day float64, motherID uint64, code string, partnerID uint64) Event {
	return Event{
		Type:     EventConception,
		Day:      day,
		EntityID: motherID,
		Code:     code,
		TargetID: partnerID,
	}
}

// NewBotchedEvent creates a botched conception event.
func NewBotchedEvent(day float64, motherID uint64, code string) Event {
	return Event{
		Type:     EventBotched,
		Day:      day,
		EntityID: motherID,
		Code:     code,
	}
}

// NewBirthEvent creates a birth event for one offspring.
func NewBirthEvent(day float64, childID uint64, code string, parentID uint64) Event {
	return Event{
		Type:     EventBirth,
		Day:      day,
		EntityID: childID,
		Code:     code,
		TargetID: parentID, // parent ID stored in TargetID
	}
}

// NewHarvestEvent creates a harvest event.
func NewHarvestEvent(day float64, sheepID uint64, code string, byID uint64, quantity int, tool string) Event {
	return Event{
		Type:     EventHarvest,
		Day:      day,
		EntityID: sheepID,
		Code:     code,
		TargetID: byID,
		Amount:   float64(quantity),
		Detail:   tool,
	}
}

// NewScratchEvent creates an event for a creature hurt during harvest.
func NewScratchEvent(day float64, sheepID uint64, code string, byID uint64) Event {
	return Event{
		Type:     EventScratch,
		Day:      day,
		EntityID: sheepID,
		Code:     code,
		TargetID: byID,
	}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(day float64, entityID uint64, code string, cause string) Event {
	return Event{
		Type:     EventDeath,
		Day:      day,
		EntityID: entityID,
		Code:     code,
		Detail:   cause,
	}
}

// NewMisconfigEvent records a configuration problem surfaced at runtime.
func NewMisconfigEvent(day float64, entityID uint64, code string, kind string) Event {
	return Event{
		Type:     EventMisconfig,
		Day:      day,
		EntityID: entityID,
		Code:     code,
		Detail:   kind,
	}
}
