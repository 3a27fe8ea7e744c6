// Package timepath implements the depth-pruned time hierarchy that
// addresses chunks: Year/Month/Day and, depending on the configured chunk
// interval, Hour, Minute and Second. A path node is a content-addressed
// record, and parent nodes link to children, so any writer ensuring the
// same path converges on the same records with no coordination.
package timepath

import (
	"time"

	"github.com/graphtide/timedex"
)

// Level names one position in the time hierarchy.
type Level int

const (
	Year Level = iota
	Month
	Day
	Hour
	Minute
	Second
)

var levelNames = [...]string{"year", "month", "day", "hour", "minute", "second"}

func (l Level) String() string {
	if l < Year || l > Second {
		return "invalid"
	}
	return levelNames[l]
}

// LevelsFor derives the materialized levels from the chunk interval.
// Coarse intervals prune fine-grained levels entirely: a path under an
// hour-scale interval simply has no Minute or Second component, so two
// datasets with different intervals produce structurally different,
// non-comparable trees.
func LevelsFor(interval time.Duration) []Level {
	switch {
	case interval < time.Second:
		return []Level{Year, Month, Day, Hour, Minute, Second}
	case interval < time.Minute:
		return []Level{Year, Month, Day, Hour, Minute}
	case interval < time.Hour:
		return []Level{Year, Month, Day, Hour}
	default:
		return []Level{Year, Month, Day}
	}
}

// Comp is one typed numeric component of a path.
type Comp struct {
	Level Level `json:"level"`
	Value int   `json:"value"`
}

// Path is an ordered sequence of components under a named index root.
// An empty Comps slice is the index root itself.
type Path struct {
	Index string
	Comps []Comp
}

// pathRecord is the canonical stored form of a path node.
type pathRecord struct {
	Type  string `json:"type"`
	Index string `json:"index"`
	Comps []Comp `json:"comps"`
}

func (p Path) record() pathRecord {
	comps := p.Comps
	if comps == nil {
		comps = []Comp{}
	}
	return pathRecord{Type: "path", Index: p.Index, Comps: comps}
}

// Blob returns the canonical encoding of the path node record.
func (p Path) Blob() (timedex.Blob, error) {
	return timedex.Marshal(p.record())
}

// Ref returns the content address of the path node record.
func (p Path) Ref() timedex.Ref {
	return timedex.MustRef(p.record())
}

// Child extends the path by one component.
func (p Path) Child(l Level, v int) Path {
	comps := make([]Comp, len(p.Comps), len(p.Comps)+1)
	copy(comps, p.Comps)
	return Path{Index: p.Index, Comps: append(comps, Comp{Level: l, Value: v})}
}

// Component returns the numeric value at the given level,
// and false if the path does not carry that level.
func (p Path) Component(l Level) (int, bool) {
	for _, c := range p.Comps {
		if c.Level == l {
			return c.Value, true
		}
	}
	return 0, false
}

// Time reconstructs the start of the period the path addresses.
// Levels below the path's depth take their minimum value.
func (p Path) Time() time.Time {
	year, month, day := 1970, 1, 1
	var hour, min, sec int
	if v, ok := p.Component(Year); ok {
		year = v
	}
	if v, ok := p.Component(Month); ok {
		month = v
	}
	if v, ok := p.Component(Day); ok {
		day = v
	}
	if v, ok := p.Component(Hour); ok {
		hour = v
	}
	if v, ok := p.Component(Minute); ok {
		min = v
	}
	if v, ok := p.Component(Second); ok {
		sec = v
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
}

// component extracts the numeric value of a level from a timestamp.
func component(t time.Time, l Level) int {
	t = t.UTC()
	switch l {
	case Year:
		return t.Year()
	case Month:
		return int(t.Month())
	case Day:
		return t.Day()
	case Hour:
		return t.Hour()
	case Minute:
		return t.Minute()
	default:
		return t.Second()
	}
}

// Truncate returns the start of the period containing t at the given level.
func Truncate(t time.Time, l Level) time.Time {
	t = t.UTC()
	year, month, day := t.Year(), t.Month(), t.Day()
	var hour, min, sec int
	if l >= Hour {
		hour = t.Hour()
	}
	if l >= Minute {
		min = t.Minute()
	}
	if l >= Second {
		sec = t.Second()
	}
	if l < Day {
		day = 1
	}
	if l < Month {
		month = time.January
	}
	return time.Date(year, month, day, hour, min, sec, 0, time.UTC)
}

// PeriodEnd returns the start of the period following the one that begins
// at start, at the given level.
func PeriodEnd(start time.Time, l Level) time.Time {
	switch l {
	case Year:
		return start.AddDate(1, 0, 0)
	case Month:
		return start.AddDate(0, 1, 0)
	case Day:
		return start.AddDate(0, 0, 1)
	case Hour:
		return start.Add(time.Hour)
	case Minute:
		return start.Add(time.Minute)
	default:
		return start.Add(time.Second)
	}
}
