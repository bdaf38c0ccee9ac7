package game

import "fmt"

// ChartPayload is the wire shape of selectchart/startchart messages. Rate is
// fixed-point x1000 (1000 = 1.0x).
type ChartPayload struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Artist     string `json:"artist"`
	Filehash   string `json:"filehash"`
	Chartkey   string `json:"chartkey"`
	Rate       int    `json:"rate"`
	Difficulty int    `json:"difficulty"`
	Meter      int    `json:"meter"`
}

// Chart is an active selection, pinned to the player who picked it. Replaced
// wholesale on each new selection, never mutated.
type Chart struct {
	Title      string
	Subtitle   string
	Artist     string
	Filehash   string
	Chartkey   string
	Rate       int
	Difficulty int
	Meter      int
	PickedBy   string
}

// NewChart builds a Chart from an incoming payload.
func NewChart(msg ChartPayload, pickedBy string) *Chart {
	return &Chart{
		Title:      msg.Title,
		Subtitle:   msg.Subtitle,
		Artist:     msg.Artist,
		Filehash:   msg.Filehash,
		Chartkey:   msg.Chartkey,
		Rate:       msg.Rate,
		Difficulty: msg.Difficulty,
		Meter:      msg.Meter,
		PickedBy:   pickedBy,
	}
}

// Selection modes pick which chart fields are authoritative for equality
// comparison and wire serialization.
const (
	SelectByChartkey     = 0
	SelectByMetadata     = 1
	SelectByMetadataOnly = 2
)

// SelectionModeDescriptions lists the valid modes for the selectionmode
// command's error reply.
var SelectionModeDescriptions = map[int]string{
	SelectByChartkey:     "By chartkey",
	SelectByMetadata:     "By title, subtitle, artist, difficulty meter and filehash",
	SelectByMetadataOnly: "By title, subtitle, artist and filehash",
}

// SerializedChart is the projection of a Chart under a selection mode.
// Comparable, so two projections match iff their wire forms match.
type SerializedChart struct {
	Title      string `json:"title,omitempty"`
	Subtitle   string `json:"subtitle,omitempty"`
	Artist     string `json:"artist,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
	Meter      int    `json:"meter,omitempty"`
	Filehash   string `json:"filehash,omitempty"`
	Chartkey   string `json:"chartkey,omitempty"`
	Rate       int    `json:"rate,omitempty"`
}

// Project applies a selection mode to a chart. ok is false for an unknown
// mode.
func Project(mode int, ch *Chart) (sc SerializedChart, ok bool) {
	if ch == nil {
		return SerializedChart{}, true
	}
	switch mode {
	case SelectByChartkey:
		return SerializedChart{Chartkey: ch.Chartkey}, true
	case SelectByMetadata:
		return SerializedChart{
			Title:      ch.Title,
			Subtitle:   ch.Subtitle,
			Artist:     ch.Artist,
			Difficulty: ch.Difficulty,
			Meter:      ch.Meter,
			Filehash:   ch.Filehash,
		}, true
	case SelectByMetadataOnly:
		return SerializedChart{
			Title:    ch.Title,
			Subtitle: ch.Subtitle,
			Artist:   ch.Artist,
			Filehash: ch.Filehash,
		}, true
	default:
		return SerializedChart{}, false
	}
}

// Describe renders the human-readable chart line for room chat.
func (c *Chart) Describe() string {
	desc := fmt.Sprintf("%s (%d: %d)", c.Title, c.Difficulty, c.Meter)
	if c.Rate != 0 && c.Rate != 1000 {
		desc += " " + FormatRate(c.Rate)
	}
	return desc
}
