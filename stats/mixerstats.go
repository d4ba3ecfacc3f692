package stats

import (
	"fmt"
	"strings"

	audiomixer "github.com/hfmix/audiomixer"
)

// FrameTotals accumulates the per-frame counters the mixer stats
// document summarizes over one stats interval.
type FrameTotals struct {
	Frames       uint64
	SumListeners uint64
	SumMixes     uint64
}

// Add folds one frame's listener and mix counts into the running
// totals.
func (t *FrameTotals) Add(listeners, mixes uint64) {
	t.Frames++
	t.SumListeners += listeners
	t.SumMixes += mixes
}

// Reset zeroes the totals, called after a stats document is built.
func (t *FrameTotals) Reset() {
	*t = FrameTotals{}
}

// Document is a single textual key/value mixer-stats document: one
// `key=value` pair per line.
type Document struct {
	lines []string
	size  int
}

// Add appends one key/value pair to the document.
func (d *Document) Add(key string, value interface{}) {
	line := fmt.Sprintf("%s=%v", key, value)
	d.lines = append(d.lines, line)
	d.size += len(line) + 1
}

// Size returns the document's serialized byte length, including
// newline separators.
func (d *Document) Size() int {
	return d.size
}

// TooBig reports whether the document has grown past
// audiomixer.TooBigForMTU and should be flushed before adding more.
func (d *Document) TooBig() bool {
	return d.size > audiomixer.TooBigForMTU
}

// String renders the document as newline-separated "key=value" lines.
func (d *Document) String() string {
	return strings.Join(d.lines, "\n")
}

// Bytes renders the document to a byte slice ready to hand to the
// transport.
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

// SummaryDocument builds the first mixer-stats document: global
// trailing-sleep-ratio, throttle ratio, and per-frame averages. It
// never exceeds the MTU threshold on its own.
func SummaryDocument(trailingSleepRatio, throttleRatio float64, totals FrameTotals) *Document {
	doc := &Document{}
	doc.Add("trailing_sleep_percentage", trailingSleepRatio*100)
	doc.Add("performance_throttling_ratio", throttleRatio)

	avgListeners := 0.0
	if totals.Frames > 0 {
		avgListeners = float64(totals.SumListeners) / float64(totals.Frames)
	}
	doc.Add("average_listeners_per_frame", avgListeners)

	avgMixes := 0.0
	if totals.SumListeners > 0 {
		avgMixes = float64(totals.SumMixes) / float64(totals.SumListeners)
	}
	doc.Add("average_mixes_per_listener", avgMixes)

	return doc
}

// JitterStatsDocuments builds one or more MTU-sized documents from a
// per-listener jitter stats string, keyed by peer, starting a new
// document once the current one has grown past audiomixer.TooBigForMTU,
// matching the original's per-listener-jitter MTU split. A finished
// document can therefore exceed the threshold by its last entry.
func JitterStatsDocuments(entries map[string]string) []*Document {
	var docs []*Document
	current := &Document{}

	for peer, value := range entries {
		if current.Size() > 0 && current.TooBig() {
			docs = append(docs, current)
			current = &Document{}
		}
		current.Add("jitterStats."+peer, value)
	}

	if current.Size() > 0 {
		docs = append(docs, current)
	}

	return docs
}
