package stats

import (
	"math"
	"strings"
	"testing"

	audiomixer "github.com/hfmix/audiomixer"
	"github.com/stretchr/testify/assert"
)

func TestFrameTotalsAddAndReset(t *testing.T) {
	var totals FrameTotals
	totals.Add(3, 9)
	totals.Add(2, 4)
	assert.Equal(t, uint64(2), totals.Frames)
	assert.Equal(t, uint64(5), totals.SumListeners)
	assert.Equal(t, uint64(13), totals.SumMixes)

	totals.Reset()
	assert.Equal(t, FrameTotals{}, totals)
}

func TestSummaryDocumentContents(t *testing.T) {
	var totals FrameTotals
	totals.Add(4, 8)

	doc := SummaryDocument(0.15, 0.5, totals)
	s := doc.String()
	assert.Contains(t, s, "trailing_sleep_percentage=15")
	assert.Contains(t, s, "performance_throttling_ratio=0.5")
	assert.Contains(t, s, "average_listeners_per_frame=4")
	assert.Contains(t, s, "average_mixes_per_listener=2")
}

func TestSummaryDocumentZeroListenersNoDivideByZero(t *testing.T) {
	doc := SummaryDocument(0, 0, FrameTotals{})
	assert.Contains(t, doc.String(), "average_mixes_per_listener=0")
}

func TestJitterStatsDocumentsSplitsAtMTU(t *testing.T) {
	entries := make(map[string]string)
	big := strings.Repeat("x", 100)
	for i := 0; i < 20; i++ {
		entries[string(rune('a'+i))] = big
	}

	docs := JitterStatsDocuments(entries)
	assert.Greater(t, len(docs), 1)
	for _, d := range docs[:len(docs)-1] {
		assert.LessOrEqual(t, d.Size()-len(big)-10, audiomixer.TooBigForMTU)
	}
}

func TestJitterStatsDocumentsEmpty(t *testing.T) {
	docs := JitterStatsDocuments(map[string]string{})
	assert.Empty(t, docs)
}

func TestDefaultEncoderRoundTrippableLength(t *testing.T) {
	enc := DefaultEncoder{}
	out := enc.Encode(ListenerJitterStats{AverageJitterMargin: 1.5, StarveCount: 3, FramesMixed: 100})
	assert.Len(t, out, 12)
	_ = math.Float32bits(1.5)
}
