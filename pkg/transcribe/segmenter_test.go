package transcribe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNonSpeech(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"[Music]", true},
		{"[música]", true},
		{"[Applause] [Laughter]", true},
		{"♪♪♪", true},
		{"♪ ♫ ♪", true},
		{"Thank you.", true},
		{"Thanks for watching!", true},
		{"(music playing softly)", true},
		{"la la la la", true},
		{"This is a normal sentence about podcasts.", false},
		{"He said [inaudible] something about the trip yesterday", false},
		{"bye bye everyone, the next episode will cover the rest", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsNonSpeech(tt.text), "text: %q", tt.text)
	}
}

func TestSplitSentences(t *testing.T) {
	parts := splitSentences("Hello there. How are you? Fine!")
	assert.Equal(t, []string{"Hello there.", "How are you?", "Fine!"}, parts)

	// The whole whitespace run after the terminator is consumed.
	parts = splitSentences("One.   Two.")
	assert.Equal(t, []string{"One.", "Two."}, parts)

	// An ellipsis splits after its last dot.
	parts = splitSentences("Well... maybe later.")
	assert.Equal(t, []string{"Well...", "maybe later."}, parts)

	// No terminator, nothing to split.
	parts = splitSentences("no punctuation at all here")
	assert.Equal(t, []string{"no punctuation at all here"}, parts)
}

func TestSplitTranscriptText_MergesShortSentences(t *testing.T) {
	parts := SplitTranscriptText("I agree. Thanks a lot.")
	assert.Equal(t, []string{"I agree. Thanks a lot."}, parts)

	parts = SplitTranscriptText("First sentence is here. Second one follows!")
	assert.Equal(t, []string{"First sentence is here. Second one follows!"}, parts)
}

func TestSplitTranscriptText_SplitsAtCommas(t *testing.T) {
	text := "When we talk about learning a new language, the most important thing is regular practice, because without it you forget everything very quickly"

	parts := SplitTranscriptText(text)

	assert.Equal(t, []string{
		"When we talk about learning a new language, the most important thing is regular practice",
		"because without it you forget everything very quickly",
	}, parts)
}

func TestSplitTranscriptText_ChunksLongTextWithoutCommas(t *testing.T) {
	words := strings.Fields(strings.Repeat("word ", 35))
	text := strings.Join(words, " ")

	parts := SplitTranscriptText(text)

	// 15 + 15 + 5 chunks, with the short tail merged back.
	assert.Len(t, parts, 2)
	assert.Len(t, strings.Fields(parts[0]), 15)
	assert.Len(t, strings.Fields(parts[1]), 20)
}

func TestSmartSplit_CommaMerge(t *testing.T) {
	parts := smartSplit("one two three, four five six, seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen")

	assert.Equal(t, []string{
		"one two three, four five six",
		"seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen",
	}, parts)
}

func TestBuildSegments_FiltersNonSpeech(t *testing.T) {
	raws := []RawSegment{
		{Start: 0, End: 5, Text: " [Music] "},
		{Start: 5, End: 10, Text: "This is a perfectly normal spoken sentence here."},
	}

	segments := BuildSegments(raws)

	assert.Len(t, segments, 1)
	assert.Equal(t, int64(0), segments[0].Id)
	assert.Equal(t, float64(5), segments[0].Start)
	assert.Equal(t, float64(10), segments[0].End)
	assert.Equal(t, "This is a perfectly normal spoken sentence here.", segments[0].Text)
}

func TestBuildSegments_ProportionalTimestamps(t *testing.T) {
	raws := []RawSegment{
		{
			Start: 0,
			End:   10,
			Text:  "Alpha beta gamma delta epsilon zeta eta theta. Iota kappa lambda mu nu xi omicron pi.",
		},
	}

	segments := BuildSegments(raws)

	assert.Len(t, segments, 2)
	assert.Equal(t, int64(0), segments[0].Id)
	assert.Equal(t, int64(1), segments[1].Id)
	assert.Equal(t, float64(0), segments[0].Start)
	assert.Equal(t, segments[0].End, segments[1].Start)
	assert.Greater(t, segments[0].End, float64(0))
	assert.Less(t, segments[0].End, float64(10))
	assert.InDelta(t, 10, segments[1].End, 1e-9)
}

func TestNewSegment_DerivedFields(t *testing.T) {
	seg := NewSegment(3, 61.25, 64.5, "hi there")

	assert.Equal(t, int64(61250), seg.StartMs)
	assert.Equal(t, int64(64500), seg.EndMs)
	assert.Equal(t, "01:01 - 01:04", seg.TimeRange)
	assert.Equal(t, "hi there", seg.Text)
	assert.Empty(t, seg.Translation)
}
