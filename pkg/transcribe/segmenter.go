package transcribe

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Target range for words per segment. Shorter pieces are easier to
	// shadow and repeat, so long API segments get split and tiny ones merged.
	MinWordsPerSegment = 6
	MaxWordsPerSegment = 15
)

// Markers the speech-to-text engine emits for non-speech audio, plus the
// usual hallucinated closing lines it produces over music.
var nonSpeechMarkers = []string{
	"[music]", "[música]", "[musica]", "[music playing]",
	"[applause]", "[aplausos]", "[clapping]",
	"[laughter]", "[laughing]", "[risadas]", "[risos]",
	"[silence]", "[silêncio]", "[silencio]",
	"[inaudible]", "[inaudível]", "[inaudivel]",
	"[noise]", "[ruído]", "[ruido]", "[background noise]",
	"[crosstalk]", "[cross talk]",
	"[foreign]", "[foreign language]", "[speaking foreign language]",
	"[blank_audio]", "[blank audio]", "[no audio]",
	"[sounds]", "[sound]", "[sound effect]",
	"[breathing]", "[respiração]", "[heavy breathing]",
	"[coughing]", "[tosse]", "[cough]",
	"[sighing]", "[suspiro]", "[sigh]",
	"[singing]", "[cantando]",
	"[humming]",
	"[phone ringing]", "[bell]",
	"[door]", "[footsteps]",
	"♪", "♫", "🎵", "🎶",
	"thank you.", "thanks for watching",
	"please subscribe", "like and subscribe",
	"see you next time", "bye bye",
}

var (
	bracketedRe   = regexp.MustCompile(`\[.*?\]`)
	symbolsOnlyRe = regexp.MustCompile(`^[♪♫🎵🎶\s.,!?]+$`)
	parenMarkerRe = regexp.MustCompile(`\([^)]*(?:music|applause|laughter|singing|humming)[^)]*\)`)
	parenRe       = regexp.MustCompile(`\([^)]*\)`)
)

// BuildSegments turns raw API segments into practice-sized segments.
// Non-speech spans are dropped, long spans are split into sentence-level
// parts with timestamps estimated from each part's share of characters.
func BuildSegments(raws []RawSegment) []Segment {
	segments := make([]Segment, 0, len(raws))
	var segmentId int64

	for _, raw := range raws {
		text := strings.TrimSpace(raw.Text)
		if IsNonSpeech(text) {
			continue
		}

		parts := SplitTranscriptText(text)
		if len(parts) > 1 {
			totalChars := 0
			for _, p := range parts {
				totalChars += utf8.RuneCountInString(p)
			}
			duration := raw.End - raw.Start
			currentTime := raw.Start

			for _, part := range parts {
				var partDuration float64
				if totalChars > 0 {
					partDuration = float64(utf8.RuneCountInString(part)) / float64(totalChars) * duration
				} else {
					partDuration = duration / float64(len(parts))
				}
				partEnd := currentTime + partDuration

				segments = append(segments, NewSegment(segmentId, currentTime, partEnd, part))
				segmentId++
				currentTime = partEnd
			}
		} else {
			segments = append(segments, NewSegment(segmentId, raw.Start, raw.End, text))
			segmentId++
		}
	}

	return segments
}

// SplitTranscriptText splits a transcript span into parts of
// MinWordsPerSegment..MaxWordsPerSegment words, cutting only at sentence
// punctuation where possible and merging fragments that fall short.
func SplitTranscriptText(text string) []string {
	parts := splitSentences(text)
	if len(parts) == 0 {
		parts = []string{text}
	}

	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if len(strings.Fields(part)) <= MaxWordsPerSegment {
			result = append(result, part)
		} else {
			result = append(result, smartSplit(part)...)
		}
	}

	// Merge small segments back together.
	var merged []string
	current := ""

	for _, part := range result {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if current == "" {
			current = part
			continue
		}

		combined := current + " " + part
		combinedWords := len(strings.Fields(combined))

		if combinedWords <= MaxWordsPerSegment {
			current = combined
		} else if len(strings.Fields(current)) >= MinWordsPerSegment {
			merged = append(merged, current)
			current = part
		} else if combinedWords <= MaxWordsPerSegment+5 {
			// Undersized head, allow going slightly over instead of
			// emitting a fragment.
			current = combined
		} else {
			merged = append(merged, current)
			current = part
		}
	}

	if current != "" {
		if len(strings.Fields(current)) < MinWordsPerSegment && len(merged) > 0 {
			merged[len(merged)-1] = merged[len(merged)-1] + " " + current
		} else {
			merged = append(merged, current)
		}
	}

	if len(merged) == 0 {
		return []string{text}
	}
	return merged
}

// splitSentences splits after sentence-ending punctuation followed by
// whitespace, keeping the punctuation with the preceding part.
func splitSentences(text string) []string {
	var parts []string
	start := 0
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) || i == 0 {
			continue
		}
		prev := runes[i-1]
		if prev != '.' && prev != '!' && prev != '?' {
			continue
		}
		if p := strings.TrimSpace(string(runes[start:i])); p != "" {
			parts = append(parts, p)
		}
		// Consume the whole whitespace run.
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		start = i
	}
	if start < len(runes) {
		if p := strings.TrimSpace(string(runes[start:])); p != "" {
			parts = append(parts, p)
		}
	}

	return parts
}

// smartSplit breaks an over-long part at commas, falling back to fixed
// word-count chunks when the comma pieces are still too long.
func smartSplit(text string) []string {
	words := strings.Fields(text)

	if strings.Contains(text, ",") {
		var parts []string
		for _, p := range strings.Split(text, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}

		var result []string
		current := ""
		for _, part := range parts {
			if current == "" {
				current = part
				continue
			}
			combined := current + ", " + part
			if len(strings.Fields(combined)) <= MaxWordsPerSegment {
				current = combined
			} else {
				result = append(result, current)
				current = part
			}
		}
		if current != "" {
			result = append(result, current)
		}

		allWithinLimit := true
		for _, p := range result {
			if len(strings.Fields(p)) > MaxWordsPerSegment {
				allWithinLimit = false
				break
			}
		}
		if allWithinLimit {
			return result
		}
	}

	var chunks []string
	for i := 0; i < len(words); i += MaxWordsPerSegment {
		end := i + MaxWordsPerSegment
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

// IsNonSpeech reports whether a transcript span is music, noise or another
// non-speech artifact rather than actual dialogue.
func IsNonSpeech(text string) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}

	textLower := strings.ToLower(strings.TrimSpace(text))

	for _, marker := range nonSpeechMarkers {
		if !strings.Contains(textLower, marker) {
			continue
		}
		// Mostly marker, little actual content left once punctuation goes.
		cleaned := strings.TrimSpace(strings.ReplaceAll(textLower, marker, ""))
		cleaned = strings.TrimSpace(stripPunctuation(cleaned))
		if utf8.RuneCountInString(cleaned) < 5 {
			return true
		}
	}

	withoutBrackets := strings.TrimSpace(bracketedRe.ReplaceAllString(text, ""))
	if utf8.RuneCountInString(withoutBrackets) < 3 {
		return true
	}

	if symbolsOnlyRe.MatchString(text) {
		return true
	}

	// A single word repeated over and over is music or filler.
	words := strings.Fields(textLower)
	if len(words) >= 4 {
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if len(unique) == 1 {
			return true
		}
	}

	if parenMarkerRe.MatchString(textLower) {
		withoutParens := strings.TrimSpace(parenRe.ReplaceAllString(text, ""))
		if utf8.RuneCountInString(withoutParens) < 5 {
			return true
		}
	}

	return false
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}
