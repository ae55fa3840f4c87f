package songs

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Field identifies a validated form field.
type Field int

const (
	FieldTitle Field = iota
	FieldKey
	FieldTempo
	FieldArtist
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldKey:
		return "key"
	case FieldTempo:
		return "tempo"
	case FieldArtist:
		return "artist"
	}
	return "unknown"
}

// validationOrder is the order Validate evaluates fields in, and so the order of messages.
var validationOrder = []Field{FieldTitle, FieldKey, FieldTempo, FieldArtist}

const (
	MaxTitleLength  = 100
	MaxArtistLength = 100

	MinRecommendedTempo = 40
	MaxRecommendedTempo = 300
)

// Validation messages shown to the user.
const (
	MsgTitleRequired  = "Title is required"
	MsgTitleTooLong   = "Title must be less than 100 characters"
	MsgKeyRequired    = "Key is required"
	MsgTempoNotNumber = "Tempo must be a number"
	MsgTempoTooSlow   = "Tempo seems too slow (minimum 40 BPM recommended)"
	MsgTempoTooFast   = "Tempo seems too fast (maximum 300 BPM recommended)"
	MsgArtistTooLong  = "Artist name must be less than 100 characters"
)

// StandardKeys are the pitch names offered when choosing a key. Other keys are accepted.
var StandardKeys = []string{
	"C", "C#", "Db", "D", "D#", "Eb", "E", "F", "F#", "Gb", "G", "G#", "Ab", "A", "A#", "Bb", "B",
}

const keySuggestionThreshold = 0.6

// ValidationError lists every rule the submitted fields broke.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "invalid song: " + strings.Join(e.Messages, "; ")
}

func validateField(field Field, fields Fields) []string {
	switch field {
	case FieldTitle:
		title := strings.TrimSpace(fields.Title)
		if title == "" {
			return []string{MsgTitleRequired}
		}
		if utf8.RuneCountInString(title) > MaxTitleLength {
			return []string{MsgTitleTooLong}
		}
	case FieldKey:
		if strings.TrimSpace(fields.Key) == "" {
			return []string{MsgKeyRequired}
		}
	case FieldTempo:
		if fields.Tempo == "" {
			return nil
		}
		bpm, err := strconv.Atoi(fields.Tempo)
		if err != nil {
			return []string{MsgTempoNotNumber}
		}
		if bpm < MinRecommendedTempo {
			return []string{MsgTempoTooSlow}
		}
		if bpm > MaxRecommendedTempo {
			return []string{MsgTempoTooFast}
		}
	case FieldArtist:
		if utf8.RuneCountInString(fields.Artist) > MaxArtistLength {
			return []string{MsgArtistTooLong}
		}
	}
	return nil
}

// ParseTempo converts tempo text to BPM. Unparseable or out-of-range input yields 0, meaning unset.
func ParseTempo(text string) int16 {
	bpm, err := strconv.Atoi(text)
	if err != nil || bpm < 0 || bpm > math.MaxInt16 {
		return 0
	}
	return int16(bpm)
}

// IsStandardKey reports whether key is one of StandardKeys, compared exactly.
func IsStandardKey(key string) bool {
	for _, k := range StandardKeys {
		if k == key {
			return true
		}
	}
	return false
}

// SuggestKey proposes the closest standard key for a non-standard one. It never rejects input.
func SuggestKey(key string) (string, bool) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || IsStandardKey(trimmed) {
		return "", false
	}

	normalized := normalizeKeyName(trimmed)
	if IsStandardKey(normalized) {
		return normalized, true
	}

	var (
		best      string
		bestScore float64
		metric    = metrics.NewLevenshtein()
	)
	for _, candidate := range StandardKeys {
		score := strutil.Similarity(normalized, candidate, metric)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if bestScore < keySuggestionThreshold {
		return "", false
	}
	return best, true
}

// normalizeKeyName turns spellings like "f sharp", "b♭" or "eb" into "F#", "Bb" and "Eb".
func normalizeKeyName(key string) string {
	key = strings.ToLower(key)
	replacer := strings.NewReplacer(
		"♯", "#",
		"♭", "b",
		" sharp", "#",
		"-sharp", "#",
		"sharp", "#",
		" flat", "b",
		"-flat", "b",
		"flat", "b",
		" ", "",
	)
	key = replacer.Replace(key)
	if key == "" {
		return key
	}
	r, size := utf8.DecodeRuneInString(key)
	return string(unicode.ToUpper(r)) + key[size:]
}
