package validation

import (
	"regexp"
	"strings"
)

// Validation rule patterns and limits
var (
	EmailPattern = `^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`

	PasswordMinLength = 8

	TopicMinLength = 3
	TopicMaxLength = 200

	NotesMaxLength = 5000
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Email *regexp.Regexp
}{
	Email: regexp.MustCompile(EmailPattern),
}

// ValidTopic reports whether a consultation topic is acceptable.
func ValidTopic(topic string) bool {
	topic = strings.TrimSpace(topic)
	return len(topic) >= TopicMinLength && len(topic) <= TopicMaxLength
}

// ValidNotes reports whether consultant notes are within limits. Empty notes
// are allowed (clearing previous notes).
func ValidNotes(notes string) bool {
	return len(notes) <= NotesMaxLength
}

// ValidCoordinates reports whether a latitude/longitude pair is on Earth.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
