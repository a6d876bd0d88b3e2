package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"proof/internal/apperrors"
)

const (
	MinAgeLevel              = 1
	MaxAgeLevel              = 5
	DefaultAgeLevel          = 3
	DefaultMaxResponseLength = 1000
)

type KidSafeSettings struct {
	ID                      uint      `gorm:"primaryKey" json:"-"`
	Enabled                 bool      `gorm:"not null" json:"enabled"`
	ContentFilter           bool      `gorm:"not null" json:"content_filter"`
	EducationalMode         bool      `gorm:"not null" json:"educational_mode"`
	MaxResponseLength       int       `gorm:"not null" json:"max_response_length"`
	AllowedTopics           []string  `gorm:"type:text;serializer:json" json:"allowed_topics"`
	BlockedWords            []string  `gorm:"type:text;serializer:json" json:"blocked_words"`
	AgeAppropriateLevel     int       `gorm:"not null" json:"age_appropriate_level"`
	RequireParentalApproval bool      `gorm:"not null" json:"require_parental_approval"`
	UpdatedAt               time.Time `json:"-"`
}

func DefaultKidSafeSettings() KidSafeSettings {
	return KidSafeSettings{
		ID:                  1,
		ContentFilter:       true,
		MaxResponseLength:   DefaultMaxResponseLength,
		AllowedTopics:       []string{},
		BlockedWords:        []string{},
		AgeAppropriateLevel: DefaultAgeLevel,
	}
}

func (k KidSafeSettings) Validate() error {
	if k.AgeAppropriateLevel < MinAgeLevel || k.AgeAppropriateLevel > MaxAgeLevel {
		return apperrors.Validation("age appropriate level must be between %d and %d", MinAgeLevel, MaxAgeLevel)
	}
	if k.MaxResponseLength <= 0 {
		return apperrors.Validation("max response length must be positive")
	}
	return nil
}

// Normalized trims, lowercases and de-duplicates the topic and word sets,
// keeping first-seen order.
func (k KidSafeSettings) Normalized() KidSafeSettings {
	k.AllowedTopics = normalizeSet(k.AllowedTopics)
	k.BlockedWords = normalizeSet(k.BlockedWords)
	return k
}

// FiltersContent reports whether prompts are subject to the content filter.
func (k KidSafeSettings) FiltersContent() bool {
	return k.Enabled && k.ContentFilter
}

// BlockedWordIn returns the first blocked word contained in text, compared
// case-insensitively.
func (k KidSafeSettings) BlockedWordIn(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, w := range k.BlockedWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if strings.Contains(lower, w) {
			return w, true
		}
	}
	return "", false
}

// Truncate cuts text to MaxResponseLength characters when kid-safe mode is on.
func (k KidSafeSettings) Truncate(text string) string {
	if !k.Enabled || k.MaxResponseLength <= 0 {
		return text
	}
	if utf8.RuneCountInString(text) <= k.MaxResponseLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:k.MaxResponseLength])
}

func normalizeSet(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ContentCheckArgs is the payload of check_kidsafe_content.
type ContentCheckArgs struct {
	Prompt string `json:"prompt"`
}
