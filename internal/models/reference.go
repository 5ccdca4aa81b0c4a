package models

import (
	"fmt"
	"strings"
)

// Type is the top-level category of an experience.
type Type struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:300;uniqueIndex;not null" json:"name"`
	ValidSubtypes []Subtype `gorm:"many2many:type_valid_subtypes" json:"valid_subtypes,omitempty"`
}

// Subtype categorises an experience and decides whether it needs verification.
type Subtype struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	Name              string `gorm:"size:300;uniqueIndex;not null" json:"name"`
	Description       string `gorm:"type:text" json:"description"`
	NeedsVerification bool   `gorm:"not null" json:"needs_verification"`
}

// Section is a residence hall floor or community used for recognition.
type Section struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"size:300;not null" json:"name"`
	Order         string       `gorm:"size:64;index" json:"order"`
	AffiliationID *uint        `json:"affiliation_id"`
	Affiliation   *Affiliation `json:"affiliation,omitempty"`
}

// Affiliation is a building or organisation users belong to.
type Affiliation struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:300;uniqueIndex;not null" json:"name"`
}

// Keyword tags experiences for search.
type Keyword struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:300;uniqueIndex;not null" json:"name"`
}

var ordinalReplacements = []struct {
	word  string
	value int
}{
	{"thirteenth", 13},
	{"fourteenth", 14},
	{"fifteenth", 15},
	{"sixteenth", 16},
	{"seventeenth", 17},
	{"eighteenth", 18},
	{"eigthteenth", 18},
	{"nineteenth", 19},
	{"twentieth", 20},
	{"eleventh", 11},
	{"twelfth", 12},
	{"first", 1},
	{"second", 2},
	{"third", 3},
	{"fourth", 4},
	{"fifth", 5},
	{"sixth", 6},
	{"seventh", 7},
	{"eighth", 8},
	{"ninth", 9},
	{"tenth", 10},
}

// SectionOrderKey derives a sortable key from a section name by replacing
// ordinal words with zero-padded numbers ("Third Floor" -> "003 floor").
func SectionOrderKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, replacement := range ordinalReplacements {
		key = strings.ReplaceAll(key, replacement.word, fmt.Sprintf("%03d", replacement.value))
	}
	if len(key) > 64 {
		key = key[:64]
	}
	return key
}
