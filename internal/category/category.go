package category

import (
	"errors"
	"strings"
	"time"
)

var ErrCategoryNotFound = errors.New("category not found")

// Category is a per-organization spending label. NormalizedName is the
// lowercased, whitespace-collapsed form used for matching; Aliases collects
// misspellings that resolved to this category so they keep resolving.
type Category struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	OrganizationID string    `json:"organization_id" gorm:"index:idx_org_normalized,unique"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalized_name" gorm:"index:idx_org_normalized,unique"`
	Aliases        []string  `json:"aliases,omitempty" gorm:"serializer:json"`
	UseCount       int64     `json:"use_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "transaction_categories"
}

// Normalize produces the matching form of a category name.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

// HasAlias reports whether the normalized form is a known alias.
func (c *Category) HasAlias(normalized string) bool {
	for _, alias := range c.Aliases {
		if alias == normalized {
			return true
		}
	}
	return false
}

// levenshtein is the classic two-row edit distance. Category names are
// short, so the quadratic cost never matters.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
