// internal/services/slug.go
package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planmarket/planmarket-backend/internal/models"
)

var (
	nonSlug   = regexp.MustCompile(`[^a-z0-9\-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

// MakeSlug generates a URL-safe base slug from a design title.
// Example: "Modern Lake House, 240m²" -> "modern-lake-house-240m"
func MakeSlug(title string) string {
	base := strings.ToLower(strings.TrimSpace(title))
	base = strings.ReplaceAll(base, " ", "-")
	base = nonSlug.ReplaceAllString(base, "")
	base = multiDash.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if base == "" {
		base = "design"
	}
	return base
}

// ensureUniqueSlug returns base, or base-1, base-2, ... until no other
// design row holds it. excludeID lets a title update keep its own slug.
func ensureUniqueSlug(db *gorm.DB, base string, excludeID uuid.UUID) (string, error) {
	slug := base
	for i := 0; ; i++ {
		if i > 0 {
			slug = fmt.Sprintf("%s-%d", base, i)
		}

		var count int64
		query := db.Model(&models.Design{}).Where("slug = ?", slug)
		if excludeID != uuid.Nil {
			query = query.Where("id != ?", excludeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
	}
}
