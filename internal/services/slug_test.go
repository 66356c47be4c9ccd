// internal/services/slug_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Modern Lake House", "modern-lake-house"},
		{"Modern Lake House, 240m²", "modern-lake-house-240m"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"UPPER case TITLE", "upper-case-title"},
		{"already-a-slug", "already-a-slug"},
		{"double  spaces", "double-spaces"},
		{"symbols !@#$%^&*()", "symbols"},
		{"---dashes---", "dashes"},
		{"", "design"},
		{"日本語のみ", "design"},
		{"Studio #7 / Unit B", "studio-7-unit-b"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, MakeSlug(tt.title))
		})
	}
}
