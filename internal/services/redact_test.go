// internal/services/redact_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactContactInfo(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			"email and phone",
			"call me at 555-123-4567 or test@example.com",
			"call me at [phone removed] or [email removed]",
		},
		{
			"email only",
			"reach me on jane.doe+work@studio.co.uk please",
			"reach me on [email removed] please",
		},
		{
			"formatted phone with area code",
			"my number is (02) 555-1234",
			"my number is [phone removed]",
		},
		{
			"international phone",
			"whatsapp +1 555 123 4567 for details",
			"whatsapp [phone removed] for details",
		},
		{
			"url",
			"portfolio at https://example.com/work here",
			"portfolio at [link removed] here",
		},
		{
			"bare www url",
			"see www.example.com for more",
			"see [link removed] for more",
		},
		{
			"social handle",
			"dm me @arch_studio anytime",
			"dm me [handle removed] anytime",
		},
		{
			"clean text untouched",
			"Could you add a third bedroom on the upper floor?",
			"Could you add a third bedroom on the upper floor?",
		},
		{
			"dimensions untouched",
			"the plot is 240 by 160 meters",
			"the plot is 240 by 160 meters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactContactInfo(tt.content))
		})
	}
}

func TestRedactedToEmpty(t *testing.T) {
	assert.True(t, redactedToEmpty("[email removed]"))
	assert.True(t, redactedToEmpty("[phone removed] [email removed]"))
	assert.True(t, redactedToEmpty("  [link removed]  "))
	assert.False(t, redactedToEmpty("call me at [phone removed]"))
	assert.False(t, redactedToEmpty("hello"))
}

func TestSanitizeMessage(t *testing.T) {
	assert.Equal(t, "bold text", SanitizeMessage("<b>bold</b> text"))
	assert.Equal(t, "hi", SanitizeMessage("<script>alert(1)</script>hi"))
	assert.Equal(t, "plain", SanitizeMessage("  plain  "))
}
