package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTitle(t *testing.T) {
	assert.NoError(t, ValidateTitle("Inception"))
	assert.ErrorIs(t, ValidateTitle(""), ErrEmptyTitle)
	assert.ErrorIs(t, ValidateTitle("   "), ErrEmptyTitle)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://example.com/watch?v=1", false},
		{"http", "http://example.com/1", false},
		{"deep link", "tg://resolve?domain=somechannel", false},
		{"trailing space", " https://example.com/1 ", false},
		{"ftp", "ftp://example.com/1", true},
		{"javascript", "javascript:alert(1)", true},
		{"scheme only", "https://", true},
		{"bare text", "not a url", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ErrEmptyTitle))
	assert.True(t, IsValidationError(ErrInvalidURL))
	assert.False(t, IsValidationError(ErrNotFound))
	assert.False(t, IsValidationError(nil))
}
