package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Title    string `json:"title" validate:"required,min=3,max=10"`
	Email    string `json:"email" validate:"omitempty,email"`
	Duration int    `json:"duration" validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"valid", sample{Title: "Blue", Duration: 10}, ""},
		{"missing title", sample{Duration: 10}, "title is required"},
		{"short title", sample{Title: "ab", Duration: 10}, "title must be at least 3 characters"},
		{"long title", sample{Title: "abcdefghijk", Duration: 10}, "title must be at most 10 characters"},
		{"bad email", sample{Title: "Blue", Email: "nope", Duration: 10}, "email must be a valid email address"},
		{"zero duration", sample{Title: "Blue"}, "duration must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("Someone@Example.com"))
	assert.False(t, ValidateEmail("someone@"))
	assert.Equal(t, "someone@example.com", NormalizeEmail("  Someone@Example.com "))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("  a\x00bc "))
}
