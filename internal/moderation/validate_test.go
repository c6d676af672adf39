package moderation

import (
	"strings"
	"testing"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"normal message", "hello there", false},
		{"empty is fine here", "", false},
		{"at char limit", strings.Repeat("a", MaxTextChars), false},
		{"over byte limit", strings.Repeat("a", MaxTextBytes+1), true},
		{"over char limit", strings.Repeat("a", MaxTextChars+1), true},
		{"invalid utf8", string([]byte{0xff, 0xfe, 0xfd}), true},
		{"multibyte ok", strings.Repeat("é", 1000), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateText(len=%d) error = %v, wantErr %v", len(tt.input), err, tt.wantErr)
			}
		})
	}
}
