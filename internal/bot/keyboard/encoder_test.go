package keyboard_test

import (
	"strings"
	"testing"

	"github.com/Proton-105/queue-bot/internal/bot/keyboard"
)

func TestEncodeCallback(t *testing.T) {
	tests := []struct {
		name      string
		unique    string
		data      string
		want      string
		wantError bool
	}{
		{
			name:   "quick reply",
			unique: keyboard.PrefixQuickReply,
			data:   "add-queue",
			want:   "qr:add-queue",
		},
		{
			name:   "without data",
			unique: "menu",
			data:   "",
			want:   "menu",
		},
		{
			name:      "payload exceeds limit",
			unique:    keyboard.PrefixPostback,
			data:      strings.Repeat("x", keyboard.CallbackDataLimitBytes-2),
			wantError: true,
		},
		{
			name:      "exceeds limit",
			unique:    strings.Repeat("x", keyboard.CallbackDataLimitBytes+1),
			data:      "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyboard.EncodeCallback(tt.unique, tt.data)
			if tt.wantError {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("EncodeCallback() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeCallback(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantUnique string
		wantData   string
		wantErr    bool
	}{
		{
			name:       "unique and data",
			input:      "pb:confirm-photo",
			wantUnique: "pb",
			wantData:   "confirm-photo",
		},
		{
			name:       "only unique",
			input:      "menu",
			wantUnique: "menu",
			wantData:   "",
		},
		{
			name:       "telebot unique marker",
			input:      "\fqr:quit",
			wantUnique: "qr",
			wantData:   "quit",
		},
		{
			name:       "multiple separators",
			input:      "action:part1:part2",
			wantUnique: "action",
			wantData:   "part1:part2",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unique, data, err := keyboard.DecodeCallback(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if unique != tt.wantUnique || data != tt.wantData {
				t.Errorf("DecodeCallback() = (%q, %q), want (%q, %q)", unique, data, tt.wantUnique, tt.wantData)
			}
		})
	}
}
