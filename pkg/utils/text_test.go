package utils

import "testing"

func TestStripQuotes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"Bob"`, "Bob"},
		{`'Bob'`, "Bob"},
		{"“Bob the Brave”", "Bob the Brave"},
		{`"Bob`, `"Bob`},
		{`Bob`, `Bob`},
		{`"`, `"`},
		{`""`, ""},
	}

	for _, tt := range tests {
		if got := StripQuotes(tt.in); got != tt.want {
			t.Errorf("StripQuotes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		amount  string
		unit    string
		wantErr bool
	}{
		{"400xp", "400", "xp", false},
		{"400 XP", "400", "xp", false},
		{"12.5gold", "12.5", "gold", false},
		{"250", "250", "", false},
		{"۴۰۰xp", "400", "xp", false},
		{"-5gold", "-5", "gold", false},
		{"xp", "", "", true},
		{"4x4", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			amount, unit, err := ParseAmount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAmount(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if amount.String() != tt.amount || unit != tt.unit {
				t.Errorf("ParseAmount(%q) = %s %q, want %s %q", tt.in, amount, unit, tt.amount, tt.unit)
			}
		})
	}
}
