package permissions

import (
	"os"
	"testing"
)

func TestParseOctalString(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"", DefaultFilePerms, false},
		{"644", 0o644, false},
		{"0644", 0o644, false},
		{"0o600", 0o600, false},
		{"rw-r--r--", DefaultFilePerms, true},
		{"1777", DefaultFilePerms, true},
		{"9", DefaultFilePerms, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOctalString(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOctalString(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseOctalString(%q) = %o, want %o", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatOctal(t *testing.T) {
	if got := FormatOctal(0o644); got != "0644" {
		t.Errorf("FormatOctal() = %s, want 0644", got)
	}
	if !IsExecutable(0o755) || IsExecutable(0o644) {
		t.Error("IsExecutable() mismatch")
	}
}

func TestDataFile(t *testing.T) {
	tests := []struct {
		perm uint16
		want os.FileMode
	}{
		{0o644, 0o644},
		{0o755, 0o644},
		{0o600, 0o600},
		{0o444, DefaultFilePerms},
		{0o000, DefaultFilePerms},
	}
	for _, tt := range tests {
		if got := DataFile(tt.perm); got != tt.want {
			t.Errorf("DataFile(%o) = %o, want %o", tt.perm, got, tt.want)
		}
	}
}
