package logging

import "testing"

func TestNew(t *testing.T) {
	cases := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "json", false},
		{"DEBUG", "console", false},
		{"warn", "", false},
		{"loud", "json", true},
		{"info", "xml", true},
	}

	for _, tc := range cases {
		logger, err := New(tc.level, tc.format)
		if (err != nil) != tc.wantErr {
			t.Errorf("New(%q, %q): expected error=%v, got %v", tc.level, tc.format, tc.wantErr, err)
			continue
		}
		if logger != nil {
			logger.Sync()
		}
	}
}
