package util

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{90*time.Second + 250*time.Millisecond, "00:01:30.250"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04.000"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := FormatSeconds(1.5); got != "1.500" {
		t.Errorf("FormatSeconds(1.5) = %q", got)
	}
	if got := FormatSeconds(0); got != "0.000" {
		t.Errorf("FormatSeconds(0) = %q", got)
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30/1"); got != 30 {
		t.Errorf("ParseFrameRate(30/1) = %v", got)
	}
	if got := ParseFrameRate("30000/1001"); math.Abs(got-29.97) > 0.01 {
		t.Errorf("ParseFrameRate(30000/1001) = %v", got)
	}
	for _, bad := range []string{"", "30", "a/b", "30/0"} {
		if got := ParseFrameRate(bad); got != 0 {
			t.Errorf("ParseFrameRate(%q) = %v, want 0", bad, got)
		}
	}
}

func TestTempSibling(t *testing.T) {
	got := TempSibling("/tmp/videos/out.mp4")
	if got != "/tmp/videos/.out.mp4.partial" {
		t.Errorf("TempSibling = %q", got)
	}
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if FileExists(path) {
		t.Error("FileExists true for missing file")
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("FileExists false for existing file")
	}
}
