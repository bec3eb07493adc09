package doctor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPythonVersionParsing(t *testing.T) {
	tests := []struct {
		in       string
		major    int
		minor    int
		parseErr bool
		rangeErr bool
	}{
		{in: "3.11", major: 3, minor: 11},
		{in: "3.10.0", major: 3, minor: 10},
		{in: "Python 3.12.1\n", major: 3, minor: 12},
		{in: "3.14.0", major: 3, minor: 14},
		{in: "3.9.1", major: 3, minor: 9, rangeErr: true},
		{in: "3.15.0", major: 3, minor: 15, rangeErr: true},
		{in: "2.7.18", major: 2, minor: 7, rangeErr: true},
		{in: "3", parseErr: true},
		{in: "", parseErr: true},
		{in: "abc.11", parseErr: true},
		{in: "3.xyz", parseErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			major, minor, err := parseMajorMinor(tt.in)
			if (err != nil) != tt.parseErr {
				t.Fatalf("parseMajorMinor(%q) err = %v; want error %v", tt.in, err, tt.parseErr)
			}
			if err == nil && (major != tt.major || minor != tt.minor) {
				t.Errorf("parseMajorMinor(%q) = %d.%d; want %d.%d", tt.in, major, minor, tt.major, tt.minor)
			}

			wantErr := tt.parseErr || tt.rangeErr
			if err := checkPythonVersion(tt.in); (err != nil) != wantErr {
				t.Errorf("checkPythonVersion(%q) = %v; want error %v", tt.in, err, wantErr)
			}
		})
	}
}

func TestCheckWritable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := checkWritable(dir); err != nil {
		t.Fatalf("checkWritable: %v", err)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("dir not created: %v", err)
	}

	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := checkWritable(filepath.Join(file, "sub")); err == nil {
		t.Error("expected error below a regular file")
	}
}
