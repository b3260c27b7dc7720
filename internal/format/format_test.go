package format

import (
	"bytes"
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestFormatString(t *testing.T) {
	tests := []struct {
		format   Format
		expected string
	}{
		{FormatWebP, "webp"},
		{FormatJPEG, "jpg"},
		{FormatPNG, "png"},
		{FormatUnknown, "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.format.String(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		expected Format
	}{
		{"webp", FormatWebP},
		{".JPEG", FormatJPEG},
		{"jpg", FormatJPEG},
		{"png", FormatPNG},
		{"tiff", FormatUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Parse(tc.name); got != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestMIMEType(t *testing.T) {
	tests := []struct {
		format   Format
		expected string
	}{
		{FormatWebP, "image/webp"},
		{FormatJPEG, "image/jpeg"},
		{FormatPNG, "image/png"},
	}

	for _, tc := range tests {
		t.Run(tc.format.String(), func(t *testing.T) {
			got, err := tc.format.MIMEType()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}

	if _, err := FormatUnknown.MIMEType(); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRankPrefersWebP(t *testing.T) {
	if Rank(FormatWebP) >= Rank(FormatJPEG) {
		t.Error("expected webp to rank before jpg")
	}
	if Rank(FormatPNG) != len(PreferredOrder) {
		t.Errorf("expected formats outside the preference list to rank last, got %d", Rank(FormatPNG))
	}
}

func TestDecodable(t *testing.T) {
	for _, f := range []Format{FormatWebP, FormatJPEG, FormatPNG, FormatGIF} {
		if !f.Decodable() {
			t.Errorf("expected %s to be decodable", f)
		}
	}
	if FormatAVIF.Decodable() || FormatUnknown.Decodable() {
		t.Error("expected avif and unknown to be rejected")
	}
}

func TestDetectFileIgnoresExtension(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(12, 8, color.NRGBA{R: 200, A: 255})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	// JPEG bytes behind a misleading extension.
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	got, err := DetectFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != FormatJPEG {
		t.Errorf("expected jpg, got %s", got)
	}

	textPath := filepath.Join(dir, "notes.jpg")
	if err := os.WriteFile(textPath, []byte("not an image"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	got, err = DetectFile(textPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != FormatUnknown {
		t.Errorf("expected unknown, got %s", got)
	}
}

func TestFileInspectorDimensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.png")
	if err := imaging.Save(imaging.New(40, 30, color.White), path); err != nil {
		t.Fatalf("failed to save fixture: %v", err)
	}

	var inspector Inspector = FileInspector{}
	w, h, err := inspector.Dimensions(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 40 || h != 30 {
		t.Errorf("expected 40x30, got %dx%d", w, h)
	}

	f, err := inspector.Format(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != FormatPNG {
		t.Errorf("expected png, got %s", f)
	}

	if _, _, err := inspector.Dimensions(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFormatTextEncoding(t *testing.T) {
	data, err := json.Marshal(map[string]Format{"f": FormatWebP})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `{"f":"webp"}` {
		t.Errorf("unexpected json %s", data)
	}

	var decoded map[string]Format
	if err := json.Unmarshal([]byte(`{"f":"jpeg"}`), &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded["f"] != FormatJPEG {
		t.Errorf("expected jpg, got %s", decoded["f"])
	}
}
