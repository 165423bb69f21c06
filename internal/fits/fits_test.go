package fits

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func card(key, value, comment string) string {
	c := fmt.Sprintf("%-8s= %20s", key, value)
	if comment != "" {
		c += " / " + comment
	}
	return fmt.Sprintf("%-80s", c)
}

// buildFITS assembles a minimal single-HDU file: the given cards, an END
// card, block padding, and one data block of zeros.
func buildFITS(t *testing.T, cards ...string) string {
	t.Helper()
	var sb strings.Builder
	for _, c := range cards {
		sb.WriteString(c)
	}
	sb.WriteString(fmt.Sprintf("%-80s", "END"))
	for sb.Len()%blockSize != 0 {
		sb.WriteString(strings.Repeat(" ", cardSize))
	}

	data := append([]byte(sb.String()), make([]byte, blockSize)...)
	path := filepath.Join(t.TempDir(), "test.fits")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write test fits: %v", err)
	}
	return path
}

func standardCards() []string {
	return []string{
		card("SIMPLE", "T", "conforms to FITS standard"),
		card("BITPIX", "16", ""),
		card("NAXIS", "2", ""),
		card("NAXIS1", "4000", ""),
		card("NAXIS2", "3000", ""),
		card("SECPIX1", "1.0", "arcsec/pixel"),
		card("SECPIX2", "1.0", ""),
		card("RA", "10.684708", ""),
		card("DEC", "41.268750", ""),
		card("OBJECT", "'M 31    '", "target"),
		card("EXPTIME", "300.0", ""),
	}
}

func TestReadHeaderTypes(t *testing.T) {
	path := buildFITS(t, standardCards()...)

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if v, _ := h.Get("SIMPLE"); v != true {
		t.Fatalf("expected SIMPLE=true, got %v", v)
	}
	if v, _ := h.Get("NAXIS1"); v != int64(4000) {
		t.Fatalf("expected NAXIS1 int64 4000, got %v (%T)", v, v)
	}
	if v, _ := h.Get("SECPIX1"); v != float64(1.0) {
		t.Fatalf("expected SECPIX1 float 1.0, got %v (%T)", v, v)
	}
	if v, _ := h.Get("OBJECT"); v != "M 31" {
		t.Fatalf("expected OBJECT 'M 31' with padding stripped, got %q", v)
	}
	if v, _ := h.Get("RA"); v != float64(10.684708) {
		t.Fatalf("expected RA 10.684708, got %v", v)
	}
}

func TestReadHeaderKeyOrder(t *testing.T) {
	path := buildFITS(t, standardCards()...)
	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	keys := h.Keys()
	if keys[0] != "SIMPLE" || keys[len(keys)-1] != "EXPTIME" {
		t.Fatalf("expected file order preserved, got %v", keys)
	}
}

func TestReadHeaderMapUnreadable(t *testing.T) {
	if m := ReadHeaderMap(filepath.Join(t.TempDir(), "missing.fits")); len(m) != 0 {
		t.Fatalf("expected empty map for missing file, got %v", m)
	}

	notFits := filepath.Join(t.TempDir(), "notes.txt")
	os.WriteFile(notFits, []byte("this is not a fits file"), 0o644)
	if m := ReadHeaderMap(notFits); len(m) != 0 {
		t.Fatalf("expected empty map for non-FITS file, got %v", m)
	}
}

func TestHeaderAccessors(t *testing.T) {
	h := NewHeader()
	h.Set("GAIN", int64(100), "")
	h.Set("CCD-TEMP", -9.8, "")
	h.Set("INSTRUME", "ASI533MC", "")

	if f, ok := h.Float("GAIN"); !ok || f != 100 {
		t.Fatalf("Float should widen integers, got %v %v", f, ok)
	}
	if n, ok := h.Int("CCD-TEMP"); !ok || n != -9 {
		t.Fatalf("Int should truncate floats, got %v %v", n, ok)
	}
	if s, ok := h.Str("INSTRUME"); !ok || s != "ASI533MC" {
		t.Fatalf("unexpected Str result %q %v", s, ok)
	}
	if _, ok := h.Float("MISSING"); ok {
		t.Fatalf("missing key must report absent")
	}
}

func TestPatchHeaderUpdateAndAppend(t *testing.T) {
	path := buildFITS(t, standardCards()...)

	before, _ := os.ReadFile(path)
	dataBefore := before[len(before)-blockSize:]

	pairs := []KeyValue{
		{Name: "OBJECT", Value: "M 32"},
		{Name: "TELESCOP", Value: "SV503 70ED"},
	}
	if err := PatchHeader(path, pairs); err != nil {
		t.Fatalf("patch failed: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if v, _ := h.Get("OBJECT"); v != "M 32" {
		t.Fatalf("expected OBJECT updated, got %v", v)
	}
	if v, _ := h.Get("TELESCOP"); v != "SV503 70ED" {
		t.Fatalf("expected TELESCOP appended, got %v", v)
	}
	// Untouched cards survive.
	if v, _ := h.Get("NAXIS1"); v != int64(4000) {
		t.Fatalf("expected NAXIS1 untouched, got %v", v)
	}

	after, _ := os.ReadFile(path)
	if !bytes.Equal(after[len(after)-blockSize:], dataBefore) {
		t.Fatalf("data block must be preserved")
	}
}

func TestPatchHeaderGrowsBlocks(t *testing.T) {
	// 31 value cards + END leaves little room in the first block;
	// appending ten more forces a second header block.
	cards := []string{card("SIMPLE", "T", "")}
	for i := 0; i < 30; i++ {
		cards = append(cards, card(fmt.Sprintf("KEY%d", i), fmt.Sprint(i), ""))
	}
	path := buildFITS(t, cards...)
	before, _ := os.ReadFile(path)
	dataBefore := before[len(before)-blockSize:]

	var pairs []KeyValue
	for i := 0; i < 10; i++ {
		pairs = append(pairs, KeyValue{Name: fmt.Sprintf("NEW%d", i), Value: "x"})
	}
	if err := PatchHeader(path, pairs); err != nil {
		t.Fatalf("patch failed: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if v, _ := h.Get("NEW9"); v != "x" {
		t.Fatalf("expected appended card in grown header, got %v", v)
	}

	after, _ := os.ReadFile(path)
	if len(after) <= len(before) {
		t.Fatalf("expected file to grow by a block")
	}
	if !bytes.Equal(after[len(after)-blockSize:], dataBefore) {
		t.Fatalf("data block must be preserved across rewrite")
	}
}

func TestReadHeaderNoEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trunc.fits")
	block := fmt.Sprintf("%-2880s", card("SIMPLE", "T", ""))
	os.WriteFile(path, []byte(block[:blockSize]), 0o644)

	if _, err := ReadHeader(path); err == nil {
		t.Fatalf("expected error for header without END")
	}
}
