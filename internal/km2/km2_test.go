package km2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"
)

type info struct {
	tag  string
	data string
}

// build assembles a layout file the way the compiler writes one.
func build(minor uint8, strs []string, infos []info) []byte {
	var buf bytes.Buffer
	buf.WriteString(magic)
	le := binary.LittleEndian
	binary.Write(&buf, le, struct {
		Major, Minor          uint8
		Strings, Infos, Rules uint16
	}{1, minor, uint16(len(strs)), uint16(len(infos)), 0})
	opts := []byte{1, 0, 0, 1}
	if minor >= 5 {
		opts = append(opts, 1)
	}
	buf.Write(opts)
	for _, s := range strs {
		units := utf16.Encode([]rune(s))
		binary.Write(&buf, le, uint16(len(units)))
		binary.Write(&buf, le, units)
	}
	for _, in := range infos {
		binary.Write(&buf, le, FourCC(in.tag))
		binary.Write(&buf, le, uint16(len(in.data)))
		buf.WriteString(in.data)
	}
	return buf.Bytes()
}

func TestDecodeInfo(t *testing.T) {
	data := build(5, []string{"ka", "က"}, []info{
		{"name", "Myanmar Test"},
		{"font", "Padauk"},
		{"desc", "test layout"},
	})
	kb, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if kb.FontFamily() != "Padauk" {
		t.Errorf("FontFamily = %q", kb.FontFamily())
	}
	if kb.Name() != "Myanmar Test" || kb.Description() != "test layout" {
		t.Errorf("Name/Description = %q/%q", kb.Name(), kb.Description())
	}
	if len(kb.Strings) != 2 || kb.Strings[1] != "က" {
		t.Errorf("Strings = %q", kb.Strings)
	}
	opts := kb.Header.Options
	if !opts.TrackCaps || opts.AutoBackspace || !opts.PositionBased || !opts.RightAlt {
		t.Errorf("Options = %+v", opts)
	}
}

func TestDecodeOldVersionHasNoInfo(t *testing.T) {
	data := build(3, []string{"x"}, nil)
	kb, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if kb.FontFamily() != "" || kb.Header.Options.RightAlt {
		t.Error("1.3 layout should have no info and no right-alt option")
	}
}

func TestFourCCByteOrder(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, InfoFont)
	if buf.String() != "tnof" {
		t.Errorf("font id on disk = %q, want %q", buf.String(), "tnof")
	}
}

func TestDecodeBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("MZ\x90\x00garbage")))
	if !errors.Is(err, ErrBadMagic) {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	data := build(5, nil, []info{{"font", "Padauk"}})
	_, err := Decode(bytes.NewReader(data[:len(data)-3]))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want unexpected EOF", err)
	}
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "layout.km2")
	if err := os.WriteFile(p, build(5, nil, []info{{"font", "Noto Sans Myanmar"}}), 0644); err != nil {
		t.Fatal(err)
	}
	kb, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if kb.FontFamily() != "Noto Sans Myanmar" {
		t.Errorf("FontFamily = %q", kb.FontFamily())
	}
	if kb.Translate('k') != "k" || kb.AppliesRules() {
		t.Errorf("Translate('k') = %q, AppliesRules = %v", kb.Translate('k'), kb.AppliesRules())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.km2")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load missing: %v", err)
	}
}
