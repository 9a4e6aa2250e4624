// Package km2 reads compiled KeyMagic layout files.
package km2

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf16"
)

// File layout (all integers little-endian):
// ┌────────┬───────┬───────┬─────────┬───────┬───────┬─────────┐
// │ "KMKL" │ major │ minor │ strings │ infos │ rules │ options │
// │ 4 bytes│ u8    │ u8    │ u16     │ u16   │ u16   │ 5 bytes │
// └────────┴───────┴───────┴─────────┴───────┴───────┴─────────┘
// then the string table (u16 length + UTF-16 units each), the info records
// (u32 id + u16 size + bytes each), then the rules.
//
// Info records and the right-alt option appear from version 1.4 and 1.5
// respectively.

const magic = "KMKL"

// ErrBadMagic is returned when the input is not a layout file.
var ErrBadMagic = errors.New("not a km2 layout file")

// Info record ids.
var (
	InfoName        = FourCC("name")
	InfoDescription = FourCC("desc")
	InfoFont        = FourCC("font")
	InfoIcon        = FourCC("icon")
	InfoHotkey      = FourCC("htky")
)

// FourCC packs a four-letter tag the way the layout compiler does: the first
// letter is the most significant byte.
func FourCC(tag string) uint32 {
	var v uint32
	for i := 0; i < 4 && i < len(tag); i++ {
		v = v<<8 | uint32(tag[i])
	}
	return v
}

// Options are the layout's behaviour flags.
type Options struct {
	TrackCaps     bool
	AutoBackspace bool
	Eat           bool
	PositionBased bool
	RightAlt      bool
}

// Header is the fixed-size start of a layout file.
type Header struct {
	Major, Minor uint8
	Strings      uint16
	Infos        uint16
	Rules        uint16
	Options      Options
}

// Keyboard is a decoded layout.
type Keyboard struct {
	Header  Header
	Strings []string
	Info    map[uint32][]byte
}

// Load decodes the layout file at path.
func Load(path string) (*Keyboard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer f.Close()
	kb, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return kb, nil
}

// Decode reads a layout from r. Rules are not decoded.
func Decode(r io.Reader) (*Keyboard, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	kb := &Keyboard{Header: h, Info: make(map[uint32][]byte)}

	for i := 0; i < int(h.Strings); i++ {
		s, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("read string %d: %w", i, err)
		}
		kb.Strings = append(kb.Strings, s)
	}

	for i := 0; i < int(h.Infos); i++ {
		id, data, err := readInfo(r)
		if err != nil {
			return nil, fmt.Errorf("read info %d: %w", i, err)
		}
		kb.Info[id] = data
	}
	return kb, nil
}

func readHeader(r io.Reader) (Header, error) {
	var h Header
	tag := make([]byte, 4)
	if _, err := io.ReadFull(r, tag); err != nil {
		return h, err
	}
	if string(tag) != magic {
		return h, ErrBadMagic
	}

	var fixed struct {
		Major, Minor uint8
		Strings      uint16
		Infos        uint16
		Rules        uint16
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return h, err
	}
	h.Major, h.Minor = fixed.Major, fixed.Minor
	h.Strings, h.Rules = fixed.Strings, fixed.Rules
	if h.hasInfo() {
		h.Infos = fixed.Infos
	}

	nopts := 4
	if h.hasRightAlt() {
		nopts = 5
	}
	opts := make([]byte, nopts)
	if _, err := io.ReadFull(r, opts); err != nil {
		return h, fmt.Errorf("options: %w", err)
	}
	h.Options = Options{
		TrackCaps:     opts[0] != 0,
		AutoBackspace: opts[1] != 0,
		Eat:           opts[2] != 0,
		PositionBased: opts[3] != 0,
	}
	if nopts == 5 {
		h.Options.RightAlt = opts[4] != 0
	}
	return h, nil
}

func (h Header) hasInfo() bool {
	return h.Major > 1 || h.Minor >= 4
}

func (h Header) hasRightAlt() bool {
	return h.Major > 1 || h.Minor >= 5
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	units := make([]uint16, n)
	if err := binary.Read(r, binary.LittleEndian, units); err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

func readInfo(r io.Reader) (uint32, []byte, error) {
	var id uint32
	if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
		return 0, nil, err
	}
	var size uint16
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return 0, nil, err
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return 0, nil, err
	}
	return id, data, nil
}

// Name returns the layout's display name, or "".
func (k *Keyboard) Name() string {
	return string(k.Info[InfoName])
}

// Description returns the layout description, or "".
func (k *Keyboard) Description() string {
	return string(k.Info[InfoDescription])
}

// FontFamily returns the font the layout asks to be shown in, or "".
func (k *Keyboard) FontFamily() string {
	return string(k.Info[InfoFont])
}

// AppliesRules reports whether Translate runs the layout's rules. It does
// not yet, and the tester says so.
func (k *Keyboard) AppliesRules() bool {
	return false
}

// Translate maps a typed key to the text the layout produces. Rules are
// not executed, so keys come through unchanged.
func (k *Keyboard) Translate(key rune) string {
	return string(key)
}
