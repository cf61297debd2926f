// Package text converts between game text encodings and Go strings.
package text

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// DefaultEOS terminates every Huffman-compressed string.
const DefaultEOS byte = 0x55

// Diacritic pairs a marker glyph, which the game draws above the following
// letter, with the Unicode combining mark it stands for.
type Diacritic struct {
	Marker string `yaml:"marker"`
	Mark   string `yaml:"mark"`
}

// Charset maps game character codes to display strings.
type Charset struct {
	Name       string
	EOS        byte
	Glyphs     map[byte]string
	Diacritics []Diacritic

	order []glyph
}

type glyph struct {
	text string
	code byte
}

type charsetFile struct {
	Name       string         `yaml:"name"`
	EOS        int            `yaml:"eos"`
	Glyphs     map[int]string `yaml:"glyphs"`
	Diacritics []Diacritic    `yaml:"diacritics"`
}

// NewCharset builds a charset and its encoding order.
func NewCharset(name string, eos byte, glyphs map[byte]string, diacritics []Diacritic) *Charset {
	cs := &Charset{Name: name, EOS: eos, Glyphs: glyphs, Diacritics: diacritics}
	cs.index()
	return cs
}

// index sorts glyphs longest first so multi-character glyphs win over
// their prefixes. Ties go to the lower code.
func (cs *Charset) index() {
	cs.order = cs.order[:0]
	for code, s := range cs.Glyphs {
		if s == "" || code == cs.EOS {
			continue
		}
		cs.order = append(cs.order, glyph{text: s, code: code})
	}
	sort.Slice(cs.order, func(i, j int) bool {
		a, b := cs.order[i], cs.order[j]
		if len(a.text) != len(b.text) {
			return len(a.text) > len(b.text)
		}
		return a.code < b.code
	})
}

// Size is the number of character codes up to and including the highest
// mapped code or the EOS marker.
func (cs *Charset) Size() int {
	top := int(cs.EOS)
	for code := range cs.Glyphs {
		if int(code) > top {
			top = int(code)
		}
	}
	return top + 1
}

func englishGlyphs() map[byte]string {
	g := map[byte]string{0x00: " "}
	for i := 0; i < 10; i++ {
		g[byte(0x01+i)] = string(rune('0' + i))
	}
	for i := 0; i < 26; i++ {
		g[byte(0x0B+i)] = string(rune('A' + i))
		g[byte(0x25+i)] = string(rune('a' + i))
	}
	for i, s := range []string{"*", ".", ",", "?", "!", "/", "<", ">", ":", "-", "'", "\"", "%", "#", "&", "(", ")", "="} {
		g[byte(0x3F+i)] = s
	}
	for i, s := range []string{"{UL}", "{UR}", "{LL}", "{LR}"} {
		g[byte(0x51+i)] = s
	}
	for i, s := range []string{"\n", "{PAUSE}", "{NAME}", "{ITEM}", "{NUM}", "{CLEAR}", "{YESNO}", "{END}"} {
		g[byte(0x56+i)] = s
	}
	return g
}

// DefaultEnglish returns the built-in English charset.
func DefaultEnglish() *Charset {
	return NewCharset("english", DefaultEOS, englishGlyphs(), nil)
}

// DefaultEuropean returns the English charset extended with the accent
// markers and extra letters of the French and German releases.
func DefaultEuropean() *Charset {
	g := englishGlyphs()
	diacritics := []Diacritic{
		{Marker: "`", Mark: "\u0300"},
		{Marker: "´", Mark: "\u0301"},
		{Marker: "^", Mark: "\u0302"},
		{Marker: "¨", Mark: "\u0308"},
		{Marker: "¸", Mark: "\u0327"},
	}
	for i, d := range diacritics {
		g[byte(0x60+i)] = d.Marker
	}
	g[0x65] = "ß"
	g[0x66] = "«"
	g[0x67] = "»"
	return NewCharset("european", DefaultEOS, g, diacritics)
}

// ForRegion picks the built-in charset for a ROM region name.
func ForRegion(region string) *Charset {
	switch strings.ToUpper(region) {
	case "FR", "DE":
		return DefaultEuropean()
	default:
		// JP glyphs are not mapped and decode as hex escapes
		return DefaultEnglish()
	}
}

// LoadCharset reads a YAML charset definition.
func LoadCharset(path string) (*Charset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: charset %s", errs.ErrFileNotFound, path)
		}
		return nil, err
	}
	var f charsetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse charset %s: %w", path, err)
	}
	if f.EOS == 0 {
		f.EOS = int(DefaultEOS)
	}
	if f.EOS < 0 || f.EOS > 0xFF {
		return nil, fmt.Errorf("charset %s: eos %d out of range", path, f.EOS)
	}
	glyphs := make(map[byte]string, len(f.Glyphs))
	for code, s := range f.Glyphs {
		if code < 0 || code > 0xFF {
			return nil, fmt.Errorf("charset %s: code %d out of range", path, code)
		}
		glyphs[byte(code)] = s
	}
	return NewCharset(f.Name, byte(f.EOS), glyphs, f.Diacritics), nil
}

// Decode maps codes to text. Unmapped codes become {XX} hex escapes and
// marker glyphs are folded into the following letter.
func (cs *Charset) Decode(codes []byte) string {
	var sb strings.Builder
	for _, c := range codes {
		if s, ok := cs.Glyphs[c]; ok && c != cs.EOS {
			sb.WriteString(s)
			continue
		}
		fmt.Fprintf(&sb, "{%02X}", c)
	}
	return cs.ApplyDiacritics(sb.String())
}

// Encode maps text to codes without a terminator.
func (cs *Charset) Encode(s string) ([]byte, error) {
	if cs.order == nil {
		cs.index()
	}
	s = cs.RemoveDiacritics(s)
	out := make([]byte, 0, len(s))
	for pos := 0; pos < len(s); {
		matched := false
		for _, g := range cs.order {
			if strings.HasPrefix(s[pos:], g.text) {
				out = append(out, g.code)
				pos += len(g.text)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if code, ok := hexEscape(s[pos:]); ok {
			if code == cs.EOS {
				return nil, fmt.Errorf("charset %s: terminator escape at offset %d", cs.Name, pos)
			}
			out = append(out, code)
			pos += 4
			continue
		}
		r, _ := utf8.DecodeRuneInString(s[pos:])
		return nil, fmt.Errorf("charset %s has no code for %q at offset %d", cs.Name, r, pos)
	}
	return out, nil
}

func hexEscape(s string) (byte, bool) {
	if len(s) < 4 || s[0] != '{' || s[3] != '}' {
		return 0, false
	}
	v, err := strconv.ParseUint(s[1:3], 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(v), true
}

// ApplyDiacritics replaces marker+letter pairs with the composed letter.
func (cs *Charset) ApplyDiacritics(s string) string {
	if len(cs.Diacritics) == 0 {
		return s
	}
	var sb strings.Builder
	for pos := 0; pos < len(s); {
		composed := false
		for _, d := range cs.Diacritics {
			if !strings.HasPrefix(s[pos:], d.Marker) {
				continue
			}
			base, n := utf8.DecodeRuneInString(s[pos+len(d.Marker):])
			if n == 0 || !unicode.IsLetter(base) {
				continue
			}
			c := norm.NFC.String(string(base) + d.Mark)
			if utf8.RuneCountInString(c) != 1 {
				continue
			}
			sb.WriteString(c)
			pos += len(d.Marker) + n
			composed = true
			break
		}
		if composed {
			continue
		}
		r, n := utf8.DecodeRuneInString(s[pos:])
		sb.WriteRune(r)
		pos += n
	}
	return sb.String()
}

// RemoveDiacritics is the inverse of ApplyDiacritics: each accented letter
// becomes its marker glyph followed by the bare letter.
func (cs *Charset) RemoveDiacritics(s string) string {
	if len(cs.Diacritics) == 0 {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if _, plain := cs.lookupRune(r); plain {
			sb.WriteRune(r)
			continue
		}
		decomposed := []rune(norm.NFD.String(string(r)))
		if len(decomposed) == 2 {
			if marker, ok := cs.markerFor(string(decomposed[1])); ok {
				sb.WriteString(marker)
				sb.WriteRune(decomposed[0])
				continue
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (cs *Charset) lookupRune(r rune) (byte, bool) {
	s := string(r)
	for code, g := range cs.Glyphs {
		if g == s {
			return code, true
		}
	}
	return 0, false
}

func (cs *Charset) markerFor(mark string) (string, bool) {
	for _, d := range cs.Diacritics {
		if d.Mark == mark {
			return d.Marker, true
		}
	}
	return "", false
}
