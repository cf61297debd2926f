// Package asm reads and writes the assembly-style project files that index
// the game's binary side-files.
package asm

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/logging"
)

// ElementKind classifies a data element.
type ElementKind int

const (
	ElemByte ElementKind = iota
	ElemSymbol
	ElemInclude
)

// Include is a file pulled in by an include or incbin directive.
type Include struct {
	Path   string
	Binary bool
}

// Element is one unit of data: a byte, a symbolic reference, or an
// included file.
type Element struct {
	Kind    ElementKind
	Value   byte
	Symbol  string
	Width   int
	Include Include
}

// File is a parsed assembly file with a read cursor.
type File struct {
	Path     string
	elements []Element
	labels   map[string]int
	order    []string
	at       map[int][]string
	pos      int
	logger   hclog.Logger
}

// Open parses the file at path.
func Open(path string, logger hclog.Logger) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errs.ErrFileNotFound, path)
		}
		return nil, err
	}
	return Parse(path, data, logger)
}

// Parse parses assembly source. name is used in error messages.
func Parse(name string, src []byte, logger hclog.Logger) (*File, error) {
	f := &File{
		Path:   name,
		labels: make(map[string]int),
		at:     make(map[int][]string),
		logger: logging.OrNull(logger).Named("asm"),
	}
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for line := 1; sc.Scan(); line++ {
		if err := f.parseLine(sc.Text()); err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", errs.ErrMalformedDirective, name, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	f.logger.Trace("📜 parsed", "file", name, "elements", len(f.elements), "labels", len(f.labels))
	return f, nil
}

func stripComment(s string) string {
	inQuote := false
	for i, r := range s {
		switch r {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return s[:i]
			}
		}
	}
	return s
}

func (f *File) parseLine(raw string) error {
	line := strings.TrimRight(stripComment(raw), " \t\r")
	if line == "" {
		return nil
	}
	if line[0] != ' ' && line[0] != '\t' {
		end := strings.IndexAny(line, " \t:")
		if end < 0 {
			end = len(line)
		}
		label := line[:end]
		if !isSymbol(label) {
			return fmt.Errorf("bad label %q", label)
		}
		f.addLabel(label)
		line = strings.TrimPrefix(line[end:], ":")
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	instr, operand := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		instr, operand = line[:i], strings.TrimSpace(line[i+1:])
	}
	name, width, _ := strings.Cut(strings.ToLower(instr), ".")

	switch name {
	case "dc":
		w, err := widthOf(width)
		if err != nil {
			return err
		}
		return f.parseDc(w, operand)
	case "dcb":
		w, err := widthOf(width)
		if err != nil {
			return err
		}
		return f.parseDcb(w, operand)
	case "include", "incbin":
		p, err := unquote(operand)
		if err != nil {
			return err
		}
		f.elements = append(f.elements, Element{Kind: ElemInclude, Include: Include{Path: p, Binary: name == "incbin"}})
		return nil
	case "align", "even":
		return nil
	default:
		return fmt.Errorf("unknown instruction %q", instr)
	}
}

func (f *File) addLabel(label string) {
	if _, dup := f.labels[label]; dup {
		f.logger.Warn("⚠️ duplicate label, keeping first", "file", f.Path, "label", label)
		return
	}
	f.labels[label] = len(f.elements)
	f.order = append(f.order, label)
	f.at[len(f.elements)] = append(f.at[len(f.elements)], label)
}

func widthOf(s string) (int, error) {
	switch s {
	case "b":
		return 1, nil
	case "w", "":
		return 2, nil
	case "l":
		return 4, nil
	default:
		return 0, fmt.Errorf("bad width %q", s)
	}
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected quoted path, got %q", s)
	}
	return s[1 : len(s)-1], nil
}

func splitOperands(s string) []string {
	var out []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

func (f *File) parseDc(width int, operand string) error {
	if operand == "" {
		return fmt.Errorf("dc without operands")
	}
	for _, op := range splitOperands(operand) {
		if width == 1 && len(op) >= 2 && op[0] == '"' && op[len(op)-1] == '"' {
			for _, c := range []byte(op[1 : len(op)-1]) {
				f.elements = append(f.elements, Element{Kind: ElemByte, Value: c})
			}
			continue
		}
		if v, err := ParseNumber(op); err == nil {
			f.appendValue(v, width)
			continue
		}
		if !isSymbol(op) {
			return fmt.Errorf("bad operand %q", op)
		}
		f.elements = append(f.elements, Element{Kind: ElemSymbol, Symbol: op, Width: width})
	}
	return nil
}

func (f *File) parseDcb(width int, operand string) error {
	ops := splitOperands(operand)
	if len(ops) != 2 {
		return fmt.Errorf("dcb needs count,value")
	}
	count, err := ParseNumber(ops[0])
	if err != nil || count < 0 || count > 1<<24 {
		return fmt.Errorf("bad dcb count %q", ops[0])
	}
	v, err := ParseNumber(ops[1])
	if err != nil {
		return err
	}
	for i := int64(0); i < count; i++ {
		f.appendValue(v, width)
	}
	return nil
}

func (f *File) appendValue(v int64, width int) {
	u := uint32(v)
	for i := width - 1; i >= 0; i-- {
		f.elements = append(f.elements, Element{Kind: ElemByte, Value: byte(u >> (8 * i))})
	}
}

// ParseNumber accepts $hex, @octal, %binary and decimal, each with an
// optional leading minus.
func ParseNumber(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")
	if body == "" {
		return 0, fmt.Errorf("empty number")
	}
	base := 10
	switch body[0] {
	case '$':
		base, body = 16, body[1:]
	case '@':
		base, body = 8, body[1:]
	case '%':
		base, body = 2, body[1:]
	}
	v, err := strconv.ParseInt(body, base, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	if neg {
		v = -v
	}
	return v, nil
}

func isSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '.' || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Labels returns the labels in definition order.
func (f *File) Labels() []string {
	return append([]string(nil), f.order...)
}

// LabelExists reports whether label is defined.
func (f *File) LabelExists(label string) bool {
	_, ok := f.labels[label]
	return ok
}

// Goto moves the cursor to label.
func (f *File) Goto(label string) error {
	i, ok := f.labels[label]
	if !ok {
		return fmt.Errorf("%w: %q in %s", errs.ErrLabelNotFound, label, f.Path)
	}
	f.pos = i
	return nil
}

// Reset moves the cursor to the first element.
func (f *File) Reset() {
	f.pos = 0
}

// Good reports whether elements remain.
func (f *File) Good() bool {
	return f.pos < len(f.elements)
}

// IsLabel reports whether a label points at the cursor.
func (f *File) IsLabel() bool {
	return len(f.at[f.pos]) > 0
}

// CurrentLabel returns the first label at the cursor.
func (f *File) CurrentLabel() (string, bool) {
	if l := f.at[f.pos]; len(l) > 0 {
		return l[0], true
	}
	return "", false
}

func (f *File) next(kind ElementKind) (Element, error) {
	if !f.Good() {
		return Element{}, fmt.Errorf("%w: read past end of %s", errs.ErrOutOfRange, f.Path)
	}
	e := f.elements[f.pos]
	if e.Kind != kind {
		return Element{}, fmt.Errorf("%w: %s element %d is not the expected kind", errs.ErrMalformedDirective, f.Path, f.pos)
	}
	f.pos++
	return e, nil
}

func (f *File) readN(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		e, err := f.next(ElemByte)
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(e.Value)
	}
	return v, nil
}

func (f *File) ReadByte() (byte, error) {
	v, err := f.readN(1)
	return byte(v), err
}

func (f *File) ReadWord() (uint16, error) {
	v, err := f.readN(2)
	return uint16(v), err
}

func (f *File) ReadLong() (uint32, error) {
	return f.readN(4)
}

// ReadBytes reads n consecutive byte elements.
func (f *File) ReadBytes(n int) ([]byte, error) {
	out := make([]byte, n)
	for i := range out {
		b, err := f.ReadByte()
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// ReadSymbol reads a symbolic operand.
func (f *File) ReadSymbol() (string, error) {
	e, err := f.next(ElemSymbol)
	return e.Symbol, err
}

// ReadInclude reads an include or incbin directive.
func (f *File) ReadInclude() (Include, error) {
	e, err := f.next(ElemInclude)
	return e.Include, err
}

// GetFilenameFromAsm returns the path included under label in the file at
// path.
func GetFilenameFromAsm(path, label string) (string, error) {
	f, err := Open(path, nil)
	if err != nil {
		return "", err
	}
	if err := f.Goto(label); err != nil {
		return "", err
	}
	inc, err := f.ReadInclude()
	if err != nil {
		return "", fmt.Errorf("label %q: %w", label, err)
	}
	return inc.Path, nil
}
