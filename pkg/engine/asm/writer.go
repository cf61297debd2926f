package asm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	labelColumn  = 20
	instrColumn  = 8
	bannerWidth  = 78
	bannerInner  = 72
	valuesPerRow = 16
)

// Writer builds an assembly file line by line.
type Writer struct {
	sb strings.Builder
	// Now stamps the provenance banner. Tests set it for stable output.
	Now func() time.Time
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{Now: time.Now}
}

func centre(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}

// WriteFileHeader emits the banner naming the file and what it holds.
func (w *Writer) WriteFileHeader(path, description string) {
	rule := strings.Repeat(";", bannerWidth)
	w.sb.WriteString(rule + "\n")
	for _, line := range []string{
		filepath.Base(path),
		"",
		description,
		"",
		"Generated by landforge " + w.Now().UTC().Format("2006-01-02 15:04:05"),
	} {
		fmt.Fprintf(&w.sb, ";; %s ;;\n", centre(line, bannerInner))
	}
	w.sb.WriteString(rule + "\n\n")
}

func (w *Writer) line(label, instr, operand, comment string) {
	var sb strings.Builder
	if label != "" {
		sb.WriteString(label + ":")
	}
	if instr != "" {
		for sb.Len() < labelColumn {
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprintf("%-*s", instrColumn, instr))
		sb.WriteString(operand)
	}
	if comment != "" {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("; " + comment)
	}
	w.sb.WriteString(strings.TrimRight(sb.String(), " ") + "\n")
}

// Label starts a labelled location.
func (w *Writer) Label(name string) {
	w.line(name, "", "", "")
}

// Comment writes a full-line comment.
func (w *Writer) Comment(text string) {
	w.line("", "", "", text)
}

// NewLine writes an empty line.
func (w *Writer) NewLine() {
	w.sb.WriteString("\n")
}

// IncBin includes a binary side-file.
func (w *Writer) IncBin(path string) {
	w.line("", "incbin", fmt.Sprintf("%q", filepath.ToSlash(path)), "")
}

// Include includes another assembly file.
func (w *Writer) Include(path string) {
	w.line("", "include", fmt.Sprintf("%q", filepath.ToSlash(path)), "")
}

// Align pads to an n-byte boundary.
func (w *Writer) Align(n int) {
	w.line("", "Align", fmt.Sprintf("%d", n), "")
}

func (w *Writer) dc(instr string, vals []string) {
	for len(vals) > 0 {
		n := min(len(vals), valuesPerRow)
		w.line("", instr, strings.Join(vals[:n], ", "), "")
		vals = vals[n:]
	}
}

func (w *Writer) DcB(vals ...uint8) {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = fmt.Sprintf("$%02X", v)
	}
	w.dc("dc.b", s)
}

func (w *Writer) DcW(vals ...uint16) {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = fmt.Sprintf("$%04X", v)
	}
	w.dc("dc.w", s)
}

func (w *Writer) DcL(vals ...uint32) {
	s := make([]string, len(vals))
	for i, v := range vals {
		s[i] = fmt.Sprintf("$%08X", v)
	}
	w.dc("dc.l", s)
}

// DcSymbols writes symbolic operands of the given width (1, 2 or 4).
func (w *Writer) DcSymbols(width int, syms ...string) {
	instr := map[int]string{1: "dc.b", 2: "dc.w", 4: "dc.l"}[width]
	if instr == "" {
		instr = "dc.l"
	}
	w.dc(instr, syms)
}

// String returns the text written so far.
func (w *Writer) String() string {
	return w.sb.String()
}

// WriteFile creates the parent directories of path and writes the text.
func (w *Writer) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(w.sb.String()), 0o644)
}
