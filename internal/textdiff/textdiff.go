// Package textdiff summarizes the difference between two revisions of a
// JSON document's text.
package textdiff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of a diff line.
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Line is one line of a line-oriented diff.
type Line struct {
	Op   Op
	Text string
}

// Diff is the line-level difference between two texts.
type Diff struct {
	Lines      []Line
	Insertions int
	Deletions  int
}

// Changed reports whether the two texts differ.
func (d Diff) Changed() bool { return d.Insertions > 0 || d.Deletions > 0 }

// Compute diffs before against after line by line.
func Compute(before, after string) Diff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out Diff
	for _, d := range diffs {
		op := Equal
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = Insert
		case diffmatchpatch.DiffDelete:
			op = Delete
		}
		for _, text := range splitLines(d.Text) {
			out.Lines = append(out.Lines, Line{Op: op, Text: text})
			switch op {
			case Insert:
				out.Insertions++
			case Delete:
				out.Deletions++
			}
		}
	}
	return out
}

// Unified renders the diff with "+", "-" and " " line prefixes. Runs of
// unchanged lines longer than 2*context are folded into a "..." marker.
func (d Diff) Unified(context int) string {
	var b strings.Builder
	for i := 0; i < len(d.Lines); i++ {
		line := d.Lines[i]
		if line.Op != Equal {
			b.WriteString(prefix(line.Op))
			b.WriteString(line.Text)
			b.WriteByte('\n')
			continue
		}

		end := i
		for end < len(d.Lines) && d.Lines[end].Op == Equal {
			end++
		}
		run := d.Lines[i:end]
		if len(run) > 2*context {
			head := run[:min(context, len(run))]
			tail := run[len(run)-context:]
			if i == 0 {
				head = nil
			}
			if end == len(d.Lines) {
				tail = nil
			}
			writeEqual(&b, head)
			b.WriteString("...\n")
			writeEqual(&b, tail)
		} else {
			writeEqual(&b, run)
		}
		i = end - 1
	}
	return b.String()
}

func writeEqual(b *strings.Builder, lines []Line) {
	for _, l := range lines {
		b.WriteString("  ")
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
}

func prefix(op Op) string {
	switch op {
	case Insert:
		return "+ "
	case Delete:
		return "- "
	}
	return "  "
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
