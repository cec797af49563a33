package artifact

import (
	"bytes"
)

// Builder accumulates directive lines. Each line is terminated by "\n".
type Builder struct {
	buf bytes.Buffer
}

// Line appends a raw line.
func (b *Builder) Line(s string) *Builder {
	b.buf.WriteString(s)
	b.buf.WriteByte('\n')
	return b
}

// Directive appends "<keyword> <value>".
func (b *Builder) Directive(keyword, value string) *Builder {
	return b.Line(keyword + " " + value)
}

// Define appends "$define <name> <value>".
func (b *Builder) Define(name, value string) *Builder {
	return b.Directive("$define "+name, value)
}

// Bytes returns the rendered content.
func (b *Builder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// String returns the rendered content as a string.
func (b *Builder) String() string {
	return b.buf.String()
}
