package pretty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompactPrinterSeparatorSpacing(t *testing.T) {
	b := &StringBackend{}
	p := NewPrinter(b)
	p.Print("[", Start)
	p.Print("1", Entry)
	p.Print(",", Sep0)
	p.Print("2", Entry)
	p.Print("]", Close)
	assert.Equal(t, "[1, 2]", b.String())
}

func TestCompactPrinterOmitsOptionalSeparators(t *testing.T) {
	b := &StringBackend{}
	p := NewPrinter(b)
	p.Print("1", Entry)
	p.Print(",", Opt0)
	assert.Equal(t, "1", b.String())
}

func TestMultilinePrinterIndentsNestedArray(t *testing.T) {
	b := &StringBackend{}
	p := NewMultilinePrinter(b, "  ", "\n", false)
	p.Print("[", Start)
	p.Print("1", Entry)
	p.Print(",", Sep0)
	p.Print("2", Entry)
	p.Print("]", Close)
	assert.Equal(t, "[\n  1,\n  2\n]\n", b.String())
}
