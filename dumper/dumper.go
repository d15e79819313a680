// Package dumper renders a frid.Value as FRID-native text, strict JSON,
// lenient JSON5, or Frid-escaped JSON, per spec.md §5. Ported from
// original_source/frid/dumper.py's FridDumper; the Python class hierarchy
// (FridDumper / FridStringDumper / FridTextIODumper) becomes one Dumper
// type parameterized by a pretty.Backend, since Go composes behavior
// through interfaces rather than mixins.
package dumper

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"frid"
	"frid/chrono"
	"frid/pretty"
	"frid/strops"
)

// Mode selects the output dialect.
type Mode int

const (
	// ModeFrid is the native, quote-free-where-possible FRID syntax.
	ModeFrid Mode = iota
	// ModeJSON is strict JSON: no NaN/Infinity, no blobs, no Named values.
	ModeJSON
	// ModeJSON5 is JSON5: allows NaN/Infinity and unquoted identifier keys.
	ModeJSON5
	// ModeEscapedJSON is strict JSON where any value FRID can express but
	// JSON cannot is instead emitted as a quoted string carrying an
	// EscapePrefix-tagged FRID-native encoding of that value.
	ModeEscapedJSON
)

// Escape-pair tables, ported verbatim from dumper.py's module constants.
const (
	json1Pairs = "\nn\tt\rr\ff\vv\bb"
)

var (
	json5Pairs = json1Pairs + "\x000"
	extraPairs = json1Pairs + "\aa\x1be"
)

// Options configures a Dump call. The zero value dumps in ModeFrid with
// compact (single-line) output and no user callbacks.
type Options struct {
	Mode Mode
	// EscapePrefix is required when Mode is ModeEscapedJSON: the string
	// prepended, inside the JSON string quotes, to the FRID-native
	// rendering of a value JSON cannot otherwise express.
	EscapePrefix string
	AsciiOnly    bool
	// Indent, if non-empty, switches to multiline output using this
	// string as the per-level indentation unit.
	Indent     string
	Newline    string
	ExtraComma bool

	PrintReal func(v frid.Value, path string) (string, bool)
	PrintDate func(v frid.Value, path string) (string, bool)
	PrintBlob func(b []byte, path string) (string, bool)
}

type dumpError struct{ err error }

// Dump renders v according to opts, returning the encoded text or a
// *frid.EncodeError describing why v could not be rendered in the
// requested mode.
func Dump(v frid.Value, opts Options) (s string, err error) {
	defer func() {
		if r := recover(); r != nil {
			de, ok := r.(dumpError)
			if !ok {
				panic(r)
			}
			err = de.err
		}
	}()
	backend := &pretty.StringBackend{}
	var p *pretty.Printer
	if opts.Indent != "" {
		p = pretty.NewMultilinePrinter(backend, opts.Indent, opts.Newline, opts.ExtraComma)
	} else {
		p = pretty.NewPrinter(backend)
	}
	d := &dumper{opts: opts, p: p, escEncoder: newEscEncoder(opts)}
	d.printValue(v, "")
	return backend.String(), nil
}

func newEscEncoder(opts Options) *strops.Escape {
	usingFrid := opts.Mode == ModeFrid
	var pairs string
	var hex [3]byte
	switch {
	case usingFrid:
		pairs = extraPairs
		hex = [3]byte{'x', 'u', 'U'}
	case opts.Mode == ModeJSON5:
		pairs = json5Pairs
		hex = [3]byte{'x', 'u', 0}
	default:
		pairs = json1Pairs
		hex = [3]byte{0, 'u', 0}
	}
	e := strops.New(pairs, "")
	e.EncodeHex = hex
	return e
}

type dumper struct {
	opts       Options
	p          *pretty.Printer
	escEncoder *strops.Escape
}

func (d *dumper) fail(format string, args ...any) {
	panic(dumpError{frid.NewEncodeError(fmt.Sprintf(format, args...), nil)})
}

func (d *dumper) usingFrid() bool { return d.opts.Mode == ModeFrid }

func (d *dumper) isEscapedJSON() bool { return d.opts.Mode == ModeEscapedJSON }

// realToStr converts an Int or Real to text, handling non-finite Real per
// dumper.py's real_to_str.
func (d *dumper) realToStr(v frid.Value, path string) string {
	if v.Kind() == frid.KindInt {
		return strconv.FormatInt(v.Int(), 10)
	}
	r := v.Real()
	if d.isEscapedJSON() || d.usingFrid() {
		var out string
		switch {
		case math.IsNaN(r):
			out = signPrefix(r, "+.", "-.")
		case math.IsInf(r, 0):
			out = signPrefix(r, "++", "--")
		default:
			return strconv.FormatFloat(r, 'g', -1, 64)
		}
		if d.usingFrid() {
			return out
		}
		return `"` + d.opts.EscapePrefix + out + `"`
	}
	if d.opts.Mode == ModeJSON5 {
		if math.IsNaN(r) {
			return "NaN"
		}
		if math.IsInf(r, 0) {
			if r >= 0 {
				return "+Infinity"
			}
			return "-Infinity"
		}
		return strconv.FormatFloat(r, 'g', -1, 64)
	}
	// strict JSON
	if math.IsNaN(r) {
		d.fail("NaN is not supported by JSON at %s", path)
	}
	if math.IsInf(r, 0) {
		d.fail("Infinity is not supported by JSON at %s", path)
	}
	return strconv.FormatFloat(r, 'g', -1, 64)
}

func signPrefix(r float64, pos, neg string) string {
	if math.Signbit(r) {
		return neg
	}
	return pos
}

func (d *dumper) dateToStr(v frid.Value, path string) string {
	out, err := chrono.FormatDateTime(v, 3)
	if err != nil {
		d.fail("unsupported datetime value at %s: %v", path, err)
	}
	if d.usingFrid() {
		return out
	}
	if d.isEscapedJSON() {
		return `"` + d.opts.EscapePrefix + out + `"`
	}
	d.fail("date/time values are unsupported in this JSON mode at %s", path)
	return ""
}

func (d *dumper) blobToStr(b []byte, path string) string {
	out := base64URLNoPad(b)
	switch len(out) % 4 {
	case 0:
		out = ".." + out
	case 3:
		out = ".." + out + "."
	default:
		out = ".." + out + ".."
	}
	if d.usingFrid() {
		return out
	}
	if d.isEscapedJSON() {
		return `"` + d.opts.EscapePrefix + out + `"`
	}
	d.fail("blobs are unsupported by this JSON mode at %s", path)
	return ""
}

func base64URLNoPad(b []byte) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	var sb strings.Builder
	for i := 0; i < len(b); i += 3 {
		chunk := b[i:min(i+3, len(b))]
		n := len(chunk)
		var buf [3]byte
		copy(buf[:], chunk)
		sb.WriteByte(alphabet[buf[0]>>2])
		sb.WriteByte(alphabet[(buf[0]&0x03)<<4|buf[1]>>4])
		if n > 1 {
			sb.WriteByte(alphabet[(buf[1]&0x0f)<<2|buf[2]>>6])
		}
		if n > 2 {
			sb.WriteByte(alphabet[buf[2]&0x3f])
		}
	}
	return sb.String()
}

func (d *dumper) maybeQuoted(s, path string) string {
	if d.usingFrid() {
		return s
	}
	escaped := d.escEncoder.Encode(s, `"\`)
	if d.isEscapedJSON() {
		return `"` + d.opts.EscapePrefix + escaped + `"`
	}
	d.fail("customized data unsupported at %s", path)
	return ""
}

// primeDataToStr returns the rendering of a prime (scalar) value, or ""
// with ok=false if data needs quoting/container handling instead.
func (d *dumper) primeDataToStr(v frid.Value, path string) (string, bool) {
	if d.usingFrid() {
		switch v.Kind() {
		case frid.KindNull:
			return ".", true
		case frid.KindBool:
			if v.Bool() {
				return "+", true
			}
			return "-", true
		case frid.KindText:
			if frid.IsFridIdentifier(v.Text()) {
				return v.Text(), true
			}
		}
	} else {
		switch v.Kind() {
		case frid.KindNull:
			return "null", true
		case frid.KindBool:
			if v.Bool() {
				return "true", true
			}
			return "false", true
		case frid.KindText:
			return "", false
		}
	}
	switch v.Kind() {
	case frid.KindInt, frid.KindReal:
		if d.opts.PrintReal != nil {
			if out, ok := d.opts.PrintReal(v, path); ok {
				return d.maybeQuoted(out, path), true
			}
		}
		return d.realToStr(v, path), true
	case frid.KindDate, frid.KindTime, frid.KindDateTime:
		if d.opts.PrintDate != nil {
			if out, ok := d.opts.PrintDate(v, path); ok {
				return d.maybeQuoted(out, path), true
			}
		}
		return d.dateToStr(v, path), true
	case frid.KindBlob:
		if d.opts.PrintBlob != nil {
			if out, ok := d.opts.PrintBlob(v.Blob(), path); ok {
				return d.maybeQuoted(out, path), true
			}
		}
		return d.blobToStr(v.Blob(), path), true
	}
	if !d.usingFrid() {
		return "", false
	}
	if v.Kind() != frid.KindText {
		return "", false
	}
	if d.opts.AsciiOnly && !isASCII(v.Text()) {
		return "", false
	}
	if frid.IsFridQuoteFree(v.Text()) {
		return v.Text(), true
	}
	return "", false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return false
		}
	}
	return true
}

func (d *dumper) printQuotedStr(s, path string, asKey bool, quote byte) {
	q := string(quote)
	tok := q + d.escEncoder.Encode(s, q+`\`) + q
	tt := pretty.Entry
	if asKey {
		tt = pretty.Label
	}
	d.p.Print(tok, tt)
}

func (d *dumper) printNakedList(items []frid.Value, path string) {
	nonEmpty := false
	for i, x := range items {
		if i > 0 {
			d.p.Print(",", pretty.Sep0)
		}
		d.printValue(x, fmt.Sprintf("%s[%d]", path, i))
		nonEmpty = true
	}
	if nonEmpty && (d.usingFrid() || d.opts.Mode == ModeJSON5) {
		d.p.Print(",", pretty.Opt0)
	}
}

func (d *dumper) isUnquotedKey(key string) bool {
	if d.opts.AsciiOnly && !isASCII(key) {
		return false
	}
	if d.usingFrid() {
		return frid.IsFridIdentifier(key)
	}
	if d.opts.Mode != ModeJSON5 {
		return false
	}
	if key == "true" || key == "false" || key == "null" {
		return false
	}
	return frid.IsFridIdentifier(strings.ReplaceAll(key, "$", "_"))
}

func (d *dumper) printNakedMapping(m *frid.Mapping, path string) {
	keys := m.Keys()
	for i, k := range keys {
		if i > 0 {
			d.p.Print(",", pretty.Sep0)
		}
		if d.isUnquotedKey(k) {
			d.p.Print(k, pretty.Label)
		} else {
			d.printQuotedStr(k, path, true, '"')
		}
		d.p.Print(":", pretty.Sep1)
		v, _ := m.Get(k)
		d.printValue(v, path)
	}
	if len(keys) > 0 && (d.usingFrid() || d.opts.Mode == ModeJSON5) {
		d.p.Print(",", pretty.Opt0)
	}
}

func (d *dumper) printNamed(n *frid.Named, path string) {
	path = path + "(" + n.Name + ")"
	if !d.usingFrid() {
		if !d.isEscapedJSON() {
			d.fail("named constructors are unsupported in this JSON mode at %s", path)
		}
		hasKw := n.KeyWords.Len() > 0
		if hasKw {
			d.p.Print("{", pretty.Start)
			d.printQuotedStr("", path, true, '"')
		}
		if len(n.Args) > 0 {
			d.p.Print("[", pretty.Start)
			d.printQuotedStr(d.opts.EscapePrefix+n.Name, path, false, '"')
			d.p.Print(",", pretty.Sep0)
			d.printNakedList(n.Args, path)
			d.p.Print("]", pretty.Close)
		} else {
			d.printQuotedStr(d.opts.EscapePrefix+n.Name, path, false, '"')
		}
		if hasKw {
			d.printNakedMapping(n.KeyWords, path)
			d.p.Print("}", pretty.Close)
		}
		return
	}
	if !frid.IsFridIdentifier(n.Name) {
		d.fail("named constructor name %q is not a valid identifier at %s", n.Name, path)
	}
	d.p.Print(n.Name, pretty.Entry)
	d.p.Print("(", pretty.Start)
	d.printNakedList(n.Args, path)
	if len(n.Args) > 0 && n.KeyWords.Len() > 0 {
		d.p.Print(",", pretty.Sep0)
	}
	d.printNakedKwargs(n.KeyWords, path)
	d.p.Print(")", pretty.Close)
}

// printNakedKwargs renders Named keyword arguments as "k=v,k2=v2" pairs,
// the FRID-native constructor-call syntax (distinct from a mapping's
// "k:v" separator).
func (d *dumper) printNakedKwargs(m *frid.Mapping, path string) {
	keys := m.Keys()
	for i, k := range keys {
		if i > 0 {
			d.p.Print(",", pretty.Sep0)
		}
		d.p.Print(k, pretty.Label)
		d.p.Print("=", pretty.Sep1)
		v, _ := m.Get(k)
		d.printValue(v, path)
	}
}

func (d *dumper) printValue(v frid.Value, path string) {
	if s, ok := d.primeDataToStr(v, path); ok {
		d.p.Print(s, pretty.Entry)
		return
	}
	switch v.Kind() {
	case frid.KindText:
		d.printQuotedStr(v.Text(), path, false, '"')
	case frid.KindMapping:
		d.p.Print("{", pretty.Start)
		d.printNakedMapping(v.Mapping(), path)
		d.p.Print("}", pretty.Close)
	case frid.KindArray:
		d.p.Print("[", pretty.Start)
		d.printNakedList(v.Array(), path)
		d.p.Print("]", pretty.Close)
	case frid.KindNamed:
		d.printNamed(v.Named(), path)
	default:
		d.fail("invalid value kind %s at %s", v.Kind(), path)
	}
}
