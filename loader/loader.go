// Package loader implements the FRID-native recursive-descent parser of
// spec.md §6.1. Ported from original_source/frid/loader.py's FridLoader,
// with one material addition: that file's scan_expression (Named-value
// parsing) is an unimplemented stub ("raise NotImplementedError"), so the
// constructor-call grammar here — NAME(arg, arg, key=val, ...) — is
// designed directly from spec.md §6.1 rather than ported.
package loader

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"frid"
	"frid/chrono"
	"frid/strops"
)

const unquotedAcceptChars = "!?@#$%^&*/"

// escCodec decodes the backslash escapes legal inside a quoted FRID string:
// the usual \n \t \r \f \v \b \\, the \a \e \0 forms the FRID and JSON5
// dumpers emit, \' \" \` for the three quote forms, and (via
// strops.Escape.Decode's hex fallback) \xNN \uNNNN \UNNNNNNNN.
var escCodec = strops.New(
	"\n"+"n"+"\t"+"t"+"\r"+"r"+"\f"+"f"+"\v"+"v"+"\b"+"b"+"\\"+"\\"+"\a"+"a"+"\x1b"+"e"+"\x00"+"0",
	"'"+"'"+"`"+"`"+"\""+"\"",
)

// Load parses s as a single FRID value (spec.md §6.1's "one value, plus
// optional trailing whitespace"). jsonMode, if true, additionally accepts
// the bare literals true/false/null as JSON does.
func Load(s string, jsonMode bool) (frid.Value, error) {
	l := &Loader{buf: []rune(s), json: jsonMode}
	v, idx, err := l.scanMultiData(0, "")
	if err != nil {
		return frid.Value{}, err
	}
	idx = l.skipWhitespace(idx)
	if idx < len(l.buf) {
		return frid.Value{}, l.errorAt(idx, "", "trailing data at the end")
	}
	return v, nil
}

// LoadArray parses s forcing top-level naked-list mode: a comma-separated
// sequence with no enclosing brackets, as spec.md §6.1 allows for
// top-level input when the caller already knows the shape.
func LoadArray(s string) (frid.Value, error) {
	l := &Loader{buf: []rune(s)}
	items, idx, err := l.scanNakedList(0, "", "")
	if err != nil {
		return frid.Value{}, err
	}
	idx = l.skipWhitespace(idx)
	if idx < len(l.buf) {
		return frid.Value{}, l.errorAt(idx, "", "trailing data at the end")
	}
	return frid.Array(items), nil
}

// LoadMapping parses s forcing top-level naked-mapping mode.
func LoadMapping(s string) (frid.Value, error) {
	l := &Loader{buf: []rune(s)}
	m, idx, err := l.scanNakedDict(0, "", "")
	if err != nil {
		return frid.Value{}, err
	}
	idx = l.skipWhitespace(idx)
	if idx < len(l.buf) {
		return frid.Value{}, l.errorAt(idx, "", "trailing data at the end")
	}
	return frid.Map(m), nil
}

// Loader holds parse state over an in-memory buffer. It mirrors
// loader.py's FridLoader; this port operates on a fully buffered string
// rather than exposing a Fetch hook for partial streams, since spec.md's
// Non-goals exclude a streaming transport layer and every caller in this
// repository already has the whole literal in hand.
type Loader struct {
	buf  []rune
	json bool
}

// errorAt reports a parse failure at a rune offset into the input, with the
// path breadcrumb of the value being parsed when it failed, mirroring
// loader.py's ParseError(input_string, error_offset, path=path).
func (l *Loader) errorAt(index int, path string, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return frid.NewParseErrorAt(msg, string(l.buf), index, path)
}

func (l *Loader) skipWhitespace(index int) int {
	for index < len(l.buf) && isSpace(l.buf[index]) {
		index++
	}
	return index
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func (l *Loader) peek(index int) (rune, bool) {
	if index >= len(l.buf) {
		return 0, false
	}
	return l.buf[index], true
}

// scanPrimeData scans an unquoted run of identifier characters plus the
// extra unquotedAcceptChars (and spaces, when the run starts like a
// quote-free string), then classifies it: null/bool/int/real
// literals, a blob (".." base64 ".."), a date/time/datetime literal, or
// (if nothing else matches) a bare quote-free string.
func (l *Loader) scanPrimeData(index int, path string) (frid.Value, int, error) {
	start := index
	for index < len(l.buf) && (frid.IsIdentifierChar(l.buf[index]) || strings.ContainsRune(unquotedAcceptChars, l.buf[index]) ||
		(l.buf[index] == ' ' && frid.IsQuoteFreeHead(l.buf[start]))) {
		index++
	}
	text := strings.TrimSpace(string(l.buf[start:index]))
	v, ok := l.parsePrimeString(text)
	if !ok {
		return frid.Value{}, 0, l.errorAt(start, path, "failed to parse unquoted value %q", text)
	}
	return v, index, nil
}

// parsePrimeString classifies an already-isolated, already-trimmed token.
func (l *Loader) parsePrimeString(s string) (frid.Value, bool) {
	if s == "" {
		return frid.Text(""), true
	}
	if l.json {
		switch s {
		case "true":
			return frid.Bool(true), true
		case "false":
			return frid.Bool(false), true
		case "null":
			return frid.Null(), true
		}
	}
	if !strings.ContainsRune("+-.0123456789", rune(s[0])) {
		if frid.IsFridQuoteFree(s) {
			return frid.Text(s), true
		}
		return frid.Value{}, false
	}
	switch s {
	case ".":
		return frid.Null(), true
	case "+":
		return frid.Bool(true), true
	case "-":
		return frid.Bool(false), true
	case "++":
		return frid.Real(posInf()), true
	case "--":
		return frid.Real(negInf()), true
	case "+.":
		return frid.Real(nan()), true
	case "-.":
		return frid.Real(nan()), true
	}
	if strings.HasPrefix(s, "..") {
		body := s[2:]
		body = strings.TrimSuffix(body, ".")
		body = strings.TrimSuffix(body, ".")
		b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(body, "="))
		if err != nil {
			return frid.Value{}, false
		}
		return frid.Blob(b), true
	}
	if v, ok := chrono.ParseDateTime(s); ok {
		return v, true
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return frid.Int(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return frid.Real(f), true
	}
	return frid.Value{}, false
}

func posInf() float64 { var z float64 = 1; return z / zeroFloat() }
func negInf() float64 { var z float64 = -1; return z / zeroFloat() }
func nan() float64     { return zeroFloat() / zeroFloat() }
func zeroFloat() float64 {
	var z float64
	return z
}

// scanQuotedStr scans the body of a quoted string up to (not including)
// the closing quote rune, processing escape sequences as it goes.
func (l *Loader) scanQuotedStr(index int, path string, quote rune) (string, int, error) {
	var b strings.Builder
	for {
		if index >= len(l.buf) {
			return "", 0, l.errorAt(index, path, "unterminated quoted string")
		}
		c := l.buf[index]
		if c == quote {
			return b.String(), index, nil
		}
		if c == '\\' {
			n, out, err := escCodec.Decode(l.buf[index:])
			if err != nil {
				return "", 0, l.errorAt(index, path, "%v", err)
			}
			b.WriteString(out)
			index += n
			continue
		}
		b.WriteRune(c)
		index++
	}
}

func (l *Loader) skipPrefix(index int, path string, prefix rune) (int, error) {
	r, ok := l.peek(index)
	if !ok || r != prefix {
		return index, l.errorAt(index, path, "expecting %q", string(prefix))
	}
	return index + 1, nil
}

// scanNakedList scans comma-separated entries until it sees a rune in
// stop (not consumed) or the buffer ends.
func (l *Loader) scanNakedList(index int, path string, stop string) ([]frid.Value, int, error) {
	var out []frid.Value
	for {
		index = l.skipWhitespace(index)
		if r, ok := l.peek(index); ok && strings.ContainsRune(stop, r) {
			return out, index, nil
		}
		if index >= len(l.buf) {
			return out, index, nil
		}
		v, next, err := l.scanMultiData(index, path)
		if err != nil {
			return nil, 0, err
		}
		index = l.skipWhitespace(next)
		out = append(out, v)
		r, ok := l.peek(index)
		if !ok || strings.ContainsRune(stop, r) {
			return out, index, nil
		}
		if r != ',' {
			return nil, 0, l.errorAt(index, path, "unexpected %q after entry %d of list", string(r), len(out))
		}
		index++
	}
}

// scanNakedDict scans comma-separated key:value entries until it sees a
// rune in stop (not consumed) or the buffer ends.
func (l *Loader) scanNakedDict(index int, path string, stop string) (*frid.Mapping, int, error) {
	m := frid.NewMapping()
	for {
		index = l.skipWhitespace(index)
		if r, ok := l.peek(index); !ok || strings.ContainsRune(stop, r) {
			return m, index, nil
		}
		keyVal, next, err := l.scanFridValue(index, path, nil)
		if err != nil {
			return nil, 0, err
		}
		index = next
		if keyVal.Kind() != frid.KindText {
			return nil, 0, l.errorAt(index, path, "map key must be a string, got %s", keyVal.Kind())
		}
		key := keyVal.Text()
		if _, exists := m.Get(key); exists {
			return nil, 0, l.errorAt(index, path, "duplicate key %q in map", key)
		}
		index = l.skipWhitespace(index)
		r, ok := l.peek(index)
		if !ok || r != ':' {
			return nil, 0, l.errorAt(index, path, "expecting ':' after key %q", key)
		}
		index++
		v, next2, err := l.scanMultiData(index, path+"/"+key)
		if err != nil {
			return nil, 0, err
		}
		index = l.skipWhitespace(next2)
		m.Set(key, v)
		r, ok = l.peek(index)
		if !ok || strings.ContainsRune(stop, r) {
			return m, index, nil
		}
		if r != ',' {
			return nil, 0, l.errorAt(index, path, "expecting ',' after value for key %q", key)
		}
		index++
	}
}

// scanExpression parses a Named constructor's call body: a sequence of
// positional values followed by key=value pairs, terminated by ')'. Not
// present in original_source/frid/loader.py (that method is an
// unimplemented stub); designed from spec.md §6.1's description of the
// FRID constructor syntax "name(arg, ..., key=val, ...)".
func (l *Loader) scanExpression(index int, path string, name string) (frid.Value, int, error) {
	var args []frid.Value
	kw := frid.NewMapping()
	inKeywords := false
	callPath := path + "/" + name
	for {
		index = l.skipWhitespace(index)
		r, ok := l.peek(index)
		if !ok {
			return frid.Value{}, 0, l.errorAt(index, callPath, "unterminated constructor %q", name)
		}
		if r == ')' {
			return frid.NewNamed(name, args, kw), index + 1, nil
		}
		isKeyword := false
		var keyName string
		var keyValStart int
		if ident, next, ok := l.tryScanIdentifier(index); ok {
			after := l.skipWhitespace(next)
			if r2, ok2 := l.peek(after); ok2 && r2 == '=' {
				isKeyword = true
				keyName = ident
				keyValStart = after + 1
			}
		}
		if isKeyword {
			inKeywords = true
			v, next2, err := l.scanMultiData(keyValStart, callPath+"/"+keyName)
			if err != nil {
				return frid.Value{}, 0, err
			}
			kw.Set(keyName, v)
			index = l.skipWhitespace(next2)
		} else {
			if inKeywords {
				return frid.Value{}, 0, l.errorAt(index, callPath, "positional argument after keyword argument in %q", name)
			}
			v, next, err := l.scanMultiData(index, callPath)
			if err != nil {
				return frid.Value{}, 0, err
			}
			args = append(args, v)
			index = l.skipWhitespace(next)
		}
		r, ok = l.peek(index)
		if !ok {
			return frid.Value{}, 0, l.errorAt(index, callPath, "unterminated constructor %q", name)
		}
		if r == ')' {
			return frid.NewNamed(name, args, kw), index + 1, nil
		}
		if r != ',' {
			return frid.Value{}, 0, l.errorAt(index, callPath, "expecting ',' or ')' in constructor %q", name)
		}
		index++
	}
}

func (l *Loader) tryScanIdentifier(index int) (string, int, bool) {
	if index >= len(l.buf) || !frid.IsIdentifierHead(l.buf[index]) {
		return "", index, false
	}
	start := index
	for index < len(l.buf) && frid.IsIdentifierChar(l.buf[index]) {
		index++
	}
	return string(l.buf[start:index]), index, true
}

// scanFridValue scans exactly one FRID value starting at index. prev, if
// non-nil, is a previously scanned string value that a quoted-string or
// naked-text continuation should be concatenated onto (spec.md §6.1's
// adjacent-literal string concatenation rule).
func (l *Loader) scanFridValue(index int, path string, prev *string) (frid.Value, int, error) {
	index = l.skipWhitespace(index)
	if index >= len(l.buf) {
		return frid.Text(""), index, nil
	}
	c := l.buf[index]
	switch c {
	case '[':
		if prev != nil {
			return frid.Value{}, 0, l.errorAt(index, path, "list after a string value")
		}
		items, next, err := l.scanNakedList(index+1, path, "]")
		if err != nil {
			return frid.Value{}, 0, err
		}
		next, err = l.skipPrefix(next, path, ']')
		if err != nil {
			return frid.Value{}, 0, err
		}
		return frid.Array(items), next, nil
	case '{':
		if prev != nil {
			return frid.Value{}, 0, l.errorAt(index, path, "map after a string value")
		}
		m, next, err := l.scanNakedDict(index+1, path, "}")
		if err != nil {
			return frid.Value{}, 0, err
		}
		next, err = l.skipPrefix(next, path, '}')
		if err != nil {
			return frid.Value{}, 0, err
		}
		return frid.Map(m), next, nil
	case '"', '\'', '`':
		str, next, err := l.scanQuotedStr(index+1, path, c)
		if err != nil {
			return frid.Value{}, 0, err
		}
		next, err = l.skipPrefix(next, path, c)
		if err != nil {
			return frid.Value{}, 0, err
		}
		if prev != nil {
			str = *prev + str
		}
		return frid.Text(str), next, nil
	case '(':
		return frid.Value{}, 0, l.errorAt(index, path, "constructor call without a valid name")
	default:
		if prev != nil {
			v, next, err := l.scanPrimeData(index, path)
			if err != nil {
				return frid.Value{}, 0, err
			}
			if v.Kind() != frid.KindText {
				return frid.Value{}, 0, l.errorAt(index, path, "non-string continuation after a string value")
			}
			return frid.Text(*prev + v.Text()), next, nil
		}
		// An identifier immediately followed by '(' (no intervening
		// whitespace) is a Named constructor call, not a quote-free string.
		if frid.IsIdentifierHead(c) {
			if name, afterName, ok := l.tryScanIdentifier(index); ok {
				if r, ok := l.peek(afterName); ok && r == '(' && frid.IsFridIdentifier(name) {
					return l.scanExpression(afterName+1, path, name)
				}
			}
		}
		return l.scanPrimeData(index, path)
	}
}

// scanMultiData implements spec.md §6.1's adjacent-literal concatenation:
// repeatedly scans a value, and if what follows whitespace is another
// string-continuable token (a quote or naked text), folds it into the
// same string instead of stopping.
func (l *Loader) scanMultiData(index int, path string) (frid.Value, int, error) {
	v, next, err := l.scanFridValue(index, path, nil)
	if err != nil {
		return frid.Value{}, 0, err
	}
	for v.Kind() == frid.KindText {
		afterWs := l.skipWhitespace(next)
		r, ok := l.peek(afterWs)
		if !ok {
			break
		}
		if r != '"' && r != '\'' && r != '`' && !frid.IsIdentifierHead(r) {
			break
		}
		s := v.Text()
		v2, next2, err := l.scanFridValue(afterWs, path, &s)
		if err != nil {
			return frid.Value{}, 0, err
		}
		if v2.Kind() != frid.KindText {
			break
		}
		v, next = v2, next2
	}
	return v, next, nil
}
