package strops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonEscape() *Escape {
	// Mirrors the JSON1_ESCAPE_PAIRS subset: \n \t \r \" \\
	return New("\n"+"n"+"\t"+"t"+"\r"+"r"+"\""+"\""+"\\"+"\\", "")
}

func TestEncodeRoundTripBasic(t *testing.T) {
	e := jsonEscape()
	enc := e.Encode("hi\tthere\n\"quoted\"", "\"")
	assert.Equal(t, `hi\tthere\n\"quoted\"`, enc)
	dec, err := e.DecodeAll(enc)
	require.NoError(t, err)
	assert.Equal(t, "hi\tthere\n\"quoted\"", dec)
}

func TestEncodeNonPrintableFallsBackToHex(t *testing.T) {
	e := jsonEscape()
	enc := e.Encode("\x01", "")
	assert.Equal(t, `\x01`, enc)
	dec, err := e.DecodeAll(enc)
	require.NoError(t, err)
	assert.Equal(t, "\x01", dec)
}

func TestEncodeSurrogatePairForAstral(t *testing.T) {
	e := New("", "")
	e.EncodeHex = [3]byte{0, 'u', 0}
	enc := e.EncodeCodepoint(0x1F600)
	assert.Equal(t, `\ud83d\ude00`, enc)
	e.DecodeHex = [3]byte{0, 'u', 0}
	dec, err := e.DecodeAll(enc)
	require.NoError(t, err)
	assert.Equal(t, "😀", dec)
}

func TestDecodeInvalidEscape(t *testing.T) {
	e := jsonEscape()
	_, err := e.DecodeAll(`\q`)
	assert.Error(t, err)
}

func TestDecodeTruncatedHex(t *testing.T) {
	e := jsonEscape()
	_, err := e.DecodeAll(`\x1`)
	assert.Error(t, err)
}
