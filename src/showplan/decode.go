package showplan

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	ErrDecode = errors.New("unable to decode plan as utf-16 or utf-8")

	errNoUTF16Signature  = errors.New("no utf-16 byte order mark or signature")
	errOddLength         = errors.New("odd number of bytes")
	errUnpairedSurrogate = errors.New("unpaired surrogate")
	errInvalidUTF8       = errors.New("invalid utf-8 sequence")
	errNULByte           = errors.New("NUL byte, which xml does not allow")
)

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode turns the raw bytes of a plan into text. SSMS saves plans as UTF-16,
// so that is tried first and UTF-8 is the fallback.
func Decode(raw []byte) (string, error) {
	text, utf16Err := decodeUTF16(raw)
	if utf16Err == nil {
		return text, nil
	}

	text, utf8Err := decodeUTF8(raw)
	if utf8Err == nil {
		return text, nil
	}

	return "", fmt.Errorf("%w: utf-16: %v, utf-8: %v", ErrDecode, utf16Err, utf8Err)
}

func decodeUTF16(raw []byte) (string, error) {
	var enc encoding.Encoding
	bigEndian := false
	switch {
	case bytes.HasPrefix(raw, bomUTF16LE):
		enc = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case bytes.HasPrefix(raw, bomUTF16BE):
		enc = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
		bigEndian = true
	case startsWithMarkup(raw, false):
		enc = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case startsWithMarkup(raw, true):
		enc = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		bigEndian = true
	default:
		return "", errNoUTF16Signature
	}

	if len(raw)%2 != 0 {
		return "", errOddLength
	}
	if err := checkSurrogates(raw, bigEndian); err != nil {
		return "", err
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// startsWithMarkup reports whether BOM-less input reads as UTF-16 in the given byte
// order: optional XML whitespace code units followed by '<'.
func startsWithMarkup(raw []byte, bigEndian bool) bool {
	for i := 0; i+1 < len(raw); i += 2 {
		low, high := raw[i], raw[i+1]
		if bigEndian {
			low, high = high, low
		}
		if high != 0 {
			return false
		}
		switch low {
		case '<':
			return true
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return false
		}
	}
	return false
}

// checkSurrogates rejects input the decoder would otherwise silently replace with U+FFFD.
func checkSurrogates(raw []byte, bigEndian bool) error {
	expectLow := false
	for i := 0; i+1 < len(raw); i += 2 {
		var unit rune
		if bigEndian {
			unit = rune(raw[i])<<8 | rune(raw[i+1])
		} else {
			unit = rune(raw[i+1])<<8 | rune(raw[i])
		}

		isLow := unit >= 0xDC00 && unit <= 0xDFFF
		switch {
		case expectLow && !isLow:
			return fmt.Errorf("%w at byte %d", errUnpairedSurrogate, i)
		case expectLow:
			expectLow = false
		case isLow:
			return fmt.Errorf("%w at byte %d", errUnpairedSurrogate, i)
		case utf16.IsSurrogate(unit):
			expectLow = true
		}
	}
	if expectLow {
		return fmt.Errorf("%w at end of input", errUnpairedSurrogate)
	}
	return nil
}

func decodeUTF8(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", errInvalidUTF8
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		return "", fmt.Errorf("%w at byte %d", errNULByte, i)
	}
	// UTF8BOM strips a leading byte order mark if there is one
	decoded, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
