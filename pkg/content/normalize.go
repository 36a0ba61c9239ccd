package content

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// NormalizeUTF8 returns data as valid UTF-8. Valid input is returned unchanged
// (the same slice). Input with a UTF-16 byte order mark is transcoded from
// UTF-16. Otherwise valid sequences are kept and each invalid byte is decoded
// as Windows-1252, so a file mixing UTF-8 and Latin-1 keeps both intact.
func NormalizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	if dec := utf16Decoder(data); dec != nil {
		if out, err := dec.Bytes(data); err == nil && utf8.Valid(out) {
			return out
		}
		return bytes.ToValidUTF8(data, []byte(string(utf8.RuneError)))
	}

	out := make([]byte, 0, len(data)+len(data)/2)
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			r = charmap.Windows1252.DecodeByte(data[0])
		}
		out = utf8.AppendRune(out, r)
		data = data[size:]
	}
	return out
}

// IsUTF8 reports whether data needs no normalization.
func IsUTF8(data []byte) bool {
	return utf8.Valid(data)
}

func utf16Decoder(data []byte) *encoding.Decoder {
	switch {
	case bytes.HasPrefix(data, bomUTF16BE):
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	case bytes.HasPrefix(data, bomUTF16LE):
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	default:
		return nil
	}
}
