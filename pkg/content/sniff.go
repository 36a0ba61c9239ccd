package content

import (
	"net/http"
	"strings"
)

// SniffLen is the number of leading bytes a Sniffer needs to classify a file.
const SniffLen = 512

// BinaryPlaceholder replaces the content of files that are not text.
const BinaryPlaceholder = "/*\n *\n * We detected that this is not a text file.\n * Such files are currently not supported by our editor.\n * We're sorry for the inconvenience.\n * \n */"

// Sniffer reports the MIME type of file content.
type Sniffer interface {
	// Sniff returns a MIME type such as "text/plain; charset=utf-8" for data.
	// At most SniffLen bytes are considered.
	Sniff(data []byte) string
}

// SnifferFunc adapts a function to the Sniffer interface.
type SnifferFunc func(data []byte) string

// Sniff calls f(data).
func (f SnifferFunc) Sniff(data []byte) string { return f(data) }

// textPlain is reported for printable content that only matched a short
// binary signature.
const textPlain = "text/plain; charset=utf-8"

// documentTypes keep their signature match even when the leading bytes are
// printable. Their signature is a full header, not a 2 to 4 byte prefix.
var documentTypes = map[string]bool{
	"application/pdf":        true,
	"application/postscript": true,
}

// DetectSniffer classifies content with http.DetectContentType. Content that
// matched a short signature such as "BM" or "ID3" but holds no binary data
// bytes is reported as text/plain.
type DetectSniffer struct{}

// Sniff implements Sniffer.
func (DetectSniffer) Sniff(data []byte) string {
	if len(data) > SniffLen {
		data = data[:SniffLen]
	}
	mime := http.DetectContentType(data)
	if IsText(mime) || documentTypes[mime] || hasBinaryByte(data) {
		return mime
	}
	return textPlain
}

// hasBinaryByte reports whether data holds a byte that never appears in text:
// 0x00-0x08, 0x0B, 0x0E-0x1A or 0x1C-0x1F.
func hasBinaryByte(data []byte) bool {
	for _, b := range data {
		switch {
		case b <= 0x08, b == 0x0B, b >= 0x0E && b <= 0x1A, b >= 0x1C && b <= 0x1F:
			return true
		}
	}
	return false
}

// IsText reports whether mimeType belongs to the top-level "text" category.
// Parameters such as charset are ignored.
func IsText(mimeType string) bool {
	mediaType, _, _ := strings.Cut(mimeType, ";")
	top, _, _ := strings.Cut(strings.TrimSpace(mediaType), "/")
	return strings.EqualFold(top, "text")
}

// Render returns what the editor is given for data: the UTF-8 normalized text
// when s classifies it as text, BinaryPlaceholder otherwise.
func Render(s Sniffer, data []byte) string {
	if !IsText(s.Sniff(data)) {
		return BinaryPlaceholder
	}
	return string(NormalizeUTF8(data))
}

var _ Sniffer = DetectSniffer{}
