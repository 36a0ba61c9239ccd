// Package content classifies file bytes as text or binary and normalizes text
// to UTF-8 for delivery to the editor.
//
// Classification is content based, never extension based: a Sniffer inspects
// the leading bytes of a file and reports a MIME type. Only types in the
// top-level "text" category are delivered verbatim; anything else is replaced
// with [BinaryPlaceholder].
//
// # Sniffing
//
// [DetectSniffer] implements the WHATWG MIME sniffing algorithm through
// net/http. Callers that need a different classifier (libmagic bindings, an
// allow-list) supply their own [Sniffer]:
//
//	type magicSniffer struct{ cookie *magic.Cookie }
//
//	func (s magicSniffer) Sniff(data []byte) string { return s.cookie.Buffer(data) }
//
// # Normalization
//
// [NormalizeUTF8] passes valid UTF-8 through untouched and transcodes anything
// else. Byte-order-marked UTF-16 is decoded as such; all other input is taken
// to be Windows-1252, the encoding most legacy sketch files were saved in.
// The function is idempotent.
package content
