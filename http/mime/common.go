package mime

import "strings"

type MIME = string

const (
	OctetStream MIME = "application/octet-stream"
	Plain       MIME = "text/plain"
	HTML        MIME = "text/html"
	XML         MIME = "text/xml"
	JSON        MIME = "application/json"
	YAML        MIME = "application/yaml"
	PDF         MIME = "application/pdf"
	ZIP         MIME = "application/zip"
	CSS         MIME = "text/css"
	GIF         MIME = "image/gif"
	JPEG        MIME = "image/jpeg"
	PNG         MIME = "image/png"
	SVG         MIME = "image/svg+xml"
	ICO         MIME = "image/vnd.microsoft.icon"
	WEBP        MIME = "image/webp"
	JS          MIME = "text/javascript"
	WASM        MIME = "application/wasm"
)

// Complies returns whether a Content-Type header value denotes the MIME. Parameters
// (e.g. charset) are ignored and an empty value is compatible with anything.
func Complies(mime MIME, with string) bool {
	with, _, _ = strings.Cut(with, ";")
	with = strings.TrimSpace(with)

	return len(with) == 0 || strings.EqualFold(with, mime)
}

// ByExtension returns the MIME registered for a file extension (with the leading
// dot), or OctetStream.
func ByExtension(ext string) MIME {
	if mime, found := Extension[strings.ToLower(ext)]; found {
		return mime
	}

	return OctetStream
}
