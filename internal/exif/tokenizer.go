package exif

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// decode converts captured bytes to text, refusing invalid UTF-8 rather
// than substituting replacement characters.
func decode(stream string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", &Error{Kind: KindDecode, Msg: stream + " is not valid utf-8"}
	}
	return string(b), nil
}

func splitLines(text string) []string {
	return strings.Split(text, "\n")
}

// segments splits a report line on every colon.
func segments(line string) []string {
	return strings.Split(line, ":")
}

// tagOf normalizes the first segment by dropping all whitespace, so
// "  GPS Latitude  " becomes "GPSLatitude".
func tagOf(segs []string) (string, error) {
	if len(segs) == 0 {
		return "", &Error{Kind: KindTag, Msg: "error getting tag from exif data"}
	}
	return stripSpace(segs[0]), nil
}

// valueOf takes the last segment, not everything after the first colon.
// A line without a colon yields the whole line as its value.
func valueOf(segs []string) (string, error) {
	if len(segs) == 0 {
		return "", &Error{Kind: KindValue, Msg: "error getting value from exif data"}
	}
	return strings.TrimSpace(segs[len(segs)-1]), nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
