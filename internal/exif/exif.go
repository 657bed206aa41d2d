// Package exif turns a metadata tool's columnar `tag : value` report into
// a map of tag name to value.
package exif

import (
	"errors"
	"strings"

	"github.com/On-Jun9/TagProbe/pkg/types"
)

const fileNotFoundMarker = "File not found"

// Exif holds the attributes extracted from one file.
type Exif struct {
	Attributes types.Attributes
}

// New extracts attributes from filePath with the default exiftool invoker.
func New(filePath string, policy Policy) (*Exif, error) {
	return NewExtractor(nil).Extract(filePath, policy)
}

// Extractor runs an Invoker and parses what it reports. It holds no
// per-call state and may be used from many goroutines.
type Extractor struct {
	invoker Invoker
}

func NewExtractor(inv Invoker) *Extractor {
	if inv == nil {
		inv = NewCommandInvoker(DefaultTool)
	}
	return &Extractor{invoker: inv}
}

func (e *Extractor) Extract(filePath string, policy Policy) (*Exif, error) {
	out, err := e.invoker.Invoke(filePath)
	if err != nil {
		return nil, &Error{Kind: KindToolInvocation, Path: filePath, Err: err}
	}

	x, err := Parse(out.Stdout, out.Stderr, policy)
	if err != nil {
		var xe *Error
		if errors.As(err, &xe) && xe.Path == "" {
			xe.Path = filePath
		}
		return nil, err
	}
	return x, nil
}

// Parse decodes a captured report and applies policy to it line by line.
func Parse(stdout, stderr []byte, policy Policy) (*Exif, error) {
	text, err := decode("stdout", stdout)
	if err != nil {
		return nil, err
	}
	errText, err := decode("stderr", stderr)
	if err != nil {
		return nil, err
	}

	if strings.Contains(errText, fileNotFoundMarker) {
		return nil, &Error{Kind: KindFileNotFound, Msg: strings.TrimSpace(errText)}
	}

	x := &Exif{Attributes: make(types.Attributes)}
	state := newScanState(policy)

	for _, line := range splitLines(text) {
		if !state.scanning {
			break
		}

		segs := segments(line)
		tag, err := tagOf(segs)
		if err != nil {
			return nil, err
		}
		if tag == "" {
			continue
		}

		if !state.decide(tag) {
			continue
		}

		value, err := valueOf(segs)
		if err != nil {
			return nil, err
		}
		x.Attributes[tag] = value
	}

	return x, nil
}
