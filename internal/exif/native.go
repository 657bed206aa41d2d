package exif

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// NativeInvoker decodes embedded EXIF in-process and renders it in the
// same columnar report format exiftool prints, so the regular parser and
// filter policies apply unchanged. Fields are emitted in name order.
type NativeInvoker struct{}

func NewNativeInvoker() *NativeInvoker {
	return &NativeInvoker{}
}

type fieldCollector struct {
	fields map[string]string
}

func (c *fieldCollector) Walk(name goexif.FieldName, tag *tiff.Tag) error {
	value := tag.String()
	if tag.Format() == tiff.StringVal {
		if s, err := tag.StringVal(); err == nil {
			value = s
		}
	}
	c.fields[string(name)] = value
	return nil
}

func (n *NativeInvoker) Invoke(path string) (Output, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Output{
			Stderr:   []byte("Error: File not found - " + path + "\n"),
			ExitCode: 1,
		}, nil
	}
	if err != nil {
		return Output{}, err
	}
	defer f.Close()

	x, err := goexif.Decode(f)
	if err != nil && (x == nil || goexif.IsCriticalError(err)) {
		return Output{
			Stderr: []byte("Warning: no EXIF data - " + path + "\n"),
		}, nil
	}

	c := &fieldCollector{fields: make(map[string]string)}
	if err := x.Walk(c); err != nil {
		return Output{}, err
	}

	return Output{Stdout: renderReport(c.fields)}, nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// renderReport prints fields one per line in name order. Line breaks inside
// values become spaces so each field stays on a single report line.
func renderReport(fields map[string]string) []byte {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	for _, name := range names {
		fmt.Fprintf(&buf, "%-32s: %s\n", name, lineBreaks.Replace(fields[name]))
	}
	return buf.Bytes()
}
