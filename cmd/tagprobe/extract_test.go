package main

import (
	"bytes"
	"testing"

	"github.com/On-Jun9/TagProbe/pkg/types"
)

// TestWriteAttributes_Formats는 테스트 코드 동작을 검증하거나 보조합니다.
func TestWriteAttributes_Formats(t *testing.T) {
	// text는 태그 이름순, json/yaml은 맵 형태로 출력되어야 한다.
	attrs := types.Attributes{"Model": "FC3582", "Make": "DJI"}

	tests := []struct {
		format string
		want   string
	}{
		{format: "text", want: "Make: DJI\nModel: FC3582\n"},
		{format: "json", want: "{\n  \"Make\": \"DJI\",\n  \"Model\": \"FC3582\"\n}\n"},
		{format: "yaml", want: "Make: DJI\nModel: FC3582\n"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := writeAttributes(&buf, tt.format, attrs); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.format, err)
		}
		if buf.String() != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.format, buf.String(), tt.want)
		}
	}

	if err := writeAttributes(&bytes.Buffer{}, "xml", attrs); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
