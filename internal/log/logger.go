package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/On-Jun9/TagProbe/pkg/types"
)

var (
	headingColor = color.New(color.FgHiCyan, color.Bold)
	okColor      = color.New(color.FgHiGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgHiRed, color.Bold)
)

type Logger struct {
	mu      sync.Mutex
	console io.Writer
	file    *os.File
	logJSON bool
	logText bool
}

func New(logFilePath string, logJSON, logText bool) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{
		console: color.Output,
		file:    file,
		logJSON: logJSON,
		logText: logText,
	}, nil
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

type LogEntry struct {
	Timestamp time.Time          `json:"timestamp"`
	Level     string             `json:"level"`
	Message   string             `json:"message"`
	Path      string             `json:"path,omitempty"`
	Status    types.ResultStatus `json:"status,omitempty"`
	Tags      int                `json:"tags,omitempty"`
	Error     string             `json:"error,omitempty"`
	Duration  time.Duration      `json:"duration,omitempty"`
}

func (l *Logger) LogResult(result types.ExtractResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		Message:   fmt.Sprintf("%s: %s (%d tags)", result.Status, result.Path, len(result.Attributes)),
		Path:      result.Path,
		Status:    result.Status,
		Tags:      len(result.Attributes),
		Duration:  result.Duration,
	}

	switch result.Status {
	case types.ResultStatusNotFound:
		entry.Level = "WARN"
		entry.Error = result.Error
	case types.ResultStatusFailed:
		entry.Level = "ERROR"
		entry.Error = result.Error
	}

	l.writeEntry(entry)
}

func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "INFO",
		Message:   msg,
	}
	l.writeEntry(entry)
}

func (l *Logger) Error(msg string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     "ERROR",
		Message:   msg,
		Error:     err.Error(),
	}
	l.writeEntry(entry)
}

func (l *Logger) writeEntry(entry LogEntry) {
	if l.logJSON && l.file != nil {
		data, _ := json.Marshal(entry)
		l.file.Write(data)
		l.file.Write([]byte("\n"))
	}

	if l.logText && l.file != nil {
		line := fmt.Sprintf("[%s] %s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Level,
			entry.Message,
		)
		if entry.Error != "" {
			line = fmt.Sprintf("[%s] %s %s - Error: %s\n",
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.Level,
				entry.Message,
				entry.Error,
			)
		}
		l.file.WriteString(line)
	}
}

func (l *Logger) Summary(summary types.RunSummary) {
	headingColor.Fprintln(l.console, "\n=== TagProbe Summary ===")
	fmt.Fprintf(l.console, "Run:            %s\n", summary.RunID)
	fmt.Fprintf(l.console, "Scanned files:  %d\n", summary.ScannedFiles)
	fmt.Fprintf(l.console, "Total files:    %d\n", summary.TotalFiles)
	okColor.Fprintf(l.console, "Extracted:      %d\n", summary.Extracted)
	fmt.Fprintf(l.console, "Skipped:        %d\n", summary.Skipped)
	warnColor.Fprintf(l.console, "Not found:      %d\n", summary.NotFound)
	if summary.Failed > 0 {
		errorColor.Fprintf(l.console, "Failed:         %d\n", summary.Failed)
	} else {
		fmt.Fprintf(l.console, "Failed:         %d\n", summary.Failed)
	}
	fmt.Fprintf(l.console, "Tags:           %d\n", summary.Tags)
	fmt.Fprintf(l.console, "Duration:       %s\n", summary.Duration.Round(time.Millisecond))
	headingColor.Fprintln(l.console, "========================")
}

func (l *Logger) Progress(current, total int, filename string) {
	fmt.Fprintf(l.console, "\r[%d/%d] %s", current, total, filename)
}
