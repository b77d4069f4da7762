package reporting

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Writer serializes engine artifacts (validation results, threat models,
// reports) as pretty JSON, the shape the source-control collaborator consumes.
type Writer interface {
	Write(artifact any) error
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method, so
// stdout is never closed underneath the caller.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

type jsonWriter struct {
	out io.WriteCloser
}

var prettyJSON = jsoniter.Config{IndentionStep: 2, SortMapKeys: true}.Froze()

// NewWriter creates a Writer targeting the given path. An empty path or
// "stdout" writes to standard output.
func NewWriter(outputPath string) (Writer, error) {
	if outputPath == "" || outputPath == "stdout" {
		return &jsonWriter{out: &nopWriteCloser{os.Stdout}}, nil
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	return &jsonWriter{out: f}, nil
}

func (w *jsonWriter) Write(artifact any) error {
	data, err := prettyJSON.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if _, err := w.out.Write(data); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	_, err = io.WriteString(w.out, "\n")
	return err
}

func (w *jsonWriter) Close() error {
	return w.out.Close()
}
