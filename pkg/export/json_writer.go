// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/xataio/samplekit/internal/json"
	loglib "github.com/xataio/samplekit/pkg/log"
	"github.com/xataio/samplekit/pkg/sample"
)

// JSONWriter encodes records as a single JSON array.
type JSONWriter struct {
	logger loglib.Logger
	pretty bool
}

type Option func(w *JSONWriter)

const prettyIndent = "    "

func NewJSONWriter(opts ...Option) *JSONWriter {
	w := &JSONWriter{
		logger: loglib.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func WithLogger(l loglib.Logger) Option {
	return func(w *JSONWriter) {
		w.logger = loglib.ModuleLogger(l, "json_writer")
	}
}

// WithPrettyPrint indents the output with four spaces.
func WithPrettyPrint() Option {
	return func(w *JSONWriter) {
		w.pretty = true
	}
}

// Write encodes the records to the writer on input. An empty record list is
// written as an empty array.
func (w *JSONWriter) Write(out io.Writer, records []sample.Record) error {
	if records == nil {
		records = []sample.Record{}
	}

	var data []byte
	var err error
	if w.pretty {
		data, err = json.MarshalIndent(records, "", prettyIndent)
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	return nil
}

// WriteFile creates or truncates the file and writes the records to it.
func (w *JSONWriter) WriteFile(path string, records []sample.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, closeErr)
		}
	}()

	buf := bufio.NewWriter(f)
	if err := w.Write(buf, records); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	w.logger.Info("records written", loglib.Fields{
		"path":    path,
		"records": len(records),
	})
	return nil
}
