// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Bar tracks the progress of a known number of items.
type Bar interface {
	Add(int) error
	Close() error
}

type ProgressBar struct {
	*progressbar.ProgressBar
}

type Option func(*options)

type options struct {
	writer io.Writer
}

// WithWriter sets where the bar is rendered. Defaults to stderr.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// NewRowsBar returns a bar counting the rows loaded out of total.
func NewRowsBar(total int, description string, opts ...Option) *ProgressBar {
	o := &options{writer: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	return &ProgressBar{
		ProgressBar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(o.writer),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("rows"),
			progressbar.OptionShowIts(),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetWidth(20),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetDescription(description),
			progressbar.OptionOnCompletion(func() {
				_, _ = io.WriteString(o.writer, "\n")
			}),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			})),
	}
}
