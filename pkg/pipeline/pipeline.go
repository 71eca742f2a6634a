// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"

	"github.com/xataio/samplekit/internal/progress"
	loglib "github.com/xataio/samplekit/pkg/log"
	"github.com/xataio/samplekit/pkg/otel"
	"github.com/xataio/samplekit/pkg/sink"
	sinkinstrumentation "github.com/xataio/samplekit/pkg/sink/instrumentation"
	pgsink "github.com/xataio/samplekit/pkg/sink/postgres"
)

// Pipeline runs the samplekit operations for a configuration: exporting and
// validating sample tables, and loading catalogs into the sink.
type Pipeline struct {
	config          *Config
	logger          loglib.Logger
	instrumentation *otel.Instrumentation
	clock           clockwork.Clock
	newRunID        func() string
	newSinkStore    func(ctx context.Context) (sink.Store, error)
	newProgressBar  func(total int, description string) progress.Bar
}

type Option func(p *Pipeline)

func New(cfg *Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("incompatible configuration: %w", err)
	}

	p := &Pipeline{
		config:   cfg,
		logger:   loglib.NewNoopLogger(),
		clock:    clockwork.NewRealClock(),
		newRunID: uuid.NewString,
	}
	p.newSinkStore = p.postgresSinkStore

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

func WithLogger(l loglib.Logger) Option {
	return func(p *Pipeline) {
		p.logger = loglib.ModuleLogger(l, "pipeline")
	}
}

func WithInstrumentation(i *otel.Instrumentation) Option {
	return func(p *Pipeline) {
		p.instrumentation = i
	}
}

func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithProgressBar renders the progress of catalog loads with the bars
// returned by the builder on input.
func WithProgressBar(builder func(total int, description string) progress.Bar) Option {
	return func(p *Pipeline) {
		p.newProgressBar = builder
	}
}

func withRunIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		p.newRunID = fn
	}
}

func withSinkStore(fn func(ctx context.Context) (sink.Store, error)) Option {
	return func(p *Pipeline) {
		p.newSinkStore = fn
	}
}

func (p *Pipeline) postgresSinkStore(ctx context.Context) (sink.Store, error) {
	if p.config.SinkURL() == "" {
		return nil, errMissingSinkConfig
	}

	store, err := pgsink.New(ctx, p.config.Sink.Postgres,
		pgsink.WithLogger(p.logger),
		pgsink.WithInstrumentation(p.instrumentation))
	if err != nil {
		return nil, err
	}
	return sinkinstrumentation.NewStore(store, p.instrumentation), nil
}

func (p *Pipeline) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !p.instrumentation.IsEnabled() {
		return ctx, nil
	}
	return otel.StartSpan(ctx, p.instrumentation.Tracer, name, opts...)
}

// Init prepares the sink database for catalog loads.
func Init(ctx context.Context, cfg *Config) error {
	return pgsink.Init(ctx, cfg.SinkURL())
}

// Destroy removes the catalogs and the samplekit schema from the sink
// database.
func Destroy(ctx context.Context, cfg *Config) error {
	return pgsink.Destroy(ctx, cfg.SinkURL())
}

// Status reports whether the sink database is initialised.
func Status(ctx context.Context, cfg *Config) (*pgsink.InitStatus, error) {
	return pgsink.Status(ctx, cfg.SinkURL())
}
