package mspar

import (
	"log"

	"github.com/viant/afs"
	"github.com/viant/mspar/service/generator"
	"github.com/viant/mspar/service/sink"
)

// Option customises a Service.
type Option func(s *Service)

// WithSink replaces the output destination configured by Config.Output.
func WithSink(snk sink.Sink) Option {
	return func(s *Service) { s.sink = snk }
}

// WithGenerator replaces the ms generator built from Config.Sample.
func WithGenerator(g generator.Generator) Option {
	return func(s *Service) { s.generator = g }
}

// WithLogger sets the logger shared by every rank.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithFs sets the file system used for output URLs.
func WithFs(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// WithRunID sets the run identifier used in logs and spans.
func WithRunID(id string) Option {
	return func(s *Service) { s.runID = id }
}
