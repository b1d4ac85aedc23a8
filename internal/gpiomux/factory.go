package gpiomux

import (
	"fmt"

	"github.com/nerrad567/flashmux/internal/strobe"
	"github.com/nerrad567/flashmux/internal/topology"
)

// Logger defines the logging interface used by the Factory.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Factory builds GPIO muxes from topology nodes. It implements
// strobe.LocalMuxFactory.
type Factory struct {
	logger Logger
}

// NewFactory returns a factory that looks pins up in the periph GPIO registry.
func NewFactory() *Factory {
	return &Factory{logger: noopLogger{}}
}

// SetLogger sets the logger for the factory.
func (f *Factory) SetLogger(logger Logger) {
	f.logger = logger
}

// NewMux reads the gpios property of node and claims the pins it names.
func (f *Factory) NewMux(node *topology.Node) (strobe.MuxOps, error) {
	pins, err := node.Strings(gpiosProp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", strobe.ErrConfig, err)
	}

	m, err := New(node.Path(), pins)
	if err != nil {
		return nil, err
	}

	f.logger.Info("gpio mux created", "mux", node.Path(), "selectors", pins)
	return m, nil
}
