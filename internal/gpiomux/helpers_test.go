package gpiomux

import (
	"time"

	"github.com/nerrad567/flashmux/internal/strobe"
)

type stubDevice struct {
	name     string
	data     strobe.Data
	triggers int
}

func (d *stubDevice) Name() string                 { return d.name }
func (d *stubDevice) StrobeData() *strobe.Data     { return &d.data }
func (d *stubDevice) StrobeTimeout() time.Duration { return 0 }
func (d *stubDevice) ClearExternalStrobe()         {}

func (d *stubDevice) TriggerSoftwareStrobe() error {
	d.triggers++
	return nil
}
