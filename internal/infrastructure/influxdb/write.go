package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementStrobe = "strobe"
)

// Strobe path tag values.
const (
	PathSoftware = "software"
	PathExternal = "external"
)

// StrobeSample is one routed strobe.
type StrobeSample struct {
	Device   string
	External bool
	Provider string
	Blocked  time.Duration
	OK       bool
	At       time.Time
}

// WriteStrobe records a strobe in the "strobe" measurement.
//
//	strobe,device=front,path=external,provider=isp blocked_ms=100i,ok=true
func (c *Client) WriteStrobe(s StrobeSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(strobePoint(s))
}

func strobePoint(s StrobeSample) *write.Point {
	path := PathSoftware
	if s.External {
		path = PathExternal
	}
	tags := map[string]string{
		"device": s.Device,
		"path":   path,
	}
	if s.Provider != "" {
		tags["provider"] = s.Provider
	}
	at := s.At
	if at.IsZero() {
		at = time.Now()
	}
	return write.NewPoint(MeasurementStrobe, tags, map[string]any{
		"blocked_ms": s.Blocked.Milliseconds(),
		"ok":         s.OK,
	}, at)
}
