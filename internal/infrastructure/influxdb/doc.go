// Package influxdb sends flashmuxd strobe telemetry to InfluxDB v2.
//
// Every routed strobe becomes one point:
//
//	measurement: strobe
//	tags:        device, path (software|external), provider
//	fields:      blocked_ms (int), ok (bool)
//
// Points are batched by influxdb-client-go's non-blocking write API;
// influxdb.batch_size and influxdb.flush_interval tune the batching.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // run without telemetry
//	}
//	defer client.Close()
//
//	client.SetOnError(func(err error) { log.Warn("influx write failed", "error", err) })
//	client.WriteStrobe(influxdb.StrobeSample{Device: "front", OK: true})
package influxdb
