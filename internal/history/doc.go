// Package history records every routed strobe.
//
// The strobe manager hands a StrobeEvent to its Recorder once the routing
// section is released. The Recorder fans it out to:
//
//	SQLite    strobe_history table   (Recent / Prune for inspection and retention)
//	InfluxDB  "strobe" measurement   (dashboards)
//	MQTT      flashmux/event/strobe/{device}
//
// Sinks are optional and failures only log; recording never fails a strobe.
//
// Usage:
//
//	repo := history.NewSQLiteRepository(db.DB)
//	rec := history.NewRecorder(repo)
//	rec.SetMetrics(influx)
//	rec.SetPublisher(mqttClient)
//	mgr.SetRecorder(rec)
package history
