// Package config handles loading and validating flashmuxd configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with FLASHMUX_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// The strobe topology itself lives in a separate file (topology.path) and is
// parsed by the topology package; this package only describes where to find
// it and which flash outputs hang off which topology nodes.
//
// Security Considerations:
//   - Broker passwords and InfluxDB tokens should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/flashmux.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range cfg.Flashes {
//	    fmt.Println(f.Name, f.Node)
//	}
package config
