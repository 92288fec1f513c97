// Package config provides centralized configuration management for the
// contract analytics service and CLI.
//
// # Configuration Sources
//
// Configuration is layered in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. A YAML file (CONTRACTS_CONFIG_FILE or config.yaml / configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern CONTRACTS_<SECTION>_<FIELD>:
//
//	CONTRACTS_SERVER_PORT=8080
//	CONTRACTS_LOGGING_LEVEL=debug
//	CONTRACTS_IMPORT_MAX_UPLOAD_BYTES=10485760
//	CONTRACTS_COMPLIANCE_DEFAULT_MODE=GIF
//	CONTRACTS_LOCATIONS_ABBREVIATIONS_FILE=configs/locations.yaml
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
