// Package config loads GradeGraph configuration.
//
// # Configuration Sources
//
// Values are layered, later sources winning:
//
//  1. Default()
//  2. A YAML file: $GRADEGRAPH_CONFIG, else gradegraph.yaml, config.yaml or
//     configs/config.yaml in the working directory
//  3. Environment variables
//
// # Environment Variables
//
// Variables are prefixed with GRADEGRAPH and follow the struct layout:
//
//	GRADEGRAPH_SERVER_PORT=8080
//	GRADEGRAPH_UPLOAD_MAX_SIZE_MB=16
//	GRADEGRAPH_STORE_ENABLED=true
//	GRADEGRAPH_STORE_DRIVER=postgres
//	GRADEGRAPH_STORE_DSN=postgres://localhost:5432/gradegraph
//	GRADEGRAPH_CLASSIFICATION_BRIGHT_MIN=75
//
// # Path Management
//
// Relative directories are anchored at the executable directory through
// GetPaths, so the binary behaves the same from any working directory.
package config
