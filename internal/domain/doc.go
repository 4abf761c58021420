// Package domain contains the core types of the analytics pipeline:
// business metric rows, detected anomalies and patterns, recommendations,
// and the final report payload. These types flow between phases through the
// shared context and are serialized as-is into exported artifacts.
package domain
