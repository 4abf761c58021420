package domain

import "time"

// DetectionMethod represents the algorithm used for anomaly detection
type DetectionMethod string

const (
	DetectionMethodIQR    DetectionMethod = "iqr"
	DetectionMethodZScore DetectionMethod = "zscore"
	// DetectionMethodUnion marks a combined IQR and Z-score detection pass.
	DetectionMethodUnion DetectionMethod = "iqr+zscore"
)

// Severity represents an overall severity level
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// rank orders severities from least to most severe
func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Max returns the more severe of the two
func (s Severity) Max(other Severity) Severity {
	if other.rank() > s.rank() {
		return other
	}
	return s
}

// DetectionResult is the payload produced by one anomaly detection run
type DetectionResult struct {
	Anomalies []float64       `json:"anomalies"`
	Count     int             `json:"count"`
	Method    DetectionMethod `json:"method"`
}

// PatternType classifies how an anomalous value deviates from the baseline
type PatternType string

const (
	PatternSpike       PatternType = "spike"
	PatternDrop        PatternType = "drop"
	PatternTrend       PatternType = "trend"
	PatternFluctuation PatternType = "fluctuation"
)

// AnomalyPattern is a detected anomaly pattern with metadata
type AnomalyPattern struct {
	Metric     string      `json:"metric"`
	Type       PatternType `json:"pattern_type"`
	Severity   Severity    `json:"severity"`
	Values     []float64   `json:"values"`
	Timestamps []string    `json:"timestamps"`
	// Magnitude is the absolute deviation percentage from the metric baseline
	Magnitude  float64   `json:"magnitude"`
	Confidence float64   `json:"confidence"`
	DetectedAt time.Time `json:"detected_at"`
}

// Cause is a candidate root cause for a detected pattern
type Cause struct {
	Cause      string  `json:"cause"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
}

// Trend is one market context entry returned by the trends search
type Trend struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link,omitempty"`
	Source  string `json:"source"`
}

// AnalysisResult is the complete output of the analysis phase
type AnalysisResult struct {
	Patterns        []AnomalyPattern `json:"patterns"`
	PotentialCauses []Cause          `json:"potential_causes"`
	Severity        Severity         `json:"severity"`
	MarketContext   []Trend          `json:"market_context"`
	Confidence      float64          `json:"confidence"`
	AnalyzedAt      time.Time        `json:"analyzed_at"`
}
