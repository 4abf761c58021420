package domain

// Report defaults used when a run finishes without findings, so the final
// report is never blank.
const (
	DefaultIssueDescription = "No significant anomalies detected"
	DefaultRecommendation   = "Continue monitoring business metrics"
)

// Issue is a single reported finding
type Issue struct {
	Description string `json:"description"`
	// Severity is lowercase in report payloads: low, medium, high
	Severity string `json:"severity"`
}

// Report is the final report payload handed to the rendering collaborator
type Report struct {
	Title           string   `json:"title"`
	Issues          []Issue  `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// MetricRow is one row of the business metrics dataset
type MetricRow struct {
	Date      string  `json:"date"`
	Revenue   float64 `json:"revenue"`
	Costs     float64 `json:"costs"`
	Customers float64 `json:"customers"`
}
