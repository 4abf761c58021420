package evaluation

// TestCase describes one evaluation scenario with expected outcomes.
type TestCase struct {
	Name                   string `json:"name"`
	Description            string `json:"description"`
	CSVFile                string `json:"csv_file"`
	ExpectedAnomalies      int    `json:"expected_anomalies"`
	ExpectedRecommendedMin int    `json:"expected_recommendations_min"`
	ExpectedSeverity       string `json:"expected_severity"`
	// Threshold is the minimum normalized score (0-1) to pass.
	Threshold float64 `json:"threshold"`
}

// EdgeCase describes a malformed input the pipeline must reject cleanly.
type EdgeCase struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CSVContent  string `json:"csv_content"`
	ExpectError bool   `json:"expected_error"`
	ErrorType   string `json:"error_type"`
}

// DefaultTestCases are the built-in evaluation scenarios.
var DefaultTestCases = []TestCase{
	{
		Name:                   "normal_operations",
		Description:            "Baseline test with one anomaly",
		CSVFile:                "data/sample_business_metrics.csv",
		ExpectedAnomalies:      1,
		ExpectedRecommendedMin: 3,
		ExpectedSeverity:       "HIGH",
		Threshold:              0.85,
	},
	{
		Name:                   "no_anomalies",
		Description:            "Normal metrics without anomalies",
		CSVFile:                "data/normal_metrics.csv",
		ExpectedAnomalies:      0,
		ExpectedRecommendedMin: 1,
		ExpectedSeverity:       "LOW",
		Threshold:              0.90,
	},
	{
		Name:                   "multiple_anomalies",
		Description:            "Volatile metrics with multiple anomalies",
		CSVFile:                "data/volatile_metrics.csv",
		ExpectedAnomalies:      2,
		ExpectedRecommendedMin: 4,
		ExpectedSeverity:       "HIGH",
		Threshold:              0.82,
	},
}

// DefaultEdgeCases are the built-in malformed inputs. Each must surface
// as a categorized load failure, never a crash.
var DefaultEdgeCases = []EdgeCase{
	{
		Name:        "empty_csv",
		Description: "Empty CSV file",
		CSVContent:  "date,revenue,costs,customers\n",
		ExpectError: true,
		ErrorType:   "data_loading_error",
	},
	{
		Name:        "missing_columns",
		Description: "CSV with missing required columns",
		CSVContent:  "date,revenue\n2024-01-01,50000\n",
		ExpectError: true,
		ErrorType:   "validation_error",
	},
	{
		Name:        "invalid_data_types",
		Description: "Non-numeric values in numeric columns",
		CSVContent:  "date,revenue,costs,customers\n2024-01-01,invalid,30000,150\n",
		ExpectError: true,
		ErrorType:   "data_type_error",
	},
}

// CaseByName returns the built-in test case with the given name.
func CaseByName(name string) (TestCase, bool) {
	for _, tc := range DefaultTestCases {
		if tc.Name == name {
			return tc, true
		}
	}
	return TestCase{}, false
}
