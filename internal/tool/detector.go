package tool

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
)

// Default thresholds per detection method
const (
	DefaultIQRMultiplier   = 1.5
	DefaultZScoreThreshold = 3.0
)

// Detector flags statistically unusual values in a numeric series. It is
// pure and deterministic: the same data and parameters always produce the
// same result, so it can be property-tested without mocking.
type Detector struct{}

// NewDetector creates the anomaly detection tool.
func NewDetector() *Detector {
	return &Detector{}
}

func (d *Detector) Name() string { return "detect_anomalies" }

func (d *Detector) Description() string {
	return "Detect anomalies in numerical data using statistical methods"
}

// Execute runs detection over the "data" argument with the given "method"
// and "threshold". Missing thresholds fall back to the method default.
func (d *Detector) Execute(ctx context.Context, args Args) Result {
	start := time.Now()

	data := args.Floats("data")
	method := domain.DetectionMethod(args.String("method", string(domain.DetectionMethodIQR)))

	def := DefaultIQRMultiplier
	if method == domain.DetectionMethodZScore {
		def = DefaultZScoreThreshold
	}
	threshold := args.Float("threshold", def)

	result, err := d.Detect(data, method, threshold)
	if err != nil {
		return Fail(err).Timed(start)
	}
	return Ok(result).Timed(start)
}

// Detect flags values in data that are unusual under the chosen method.
// IQR needs at least 3 samples (quartiles), Z-score at least 2 (a standard
// deviation). The anomaly order follows input order, not detection order.
func (d *Detector) Detect(data []float64, method domain.DetectionMethod, threshold float64) (domain.DetectionResult, *apperrors.AppError) {
	switch method {
	case domain.DetectionMethodIQR:
		if len(data) < 3 {
			return domain.DetectionResult{}, apperrors.InsufficientData(
				fmt.Sprintf("IQR detection needs at least 3 samples, got %d", len(data)))
		}
		return d.detectIQR(data, threshold), nil

	case domain.DetectionMethodZScore:
		if len(data) < 2 {
			return domain.DetectionResult{}, apperrors.InsufficientData(
				fmt.Sprintf("Z-score detection needs at least 2 samples, got %d", len(data)))
		}
		return d.detectZScore(data, threshold), nil

	default:
		return domain.DetectionResult{}, apperrors.UnsupportedMethod(string(method))
	}
}

// detectIQR flags values outside [q1 - threshold*iqr, q3 + threshold*iqr].
func (d *Detector) detectIQR(data []float64, threshold float64) domain.DetectionResult {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1
	lower := q1 - threshold*iqr
	upper := q3 + threshold*iqr

	anomalies := make([]float64, 0)
	for _, v := range data {
		if v < lower || v > upper {
			anomalies = append(anomalies, v)
		}
	}

	return domain.DetectionResult{
		Anomalies: anomalies,
		Count:     len(anomalies),
		Method:    domain.DetectionMethodIQR,
	}
}

// detectZScore flags values whose distance from the sample mean exceeds
// threshold standard deviations. A zero standard deviation flags nothing:
// a degenerate distribution is not an error.
func (d *Detector) detectZScore(data []float64, threshold float64) domain.DetectionResult {
	n := float64(len(data))

	var sum float64
	for _, v := range data {
		sum += v
	}
	mean := sum / n

	var sumSquares float64
	for _, v := range data {
		diff := v - mean
		sumSquares += diff * diff
	}
	stdDev := math.Sqrt(sumSquares / (n - 1))

	anomalies := make([]float64, 0)
	if stdDev > 0 {
		for _, v := range data {
			if math.Abs(v-mean)/stdDev > threshold {
				anomalies = append(anomalies, v)
			}
		}
	}

	return domain.DetectionResult{
		Anomalies: anomalies,
		Count:     len(anomalies),
		Method:    domain.DetectionMethodZScore,
	}
}

// percentile calculates the p-th percentile of sorted data using linear
// interpolation between adjacent ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100) * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	fraction := rank - float64(lower)
	return sorted[lower] + fraction*(sorted[upper]-sorted[lower])
}
