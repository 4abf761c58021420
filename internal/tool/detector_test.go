package tool

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Codedkv/capstone-agents-mvp/internal/domain"
	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
)

func TestDetectorIQRFlagsOutlier(t *testing.T) {
	d := NewDetector()
	data := []float64{50000, 52000, 48000, 51000, 120000, 49000}

	result, err := d.Detect(data, domain.DetectionMethodIQR, 1.5)
	require.Nil(t, err)
	assert.Equal(t, []float64{120000}, result.Anomalies)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, domain.DetectionMethodIQR, result.Method)
}

func TestDetectorIQRDeterministic(t *testing.T) {
	d := NewDetector()
	data := []float64{50000, 52000, 48000, 51000, 120000, 49000}

	first, err := d.Detect(data, domain.DetectionMethodIQR, 1.5)
	require.Nil(t, err)
	for i := 0; i < 10; i++ {
		again, err := d.Detect(data, domain.DetectionMethodIQR, 1.5)
		require.Nil(t, err)
		assert.Equal(t, first.Anomalies, again.Anomalies)
	}
}

func TestDetectorIQRPreservesInputOrder(t *testing.T) {
	d := NewDetector()
	// Two outliers, the larger one first in the input.
	data := []float64{900, 10, 11, 12, 10, 11, 12, 10, 11, 12, 800}

	result, err := d.Detect(data, domain.DetectionMethodIQR, 1.5)
	require.Nil(t, err)
	assert.Equal(t, []float64{900, 800}, result.Anomalies)
}

func TestDetectorZScoreZeroVariance(t *testing.T) {
	d := NewDetector()

	result, err := d.Detect([]float64{10, 10, 10}, domain.DetectionMethodZScore, 2.0)
	require.Nil(t, err)
	assert.Empty(t, result.Anomalies)
	assert.Equal(t, 0, result.Count)
}

func TestDetectorZScoreFlagsOutlier(t *testing.T) {
	d := NewDetector()
	data := []float64{50000, 52000, 48000, 51000, 120000, 49000, 50500}

	result, err := d.Detect(data, domain.DetectionMethodZScore, 2.0)
	require.Nil(t, err)
	assert.Contains(t, result.Anomalies, 120000.0)
}

func TestDetectorInsufficientData(t *testing.T) {
	d := NewDetector()

	_, err := d.Detect([]float64{1, 2}, domain.DetectionMethodIQR, 1.5)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeInsufficientData, err.Code)

	_, err = d.Detect([]float64{1}, domain.DetectionMethodZScore, 2.0)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeInsufficientData, err.Code)
}

func TestDetectorUnsupportedMethod(t *testing.T) {
	d := NewDetector()

	_, err := d.Detect([]float64{1, 2, 3, 4}, domain.DetectionMethod("median"), 1.5)
	require.NotNil(t, err)
	assert.Equal(t, apperrors.CodeUnsupportedMethod, err.Code)
}

func TestDetectorExecuteContract(t *testing.T) {
	d := NewDetector()

	res := d.Execute(context.Background(), Args{
		"data":      []float64{50000, 52000, 48000, 51000, 120000, 49000},
		"method":    "iqr",
		"threshold": 1.5,
	})
	require.True(t, res.OK)
	result, ok := res.Value.(domain.DetectionResult)
	require.True(t, ok)
	assert.Equal(t, 1, result.Count)

	res = d.Execute(context.Background(), Args{"data": []float64{1, 2}, "method": "iqr"})
	require.False(t, res.OK)
	assert.Equal(t, apperrors.CodeInsufficientData, res.Err.Code)
}

func TestDetectorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	d := NewDetector()

	seriesGen := gen.SliceOfN(12, gen.Float64Range(-1e6, 1e6))

	properties.Property("iqr detection is deterministic", prop.ForAll(
		func(data []float64) bool {
			a, errA := d.Detect(data, domain.DetectionMethodIQR, 1.5)
			b, errB := d.Detect(data, domain.DetectionMethodIQR, 1.5)
			if errA != nil || errB != nil {
				return errA != nil && errB != nil
			}
			if len(a.Anomalies) != len(b.Anomalies) {
				return false
			}
			for i := range a.Anomalies {
				if a.Anomalies[i] != b.Anomalies[i] {
					return false
				}
			}
			return true
		},
		seriesGen,
	))

	properties.Property("constant series has no zscore anomalies", prop.ForAll(
		func(value float64, n int) bool {
			data := make([]float64, n)
			for i := range data {
				data[i] = value
			}
			result, err := d.Detect(data, domain.DetectionMethodZScore, 2.0)
			return err == nil && len(result.Anomalies) == 0
		},
		gen.Float64Range(-1e6, 1e6),
		gen.IntRange(2, 50),
	))

	properties.Property("anomaly count matches anomaly list length", prop.ForAll(
		func(data []float64) bool {
			result, err := d.Detect(data, domain.DetectionMethodIQR, 1.5)
			if err != nil {
				return true
			}
			return result.Count == len(result.Anomalies)
		},
		seriesGen,
	))

	properties.TestingRun(t)
}
