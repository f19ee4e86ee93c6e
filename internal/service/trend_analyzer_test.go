package service

import (
	"testing"

	"smart_edu_backend/internal/model"
)

func trendPoints(rates ...float64) []model.TrendPoint {
	points := make([]model.TrendPoint, len(rates))
	for i, r := range rates {
		points[i] = model.TrendPoint{ScoreRate: r}
	}
	return points
}

func TestAnalyzeTrend(t *testing.T) {
	tests := []struct {
		name       string
		rates      []float64
		wantDir    model.TrendDirection
		wantSlope  float64
		checkSlope bool
	}{
		{
			name:       "improving",
			rates:      []float64{0.5, 0.6, 0.7},
			wantDir:    model.TrendImproving,
			wantSlope:  0.1,
			checkSlope: true,
		},
		{
			name:       "declining",
			rates:      []float64{0.9, 0.8, 0.7},
			wantDir:    model.TrendDeclining,
			wantSlope:  -0.1,
			checkSlope: true,
		},
		{
			name:       "flat",
			rates:      []float64{0.75, 0.75, 0.75},
			wantDir:    model.TrendStable,
			wantSlope:  0,
			checkSlope: true,
		},
		{
			name:    "noise within epsilon",
			rates:   []float64{0.70, 0.71, 0.70, 0.71},
			wantDir: model.TrendStable,
		},
		{
			name:       "v-shaped but trendless",
			rates:      []float64{0.9, 0.6, 0.6, 0.9},
			wantDir:    model.TrendStable,
			wantSlope:  0,
			checkSlope: true,
		},
		{
			name:       "single point",
			rates:      []float64{0.8},
			wantDir:    model.TrendStable,
			wantSlope:  0,
			checkSlope: true,
		},
		{
			name:       "no points",
			rates:      nil,
			wantDir:    model.TrendStable,
			wantSlope:  0,
			checkSlope: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, slope := AnalyzeTrend(trendPoints(tt.rates...), 0.02)
			if dir != tt.wantDir {
				t.Errorf("direction = %v, want %v (slope %v)", dir, tt.wantDir, slope)
			}
			if tt.checkSlope && !almostEqual(slope, tt.wantSlope) {
				t.Errorf("slope = %v, want %v", slope, tt.wantSlope)
			}
		})
	}
}

func TestAnalyzeTrendEpsilonControlsSensitivity(t *testing.T) {
	points := trendPoints(0.5, 0.54)

	// 两点斜率 0.04：宽阈值视为平稳，窄阈值视为上升
	if dir, _ := AnalyzeTrend(points, 0.05); dir != model.TrendStable {
		t.Errorf("epsilon 0.05: direction = %v, want stable", dir)
	}
	if dir, _ := AnalyzeTrend(points, 0.01); dir != model.TrendImproving {
		t.Errorf("epsilon 0.01: direction = %v, want improving", dir)
	}
}
