package service

import (
	"errors"
	"math"
	"testing"

	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/util"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestComputeScoreStats(t *testing.T) {
	cfg := config.AnalysisDefaults()

	t.Run("three scores", func(t *testing.T) {
		stats, err := ComputeScoreStats([]float64{92, 58, 75}, 100, cfg)
		if err != nil {
			t.Fatalf("ComputeScoreStats: %v", err)
		}

		if stats.Count != 3 {
			t.Errorf("Count = %d, want 3", stats.Count)
		}
		if !almostEqual(stats.Average, 75) {
			t.Errorf("Average = %v, want 75", stats.Average)
		}
		if !almostEqual(stats.Median, 75) {
			t.Errorf("Median = %v, want 75", stats.Median)
		}
		if stats.Max != 92 || stats.Min != 58 {
			t.Errorf("Max/Min = %v/%v, want 92/58", stats.Max, stats.Min)
		}
		// 总体标准差：偏差 -17, 0, 17
		wantStdDev := math.Sqrt(578.0 / 3.0)
		if !almostEqual(stats.StdDev, wantStdDev) {
			t.Errorf("StdDev = %v, want %v", stats.StdDev, wantStdDev)
		}
		if !almostEqual(stats.PassRate, 2.0/3.0) {
			t.Errorf("PassRate = %v, want 2/3", stats.PassRate)
		}
		if !almostEqual(stats.ExcellentRate, 1.0/3.0) {
			t.Errorf("ExcellentRate = %v, want 1/3", stats.ExcellentRate)
		}
		if stats.PassedCount != 2 || stats.ExcellentCount != 1 {
			t.Errorf("Passed/Excellent = %d/%d, want 2/1", stats.PassedCount, stats.ExcellentCount)
		}
	})

	t.Run("even count median", func(t *testing.T) {
		stats, err := ComputeScoreStats([]float64{90, 60, 80, 70}, 100, cfg)
		if err != nil {
			t.Fatalf("ComputeScoreStats: %v", err)
		}
		if !almostEqual(stats.Median, 75) {
			t.Errorf("Median = %v, want 75", stats.Median)
		}
	})

	t.Run("non-100 full score", func(t *testing.T) {
		// 120 分制，72 分正好踩在及格线上
		stats, err := ComputeScoreStats([]float64{72, 60}, 120, cfg)
		if err != nil {
			t.Fatalf("ComputeScoreStats: %v", err)
		}
		if !almostEqual(stats.PassRate, 0.5) {
			t.Errorf("PassRate = %v, want 0.5", stats.PassRate)
		}
	})

	t.Run("empty scores", func(t *testing.T) {
		if _, err := ComputeScoreStats(nil, 100, cfg); !errors.Is(err, util.ErrInsufficientData) {
			t.Errorf("err = %v, want ErrInsufficientData", err)
		}
	})

	t.Run("invalid full score", func(t *testing.T) {
		if _, err := ComputeScoreStats([]float64{80}, 0, cfg); !errors.Is(err, util.ErrInsufficientData) {
			t.Errorf("err = %v, want ErrInsufficientData", err)
		}
	})
}

func TestBuildLevelDistribution(t *testing.T) {
	levels := BuildLevelDistribution([]float64{100, 92, 75, 58}, 100)

	if len(levels) != 9 {
		t.Fatalf("len(levels) = %d, want 9", len(levels))
	}

	var total int
	counts := make(map[string]int, len(levels))
	for _, l := range levels {
		counts[l.Level] = l.Count
		total += l.Count
	}
	if total != 4 {
		t.Errorf("level counts sum to %d, want 4", total)
	}
	want := map[string]int{"A+": 1, "A": 1, "C+": 1, "F": 1}
	for level, count := range want {
		if counts[level] != count {
			t.Errorf("level %s = %d, want %d", level, counts[level], count)
		}
	}
}

func TestBuildDistribution(t *testing.T) {
	buckets := BuildDistribution([]float64{0, 59, 89.9, 95, 100}, 100)

	if len(buckets) != 10 {
		t.Fatalf("len(buckets) = %d, want 10", len(buckets))
	}

	wantLabels := []string{"0-9", "10-19", "20-29", "30-39", "40-49", "50-59", "60-69", "70-79", "80-89", "90-100"}
	for i, b := range buckets {
		if b.Label != wantLabels[i] {
			t.Errorf("bucket[%d].Label = %q, want %q", i, b.Label, wantLabels[i])
		}
	}

	wantCounts := map[int]int{0: 1, 5: 1, 8: 1, 9: 2}
	for i, b := range buckets {
		if b.Count != wantCounts[i] {
			t.Errorf("bucket[%d] (%s) Count = %d, want %d", i, b.Label, b.Count, wantCounts[i])
		}
	}
}

func TestBuildDistributionScalesByFullScore(t *testing.T) {
	// 120 分制的 60 分是 50%，应落在 50-59 档
	buckets := BuildDistribution([]float64{60}, 120)
	if buckets[5].Count != 1 {
		t.Errorf("bucket[5].Count = %d, want 1", buckets[5].Count)
	}
}

func TestScoreLevel(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{100, "A+"},
		{95, "A+"},
		{94.9, "A"},
		{90, "A"},
		{85, "B+"},
		{80, "B"},
		{75, "C+"},
		{70, "C"},
		{65, "D+"},
		{60, "D"},
		{59.9, "F"},
		{0, "F"},
	}

	for _, tt := range tests {
		if got := ScoreLevel(tt.percent); got != tt.want {
			t.Errorf("ScoreLevel(%v) = %q, want %q", tt.percent, got, tt.want)
		}
	}
}

func TestRankGradesTies(t *testing.T) {
	grades := []model.Grade{
		{StudentID: 2, Score: 98, Student: model.User{Name: "李四"}},
		{StudentID: 4, Score: 95, Student: model.User{Name: "赵六"}},
		{StudentID: 1, Score: 100, Student: model.User{Name: "张三"}},
		{StudentID: 3, Score: 98, Student: model.User{Name: "王五"}},
	}

	ranks := RankGrades(grades, 100)

	if len(ranks) != 4 {
		t.Fatalf("len(ranks) = %d, want 4", len(ranks))
	}

	wantRanks := []struct {
		studentID uint
		score     float64
		rank      int
	}{
		{1, 100, 1},
		{2, 98, 2},
		{3, 98, 2},
		{4, 95, 4},
	}
	for i, want := range wantRanks {
		got := ranks[i]
		if got.StudentID != want.studentID || got.Score != want.score || got.Rank != want.rank {
			t.Errorf("ranks[%d] = {student %d, score %v, rank %d}, want {student %d, score %v, rank %d}",
				i, got.StudentID, got.Score, got.Rank, want.studentID, want.score, want.rank)
		}
	}

	if ranks[0].Level != "A+" {
		t.Errorf("top level = %q, want A+", ranks[0].Level)
	}
	if !almostEqual(ranks[3].ScoreRate, 0.95) {
		t.Errorf("ScoreRate = %v, want 0.95", ranks[3].ScoreRate)
	}
}

func TestRankGradesEmpty(t *testing.T) {
	ranks := RankGrades(nil, 100)
	if len(ranks) != 0 {
		t.Errorf("len(ranks) = %d, want 0", len(ranks))
	}
}
