package service

import (
	"fmt"
	"math"
	"sort"

	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/util"
)

// ComputeScoreStats 计算一组成绩的描述统计
// 及格率/优秀率按得分率（score/fullScore）对照配置的分数线计算
// 空输入返回 ErrInsufficientData，调用方自行决定是报错还是渲染空图表
func ComputeScoreStats(scores []float64, fullScore float64, cfg config.AnalysisConfig) (model.ScoreStats, error) {
	n := len(scores)
	if n == 0 || fullScore <= 0 {
		return model.ScoreStats{}, util.ErrInsufficientData
	}

	sorted := make([]float64, n)
	copy(sorted, scores)
	sort.Float64s(sorted)

	var sum float64
	for _, s := range sorted {
		sum += s
	}
	avg := sum / float64(n)

	// 中位数：偶数个取中间两个的均值
	var median float64
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	// 总体标准差（除以 N）
	var sqSum float64
	for _, s := range sorted {
		d := s - avg
		sqSum += d * d
	}
	stdDev := math.Sqrt(sqSum / float64(n))

	var passCount, excellentCount int
	for _, s := range sorted {
		rate := s / fullScore
		if rate >= cfg.PassLine {
			passCount++
		}
		if rate >= cfg.ExcellentLine {
			excellentCount++
		}
	}

	return model.ScoreStats{
		Count:          n,
		Average:        avg,
		Median:         median,
		Max:            sorted[n-1],
		Min:            sorted[0],
		StdDev:         stdDev,
		PassRate:       float64(passCount) / float64(n),
		ExcellentRate:  float64(excellentCount) / float64(n),
		PassedCount:    passCount,
		ExcellentCount: excellentCount,
	}, nil
}

// BuildDistribution 按得分率折算百分制后以 10 分为一档统计人数
// 共 10 档，[90,100] 最后一档含上界，满分落在最后一档
func BuildDistribution(scores []float64, fullScore float64) []model.ScoreBucket {
	buckets := make([]model.ScoreBucket, 10)
	for i := 0; i < 10; i++ {
		lower := float64(i * 10)
		upper := float64(i*10 + 9)
		if i == 9 {
			upper = 100
		}
		buckets[i] = model.ScoreBucket{
			Label: fmt.Sprintf("%d-%d", int(lower), int(upper)),
			Lower: lower,
			Upper: upper,
		}
	}

	if fullScore <= 0 {
		return buckets
	}

	for _, s := range scores {
		percent := s / fullScore * 100
		idx := int(percent / 10)
		if idx > 9 {
			idx = 9
		}
		if idx < 0 {
			idx = 0
		}
		buckets[idx].Count++
	}
	return buckets
}

// ScoreLevel 百分制分数折算等级
func ScoreLevel(percent float64) string {
	switch {
	case percent >= 95:
		return "A+"
	case percent >= 90:
		return "A"
	case percent >= 85:
		return "B+"
	case percent >= 80:
		return "B"
	case percent >= 75:
		return "C+"
	case percent >= 70:
		return "C"
	case percent >= 65:
		return "D+"
	case percent >= 60:
		return "D"
	default:
		return "F"
	}
}

// levelOrder 等级分布的固定展示顺序
var levelOrder = []string{"A+", "A", "B+", "B", "C+", "C", "D+", "D", "F"}

// BuildLevelDistribution 按等级统计人数，9 个等级全部返回（含 0 人的档位）
func BuildLevelDistribution(scores []float64, fullScore float64) []model.LevelCount {
	counts := make(map[string]int, len(levelOrder))
	if fullScore > 0 {
		for _, s := range scores {
			counts[ScoreLevel(s/fullScore*100)]++
		}
	}

	levels := make([]model.LevelCount, 0, len(levelOrder))
	for _, level := range levelOrder {
		levels = append(levels, model.LevelCount{Level: level, Count: counts[level]})
	}
	return levels
}

// RankGrades 按分数降序生成排名，同分并列名次
// 如 100、98、98、95 的名次为 1、2、2、4
func RankGrades(grades []model.Grade, fullScore float64) []model.StudentRank {
	sorted := make([]model.Grade, len(grades))
	copy(sorted, grades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	ranks := make([]model.StudentRank, 0, len(sorted))
	for i, g := range sorted {
		rank := i + 1
		if i > 0 && g.Score == sorted[i-1].Score {
			rank = ranks[i-1].Rank
		}

		rate := g.ScoreRate(fullScore)
		ranks = append(ranks, model.StudentRank{
			StudentID:   g.StudentID,
			StudentName: g.Student.Name,
			Score:       g.Score,
			ScoreRate:   rate,
			Rank:        rank,
			Level:       ScoreLevel(rate * 100),
		})
	}
	return ranks
}
