package service

import (
	"smart_edu_backend/internal/model"
)

// AnalyzeTrend 对按时间升序排列的成绩点做最小二乘拟合，判断走势
// 纵轴用得分率，横轴用考试序号，斜率绝对值不超过 epsilon 视为平稳
// 不足两个点无法拟合，按平稳处理
func AnalyzeTrend(points []model.TrendPoint, epsilon float64) (model.TrendDirection, float64) {
	n := len(points)
	if n < 2 {
		return model.TrendStable, 0
	}

	var sumX, sumY float64
	for i, p := range points {
		sumX += float64(i)
		sumY += p.ScoreRate
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var num, den float64
	for i, p := range points {
		dx := float64(i) - meanX
		num += dx * (p.ScoreRate - meanY)
		den += dx * dx
	}
	if den == 0 {
		return model.TrendStable, 0
	}

	slope := num / den
	switch {
	case slope > epsilon:
		return model.TrendImproving, slope
	case slope < -epsilon:
		return model.TrendDeclining, slope
	default:
		return model.TrendStable, slope
	}
}
