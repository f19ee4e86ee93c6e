package model

import "time"

// ScoreStats 一组成绩的描述统计
type ScoreStats struct {
	Count          int     `json:"count"`
	Average        float64 `json:"average"`
	Median         float64 `json:"median"`
	Max            float64 `json:"max"`
	Min            float64 `json:"min"`
	StdDev         float64 `json:"stdDev"`
	PassRate       float64 `json:"passRate"`      // 得分率 >= 及格线的占比
	ExcellentRate  float64 `json:"excellentRate"` // 得分率 >= 优秀线的占比
	PassedCount    int     `json:"passedCount"`
	ExcellentCount int     `json:"excellentCount"`
}

// LevelCount 等级分布中的一档
type LevelCount struct {
	Level string `json:"level"`
	Count int    `json:"count"`
}

// ScoreBucket 分数段，按得分率折算成百分制后以 10 分为一档
type ScoreBucket struct {
	Label string  `json:"label"` // 如 "80-89"
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// StudentRank 考试排名条目
type StudentRank struct {
	StudentID   uint    `json:"studentId"`
	StudentName string  `json:"studentName"`
	Score       float64 `json:"score"`
	ScoreRate   float64 `json:"scoreRate"`
	Rank        int     `json:"rank"` // 并列同分同名次
	Level       string  `json:"level"`
}

// QuestionStat 单题得分统计。成绩目前按总分录入，
// 小题得分录入上线后由聚合端填充。
type QuestionStat struct {
	QuestionNo  int     `json:"questionNo"`
	FullScore   float64 `json:"fullScore"`
	AverageRate float64 `json:"averageRate"`
}

// ExamStatistics 单场考试的完整统计
type ExamStatistics struct {
	ExamID            uint           `json:"examId"`
	ExamName          string         `json:"examName"`
	SubjectName       string         `json:"subjectName"`
	ClassName         string         `json:"className"`
	FullScore         float64        `json:"fullScore"`
	Stats             ScoreStats     `json:"stats"`
	PassedStudents    int            `json:"passedStudents"`
	ExcellentStudents int            `json:"excellentStudents"`
	Distribution      []ScoreBucket  `json:"distribution"`
	Levels            []LevelCount   `json:"levels"` // 等级人数分布
	Rankings          []StudentRank  `json:"rankings"`
	PerQuestion       []QuestionStat `json:"perQuestion,omitempty"`
	GeneratedAt       time.Time      `json:"generatedAt"`
}

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// TrendPoint 趋势曲线上的一个点，按考试时间排序
type TrendPoint struct {
	ExamID       uint      `json:"examId"`
	ExamName     string    `json:"examName"`
	ExamDate     time.Time `json:"examDate"`
	Score        float64   `json:"score"`
	ScoreRate    float64   `json:"scoreRate"`
	ClassAverage float64   `json:"classAverage"`
}

// SubjectTrend 学生单科成绩走势
type SubjectTrend struct {
	SubjectID   uint           `json:"subjectId"`
	SubjectName string         `json:"subjectName"`
	Direction   TrendDirection `json:"direction"`
	Slope       float64        `json:"slope"` // 得分率对考试序号的拟合斜率
	Points      []TrendPoint   `json:"points"`
}

// SubjectPerformance 学生单科表现与班级对比
type SubjectPerformance struct {
	SubjectID    uint    `json:"subjectId"`
	SubjectName  string  `json:"subjectName"`
	AverageScore float64 `json:"averageScore"` // 百分制均分
	ClassAverage float64 `json:"classAverage"` // 同班同学（不含本人）同科百分制均分，无数据为 0
	Delta        float64 `json:"delta"`        // 本人减班级
	ExamCount    int     `json:"examCount"`
	Level        string  `json:"level"`
}

// MasterySummary 学生知识点掌握概览
type MasterySummary struct {
	Total       int `json:"total"`
	Mastered    int `json:"mastered"`
	InProgress  int `json:"inProgress"`
	NeedsReview int `json:"needsReview"`
	NotStarted  int `json:"notStarted"`
}

// AnalysisRecommendation 由推荐规则表生成的学习建议
type AnalysisRecommendation struct {
	RuleCode    string `json:"ruleCode"`
	Priority    int    `json:"priority"` // 越小越紧迫
	SubjectID   uint   `json:"subjectId,omitempty"`
	SubjectName string `json:"subjectName,omitempty"`
	Text        string `json:"text"`
}

// StudentGradeAnalysis 学生的综合学情分析
type StudentGradeAnalysis struct {
	StudentID       uint                     `json:"studentId"`
	HasData         bool                     `json:"hasData"` // false 表示暂无成绩，其余字段为零值
	StudentName     string                   `json:"studentName"`
	ClassName       string                   `json:"className"`
	OverallAverage  float64                  `json:"overallAverage"` // 全科百分制均分
	OverallLevel    string                   `json:"overallLevel"`
	Subjects        []SubjectPerformance     `json:"subjects"`
	Strengths       []SubjectPerformance     `json:"strengths"`
	Weaknesses      []SubjectPerformance     `json:"weaknesses"`
	Trends          []SubjectTrend           `json:"trends"`
	Mastery         MasterySummary           `json:"mastery"`
	Recommendations []AnalysisRecommendation `json:"recommendations"`
	GeneratedAt     time.Time                `json:"generatedAt"`
}
