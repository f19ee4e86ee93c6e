package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"
	"smart_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AnalysisService struct {
	GradeRepo   *repository.GradeRepository
	ExamRepo    *repository.ExamRepository
	UserRepo    *repository.UserRepository
	ClassRepo   *repository.ClassRepository
	SubjectRepo *repository.SubjectRepository
	RuleRepo    *repository.RuleRepository
	Mastery     *MasteryService
	Cache       *StatisticsCache
	Cfg         config.AnalysisConfig
}

func NewAnalysisService(
	gradeRepo *repository.GradeRepository,
	examRepo *repository.ExamRepository,
	userRepo *repository.UserRepository,
	classRepo *repository.ClassRepository,
	subjectRepo *repository.SubjectRepository,
	ruleRepo *repository.RuleRepository,
	mastery *MasteryService,
	cache *StatisticsCache,
	cfg config.AnalysisConfig,
) *AnalysisService {
	return &AnalysisService{
		GradeRepo:   gradeRepo,
		ExamRepo:    examRepo,
		UserRepo:    userRepo,
		ClassRepo:   classRepo,
		SubjectRepo: subjectRepo,
		RuleRepo:    ruleRepo,
		Mastery:     mastery,
		Cache:       cache,
		Cfg:         cfg,
	}
}

// ExamStatistics 单场考试统计，优先走缓存
// 没有成绩时返回 Count 为 0 的空统计而不是报错，便于前端渲染空图表
func (s *AnalysisService) ExamStatistics(ctx context.Context, examID uint) (*model.ExamStatistics, error) {
	if cached, ok := s.Cache.Get(ctx, examID); ok {
		return cached, nil
	}

	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	grades, err := s.GradeRepo.ListLatestByExam(examID)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(grades))
	for i, g := range grades {
		scores[i] = g.Score
	}

	// 空场考试照常渲染空图表，数据不足不往上抛
	scoreStats, err := ComputeScoreStats(scores, exam.FullScore, s.Cfg)
	if err != nil && !errors.Is(err, util.ErrInsufficientData) {
		return nil, err
	}

	stats := &model.ExamStatistics{
		ExamID:            exam.ID,
		ExamName:          exam.Name,
		SubjectName:       exam.Subject.Name,
		ClassName:         exam.Class.Name,
		FullScore:         exam.FullScore,
		Stats:             scoreStats,
		PassedStudents:    scoreStats.PassedCount,
		ExcellentStudents: scoreStats.ExcellentCount,
		Distribution:      BuildDistribution(scores, exam.FullScore),
		Levels:            BuildLevelDistribution(scores, exam.FullScore),
		Rankings:          RankGrades(grades, exam.FullScore),
		GeneratedAt:       time.Now(),
	}

	s.Cache.Set(ctx, stats)
	return stats, nil
}

// SubjectTrend 学生单科成绩走势
// 点位按考试时间升序，学生缺考的场次跳过
func (s *AnalysisService) SubjectTrend(studentID, subjectID uint) (*model.SubjectTrend, error) {
	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrStudentNotFound
		}
		return nil, err
	}
	if student.ClassID == nil {
		return nil, util.ErrStudentNotFound
	}

	subject, err := s.SubjectRepo.FindByID(subjectID)
	if err != nil {
		return nil, err
	}

	exams, err := s.ExamRepo.ListByClassAndSubject(*student.ClassID, subjectID)
	if err != nil {
		return nil, err
	}

	points, err := s.buildTrendPoints(studentID, exams)
	if err != nil {
		return nil, err
	}

	direction, slope := AnalyzeTrend(points, s.Cfg.TrendEpsilon)
	return &model.SubjectTrend{
		SubjectID:   subjectID,
		SubjectName: subject.Name,
		Direction:   direction,
		Slope:       slope,
		Points:      points,
	}, nil
}

func (s *AnalysisService) buildTrendPoints(studentID uint, exams []model.Exam) ([]model.TrendPoint, error) {
	if len(exams) == 0 {
		return nil, nil
	}

	examIDs := make([]uint, len(exams))
	for i, e := range exams {
		examIDs[i] = e.ID
	}

	grades, err := s.GradeRepo.ListLatestByStudentAndExams(studentID, examIDs)
	if err != nil {
		return nil, err
	}
	gradeByExam := make(map[uint]model.Grade, len(grades))
	for _, g := range grades {
		gradeByExam[g.ExamID] = g
	}

	classAvg, err := s.classAverages(examIDs)
	if err != nil {
		return nil, err
	}

	var points []model.TrendPoint
	for _, exam := range exams {
		grade, ok := gradeByExam[exam.ID]
		if !ok {
			continue
		}
		points = append(points, model.TrendPoint{
			ExamID:       exam.ID,
			ExamName:     exam.Name,
			ExamDate:     exam.ExamDate,
			Score:        grade.Score,
			ScoreRate:    grade.ScoreRate(exam.FullScore),
			ClassAverage: classAvg[exam.ID],
		})
	}
	return points, nil
}

// classAverages 各场考试全班最新成绩的平均分
func (s *AnalysisService) classAverages(examIDs []uint) (map[uint]float64, error) {
	return s.averagesExcluding(examIDs, 0)
}

// peerAverages 各场考试除本人外同学的平均分
// 优势短板对比用这个口径，避免小班里本人成绩拉动对比基准
func (s *AnalysisService) peerAverages(examIDs []uint, studentID uint) (map[uint]float64, error) {
	return s.averagesExcluding(examIDs, studentID)
}

func (s *AnalysisService) averagesExcluding(examIDs []uint, excludeStudent uint) (map[uint]float64, error) {
	grades, err := s.GradeRepo.ListLatestForExams(examIDs)
	if err != nil {
		return nil, err
	}

	sums := make(map[uint]float64)
	counts := make(map[uint]int)
	for _, g := range grades {
		if excludeStudent != 0 && g.StudentID == excludeStudent {
			continue
		}
		sums[g.ExamID] += g.Score
		counts[g.ExamID]++
	}

	avgs := make(map[uint]float64, len(sums))
	for examID, sum := range sums {
		avgs[examID] = sum / float64(counts[examID])
	}
	return avgs, nil
}

// StudentAnalysis 学生综合学情分析
func (s *AnalysisService) StudentAnalysis(ctx context.Context, studentID uint) (*model.StudentGradeAnalysis, error) {
	// 1. 学生与班级信息
	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrStudentNotFound
		}
		return nil, err
	}

	className := ""
	if student.ClassID != nil {
		if class, err := s.ClassRepo.FindByID(*student.ClassID); err == nil {
			className = class.Name
		}
	}

	// 2. 学生全部最新成绩，按学科分桶
	grades, err := s.GradeRepo.ListLatestByStudent(studentID)
	if err != nil {
		return nil, err
	}
	if len(grades) == 0 {
		return nil, util.ErrInsufficientData
	}

	type subjectBucket struct {
		subject model.Subject
		exams   []model.Exam
		grades  []model.Grade
	}
	buckets := make(map[uint]*subjectBucket)
	var allExamIDs []uint
	for _, g := range grades {
		b, ok := buckets[g.Exam.SubjectID]
		if !ok {
			b = &subjectBucket{subject: g.Exam.Subject}
			buckets[g.Exam.SubjectID] = b
		}
		b.exams = append(b.exams, g.Exam)
		b.grades = append(b.grades, g)
		allExamIDs = append(allExamIDs, g.ExamID)
	}

	classAvg, err := s.peerAverages(allExamIDs, studentID)
	if err != nil {
		return nil, err
	}

	// 3. 逐学科计算本人均分与同学均分（折算百分制）
	var subjects []model.SubjectPerformance
	var overallSum float64
	for subjectID, b := range buckets {
		var mySum, classSum float64
		var classCount int
		for i, g := range b.grades {
			full := b.exams[i].FullScore
			mySum += g.ScoreRate(full) * 100
			if avg, ok := classAvg[g.ExamID]; ok && full > 0 {
				classSum += avg / full * 100
				classCount++
			}
		}
		myAvg := mySum / float64(len(b.grades))

		var classAvgPercent float64
		if classCount > 0 {
			classAvgPercent = classSum / float64(classCount)
		}

		subjects = append(subjects, model.SubjectPerformance{
			SubjectID:    subjectID,
			SubjectName:  b.subject.Name,
			AverageScore: myAvg,
			ClassAverage: classAvgPercent,
			Delta:        myAvg - classAvgPercent,
			ExamCount:    len(b.grades),
			Level:        ScoreLevel(myAvg),
		})
		overallSum += myAvg
	}
	sort.Slice(subjects, func(i, j int) bool {
		return subjects[i].SubjectID < subjects[j].SubjectID
	})

	overallAvg := overallSum / float64(len(subjects))

	// 4. 优势与短板学科
	strengths, weaknesses := s.pickStrengthsWeaknesses(subjects)

	// 5. 各学科走势
	var trends []model.SubjectTrend
	if student.ClassID != nil {
		for _, sp := range subjects {
			exams, err := s.ExamRepo.ListByClassAndSubject(*student.ClassID, sp.SubjectID)
			if err != nil {
				continue
			}
			points, err := s.buildTrendPoints(studentID, exams)
			if err != nil || len(points) == 0 {
				continue
			}
			direction, slope := AnalyzeTrend(points, s.Cfg.TrendEpsilon)
			trends = append(trends, model.SubjectTrend{
				SubjectID:   sp.SubjectID,
				SubjectName: sp.SubjectName,
				Direction:   direction,
				Slope:       slope,
				Points:      points,
			})
		}
	}

	// 6. 知识点掌握概览
	summary, err := s.Mastery.Summary(studentID)
	if err != nil {
		logger.Log.Warn("Mastery summary failed during student analysis",
			zap.Uint("studentId", studentID), zap.Error(err))
		summary = &model.MasterySummary{}
	}

	return &model.StudentGradeAnalysis{
		StudentID:       studentID,
		HasData:         true,
		StudentName:     student.Name,
		ClassName:       className,
		OverallAverage:  overallAvg,
		OverallLevel:    ScoreLevel(overallAvg),
		Subjects:        subjects,
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		Trends:          trends,
		Mastery:         *summary,
		Recommendations: s.buildRecommendations(weaknesses, trends, summary),
		GeneratedAt:     time.Now(),
	}, nil
}

// buildRecommendations 按推荐规则表生成学习建议
// 短板学科叠加下滑趋势命中更高优先级的规则，规则文案里的占位符在这里填充
// 规则读不到只记日志，分析结果照常返回
func (s *AnalysisService) buildRecommendations(
	weaknesses []model.SubjectPerformance,
	trends []model.SubjectTrend,
	summary *model.MasterySummary,
) []model.AnalysisRecommendation {
	rules, err := s.RuleRepo.ListEnabled()
	if err != nil {
		logger.Log.Warn("Recommendation rules unavailable", zap.Error(err))
		return nil
	}
	ruleByCondition := make(map[model.RuleCondition]model.RecommendationRule, len(rules))
	for _, r := range rules {
		if r.Advice == "" {
			continue
		}
		if _, exists := ruleByCondition[r.Condition]; !exists {
			ruleByCondition[r.Condition] = r
		}
	}

	trendBySubject := make(map[uint]model.TrendDirection, len(trends))
	for _, tr := range trends {
		trendBySubject[tr.SubjectID] = tr.Direction
	}

	var recs []model.AnalysisRecommendation
	for _, w := range weaknesses {
		condition := model.RuleConditionWeakness
		if trendBySubject[w.SubjectID] == model.TrendDeclining {
			condition = model.RuleConditionWeaknessDeclining
		}
		rule, ok := ruleByCondition[condition]
		if !ok {
			continue
		}
		recs = append(recs, model.AnalysisRecommendation{
			RuleCode:    rule.Code,
			Priority:    rule.Priority,
			SubjectID:   w.SubjectID,
			SubjectName: w.SubjectName,
			Text:        renderAdvice(rule.Advice, w.SubjectName, 0),
		})
	}

	if summary.NeedsReview > 0 {
		if rule, ok := ruleByCondition[model.RuleConditionNeedsReview]; ok {
			recs = append(recs, model.AnalysisRecommendation{
				RuleCode: rule.Code,
				Priority: rule.Priority,
				Text:     renderAdvice(rule.Advice, "", summary.NeedsReview),
			})
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority < recs[j].Priority
	})
	return recs
}

// renderAdvice 填充规则文案中的 {subject}/{count} 占位符
func renderAdvice(advice, subjectName string, count int) string {
	replacer := strings.NewReplacer(
		"{subject}", "「"+subjectName+"」",
		"{count}", strconv.Itoa(count),
	)
	return replacer.Replace(advice)
}

// pickStrengthsWeaknesses 挑选优势与短板学科
// 有班级均分时看相对差值，没有时退化为绝对分数线，各取前 K 个
func (s *AnalysisService) pickStrengthsWeaknesses(subjects []model.SubjectPerformance) ([]model.SubjectPerformance, []model.SubjectPerformance) {
	var strengths, weaknesses []model.SubjectPerformance
	for _, sp := range subjects {
		if sp.ClassAverage > 0 {
			if sp.Delta >= s.Cfg.CohortMargin {
				strengths = append(strengths, sp)
			} else if sp.Delta <= -s.Cfg.CohortMargin {
				weaknesses = append(weaknesses, sp)
			}
			continue
		}
		if sp.AverageScore >= s.Cfg.AbsStrongLine {
			strengths = append(strengths, sp)
		} else if sp.AverageScore < s.Cfg.AbsWeakLine {
			weaknesses = append(weaknesses, sp)
		}
	}

	sort.Slice(strengths, func(i, j int) bool {
		return strengths[i].Delta > strengths[j].Delta
	})
	sort.Slice(weaknesses, func(i, j int) bool {
		return weaknesses[i].Delta < weaknesses[j].Delta
	})

	if len(strengths) > s.Cfg.StrengthTopK {
		strengths = strengths[:s.Cfg.StrengthTopK]
	}
	if len(weaknesses) > s.Cfg.StrengthTopK {
		weaknesses = weaknesses[:s.Cfg.StrengthTopK]
	}
	return strengths, weaknesses
}
