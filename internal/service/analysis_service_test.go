package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"
	"smart_edu_backend/pkg/database"

	"gorm.io/gorm"
)

func newAnalysisService(db *gorm.DB) *AnalysisService {
	return NewAnalysisService(
		repository.NewGradeRepository(db),
		repository.NewExamRepository(db),
		repository.NewUserRepository(db),
		repository.NewClassRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewRuleRepository(db),
		newMasteryService(db),
		NewStatisticsCache(nil, 30),
		config.AnalysisDefaults(),
	)
}

func createGrade(t *testing.T, db *gorm.DB, studentID, examID uint, score float64) {
	t.Helper()
	grade := &model.Grade{
		StudentID: studentID,
		ExamID:    examID,
		Score:     score,
		Version:   1,
		IsLatest:  true,
	}
	if err := db.Create(grade).Error; err != nil {
		t.Fatalf("create grade: %v", err)
	}
}

func TestExamStatisticsEndToEnd(t *testing.T) {
	db := openTestDB(t)
	s := newAnalysisService(db)

	class := createClass(t, db, "初二(1)班", 8)
	subject := createSubject(t, db, "math", "数学", 100)
	exam := createExam(t, db, subject.ID, class.ID, "十月月考", time.Now(), 100)

	scores := []float64{92, 58, 75}
	for i, score := range scores {
		student := createStudent(t, db, []string{"甲", "乙", "丙"}[i], &class.ID)
		createGrade(t, db, student.ID, exam.ID, score)
	}

	stats, err := s.ExamStatistics(context.Background(), exam.ID)
	if err != nil {
		t.Fatalf("ExamStatistics: %v", err)
	}

	if !almostEqual(stats.Stats.Average, 75) {
		t.Errorf("Average = %v, want 75", stats.Stats.Average)
	}
	if !almostEqual(stats.Stats.PassRate, 2.0/3.0) {
		t.Errorf("PassRate = %v, want 2/3", stats.Stats.PassRate)
	}
	if !almostEqual(stats.Stats.ExcellentRate, 1.0/3.0) {
		t.Errorf("ExcellentRate = %v, want 1/3", stats.Stats.ExcellentRate)
	}
	if stats.Stats.Min > stats.Stats.Average || stats.Stats.Average > stats.Stats.Max {
		t.Errorf("want min <= average <= max, got %v/%v/%v", stats.Stats.Min, stats.Stats.Average, stats.Stats.Max)
	}
	if stats.PassedStudents != 2 || stats.ExcellentStudents != 1 {
		t.Errorf("Passed/Excellent = %d/%d, want 2/1", stats.PassedStudents, stats.ExcellentStudents)
	}

	// 等级分布：92→A、75→C+、58→F
	levelCounts := make(map[string]int)
	for _, l := range stats.Levels {
		levelCounts[l.Level] = l.Count
	}
	for level, want := range map[string]int{"A": 1, "C+": 1, "F": 1} {
		if levelCounts[level] != want {
			t.Errorf("level %s = %d, want %d", level, levelCounts[level], want)
		}
	}

	// 分数段：[50,60) 1 人、[70,80) 1 人、[90,100] 1 人，总数对得上
	var total int
	for _, bucket := range stats.Distribution {
		total += bucket.Count
	}
	if total != 3 {
		t.Errorf("bucket counts sum to %d, want 3", total)
	}
	wantCounts := map[string]int{"50-59": 1, "70-79": 1, "90-100": 1}
	for _, bucket := range stats.Distribution {
		if want, ok := wantCounts[bucket.Label]; ok && bucket.Count != want {
			t.Errorf("bucket %s = %d, want %d", bucket.Label, bucket.Count, want)
		}
		if _, ok := wantCounts[bucket.Label]; !ok && bucket.Count != 0 {
			t.Errorf("bucket %s = %d, want 0", bucket.Label, bucket.Count)
		}
	}

	// 排名按分数降序
	if len(stats.Rankings) != 3 || stats.Rankings[0].Score != 92 || stats.Rankings[0].Rank != 1 {
		t.Errorf("rankings = %+v", stats.Rankings)
	}
}

func TestExamStatisticsEmptyExam(t *testing.T) {
	db := openTestDB(t)
	s := newAnalysisService(db)

	class := createClass(t, db, "初二(2)班", 8)
	subject := createSubject(t, db, "math", "数学", 100)
	exam := createExam(t, db, subject.ID, class.ID, "空场考试", time.Now(), 100)

	// 没有成绩返回空统计而不是报错
	stats, err := s.ExamStatistics(context.Background(), exam.ID)
	if err != nil {
		t.Fatalf("ExamStatistics: %v", err)
	}
	if stats.Stats.Count != 0 {
		t.Errorf("Count = %d, want 0", stats.Stats.Count)
	}

	if _, err := s.ExamStatistics(context.Background(), 9999); !errors.Is(err, util.ErrExamNotFound) {
		t.Errorf("missing exam: err = %v, want ErrExamNotFound", err)
	}
}

func TestStudentAnalysisInsufficientData(t *testing.T) {
	db := openTestDB(t)
	s := newAnalysisService(db)

	student := createStudent(t, db, "零成绩", nil)
	_, err := s.StudentAnalysis(context.Background(), student.ID)
	if !errors.Is(err, util.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestStudentAnalysisStrengthsWeaknessesAndRecommendations(t *testing.T) {
	db := openTestDB(t)
	database.Seed(db)
	s := newAnalysisService(db)

	class := createClass(t, db, "初三(1)班", 9)
	math := seededSubject(t, db, "math")
	english := seededSubject(t, db, "english")

	target := createStudent(t, db, "被分析学生", &class.ID)
	peer := createStudent(t, db, "同班同学", &class.ID)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// 数学：本人 60 → 50 持续下滑，同学稳定在 90，短板 + 下滑
	mathScores := [][2]float64{{60, 90}, {50, 90}}
	for i, pair := range mathScores {
		exam := createExam(t, db, math.ID, class.ID, "数学考试", base.AddDate(0, i, 0), 100)
		createGrade(t, db, target.ID, exam.ID, pair[0])
		createGrade(t, db, peer.ID, exam.ID, pair[1])
	}

	// 英语：本人 95，同学 70，优势学科
	englishExam := createExam(t, db, english.ID, class.ID, "英语考试", base, 100)
	createGrade(t, db, target.ID, englishExam.ID, 95)
	createGrade(t, db, peer.ID, englishExam.ID, 70)

	// 两个遗忘知识点触发复习建议
	now := time.Now()
	for _, name := range []string{"三角函数", "立体几何"} {
		kp := createKnowledgePoint(t, db, math.ID, name)
		m := &model.KnowledgePointMastery{
			StudentID:        target.ID,
			KnowledgePointID: kp.ID,
			MasteryLevel:     0.6,
			PracticeCount:    4,
			Status:           model.MasteryNeedsReview,
			LastPracticedAt:  &now,
		}
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed mastery: %v", err)
		}
	}

	analysis, err := s.StudentAnalysis(context.Background(), target.ID)
	if err != nil {
		t.Fatalf("StudentAnalysis: %v", err)
	}

	if len(analysis.Weaknesses) != 1 || analysis.Weaknesses[0].SubjectID != math.ID {
		t.Fatalf("weaknesses = %+v, want math only", analysis.Weaknesses)
	}
	if len(analysis.Strengths) != 1 || analysis.Strengths[0].SubjectID != english.ID {
		t.Errorf("strengths = %+v, want english only", analysis.Strengths)
	}

	var mathTrend *model.SubjectTrend
	for i := range analysis.Trends {
		if analysis.Trends[i].SubjectID == math.ID {
			mathTrend = &analysis.Trends[i]
		}
	}
	if mathTrend == nil || mathTrend.Direction != model.TrendDeclining {
		t.Fatalf("math trend = %+v, want declining", mathTrend)
	}

	if analysis.Mastery.NeedsReview != 2 {
		t.Errorf("needsReview = %d, want 2", analysis.Mastery.NeedsReview)
	}

	// 建议：短板 + 下滑命中最高优先级规则并排在最前，遗忘知识点给复习建议
	if len(analysis.Recommendations) < 2 {
		t.Fatalf("recommendations = %+v, want at least 2", analysis.Recommendations)
	}
	first := analysis.Recommendations[0]
	if first.RuleCode != "weak_declining" || first.SubjectID != math.ID {
		t.Errorf("first recommendation = %+v, want weak_declining for math", first)
	}
	var hasReview bool
	for _, rec := range analysis.Recommendations {
		if rec.RuleCode == "needs_review" {
			hasReview = true
		}
	}
	if !hasReview {
		t.Errorf("recommendations = %+v, want needs_review entry", analysis.Recommendations)
	}
}

func TestSeededRulePriorities(t *testing.T) {
	db := openTestDB(t)
	database.Seed(db)

	rules, err := repository.NewRuleRepository(db).ListEnabled()
	if err != nil {
		t.Fatalf("ListEnabled: %v", err)
	}
	if len(rules) == 0 {
		t.Fatal("no seeded rules")
	}

	// 短板下滑规则必须持久化为全局最高优先级，落库时不能被默认值顶掉
	byCode := make(map[string]model.RecommendationRule, len(rules))
	for _, r := range rules {
		byCode[r.Code] = r
	}
	weakDeclining, ok := byCode["weak_declining"]
	if !ok {
		t.Fatal("weak_declining rule not seeded")
	}
	for _, r := range rules {
		if r.Code != "weak_declining" && r.Priority <= weakDeclining.Priority {
			t.Errorf("rule %s priority %d <= weak_declining priority %d",
				r.Code, r.Priority, weakDeclining.Priority)
		}
	}
}

func TestStudentAnalysisAbsoluteFallback(t *testing.T) {
	db := openTestDB(t)
	database.Seed(db)
	s := newAnalysisService(db)

	// 独班独考、没有同学成绩时退化为绝对分数线：>=80 优势，<60 短板
	class := createClass(t, db, "单人班", 9)
	math := seededSubject(t, db, "math")
	english := seededSubject(t, db, "english")
	student := createStudent(t, db, "独学者", &class.ID)

	mathExam := createExam(t, db, math.ID, class.ID, "数学考试", time.Now(), 100)
	createGrade(t, db, student.ID, mathExam.ID, 55)
	englishExam := createExam(t, db, english.ID, class.ID, "英语考试", time.Now(), 100)
	createGrade(t, db, student.ID, englishExam.ID, 88)

	analysis, err := s.StudentAnalysis(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("StudentAnalysis: %v", err)
	}

	if len(analysis.Weaknesses) != 1 || analysis.Weaknesses[0].SubjectID != math.ID {
		t.Errorf("weaknesses = %+v, want math (absolute line < 60)", analysis.Weaknesses)
	}
	if len(analysis.Strengths) != 1 || analysis.Strengths[0].SubjectID != english.ID {
		t.Errorf("strengths = %+v, want english (absolute line >= 80)", analysis.Strengths)
	}
	if !almostEqual(analysis.OverallAverage, (55.0+88.0)/2) {
		t.Errorf("OverallAverage = %v, want 71.5", analysis.OverallAverage)
	}
}
