package service

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"

	"gorm.io/gorm"
)

func newMasteryService(db *gorm.DB) *MasteryService {
	return NewMasteryService(
		repository.NewMasteryRepository(db),
		repository.NewPracticeRepository(db),
		repository.NewKnowledgePointRepository(db),
		config.AnalysisDefaults(),
	)
}

func submitPractice(t *testing.T, s *MasteryService, studentID uint, kpID string, correct, total int) *model.KnowledgePointMastery {
	t.Helper()
	mastery, err := s.RecordPractice(studentID, PracticeSubmission{
		KnowledgePointID: kpID,
		TotalCount:       total,
		CorrectCount:     correct,
	})
	if err != nil {
		t.Fatalf("RecordPractice: %v", err)
	}
	return mastery
}

func TestRecordPracticeExponentialSmoothing(t *testing.T) {
	db := openTestDB(t)
	s := newMasteryService(db)

	subject := createSubject(t, db, "math", "数学", 100)
	kp := createKnowledgePoint(t, db, subject.ID, "一元二次方程")
	student := createStudent(t, db, "小明", nil)

	// 连续全对 5 次：掌握度应为 1-(0.7)^5 ≈ 0.832，尚未达到 0.85 的掌握线
	var mastery *model.KnowledgePointMastery
	for i := 0; i < 5; i++ {
		mastery = submitPractice(t, s, student.ID, kp.ID, 10, 10)
	}

	want := 1 - math.Pow(0.7, 5)
	if math.Abs(mastery.MasteryLevel-want) > 1e-9 {
		t.Errorf("MasteryLevel = %v, want %v", mastery.MasteryLevel, want)
	}
	if mastery.PracticeCount != 5 {
		t.Errorf("PracticeCount = %d, want 5", mastery.PracticeCount)
	}
	if mastery.Status != model.MasteryInProgress {
		t.Errorf("Status = %s, want in_progress (level %.3f < 0.85)", mastery.Status, mastery.MasteryLevel)
	}

	// 第 6 次全对后越过掌握线
	mastery = submitPractice(t, s, student.ID, kp.ID, 10, 10)
	if mastery.Status != model.MasteryMastered {
		t.Errorf("Status after 6th practice = %s, want mastered (level %.3f)", mastery.Status, mastery.MasteryLevel)
	}
	if mastery.MasteredAt == nil {
		t.Error("MasteredAt not set on mastery transition")
	}

	// 掌握度永远不会越界
	for i := 0; i < 50; i++ {
		mastery = submitPractice(t, s, student.ID, kp.ID, 10, 10)
	}
	if mastery.MasteryLevel > 1.0 || mastery.MasteryLevel < 0.0 {
		t.Errorf("MasteryLevel out of range: %v", mastery.MasteryLevel)
	}
}

func TestRecordPracticeNeedsReviewOnLowScore(t *testing.T) {
	db := openTestDB(t)
	s := newMasteryService(db)

	subject := createSubject(t, db, "math", "数学", 100)
	kp := createKnowledgePoint(t, db, subject.ID, "因式分解")
	student := createStudent(t, db, "小红", nil)

	var mastery *model.KnowledgePointMastery
	for i := 0; i < 6; i++ {
		mastery = submitPractice(t, s, student.ID, kp.ID, 10, 10)
	}
	if mastery.Status != model.MasteryMastered {
		t.Fatalf("precondition: Status = %s, want mastered", mastery.Status)
	}

	// 已掌握后单次得分率低于 0.5 触发遗忘标记
	mastery = submitPractice(t, s, student.ID, kp.ID, 3, 10)
	if mastery.Status != model.MasteryNeedsReview {
		t.Errorf("Status = %s, want needs_review", mastery.Status)
	}
}

func TestRecordPracticeValidation(t *testing.T) {
	db := openTestDB(t)
	s := newMasteryService(db)

	subject := createSubject(t, db, "math", "数学", 100)
	kp := createKnowledgePoint(t, db, subject.ID, "不等式")
	student := createStudent(t, db, "小刚", nil)

	// 答对数超过题目数
	_, err := s.RecordPractice(student.ID, PracticeSubmission{
		KnowledgePointID: kp.ID,
		TotalCount:       5,
		CorrectCount:     6,
	})
	if !errors.Is(err, util.ErrInvalidPractice) {
		t.Errorf("err = %v, want ErrInvalidPractice", err)
	}

	// 知识点不存在
	_, err = s.RecordPractice(student.ID, PracticeSubmission{
		KnowledgePointID: "no-such-kp",
		TotalCount:       5,
		CorrectCount:     3,
	})
	if !errors.Is(err, util.ErrKnowledgePointNotFound) {
		t.Errorf("err = %v, want ErrKnowledgePointNotFound", err)
	}
}

func TestRecordPracticeConcurrentSameKey(t *testing.T) {
	db := openTestDB(t)
	s := newMasteryService(db)

	subject := createSubject(t, db, "math", "数学", 100)
	kp := createKnowledgePoint(t, db, subject.ID, "函数图像")
	student := createStudent(t, db, "小并", nil)

	// 同一 (学生, 知识点) 的并发上报必须全部计入练习次数
	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.RecordPractice(student.ID, PracticeSubmission{
				KnowledgePointID: kp.ID,
				TotalCount:       10,
				CorrectCount:     8,
			}); err != nil {
				t.Errorf("concurrent RecordPractice: %v", err)
			}
		}()
	}
	wg.Wait()

	mastery, err := s.MasteryRepo.Find(student.ID, kp.ID)
	if err != nil {
		t.Fatalf("find mastery: %v", err)
	}
	if mastery.PracticeCount != n {
		t.Errorf("PracticeCount = %d, want %d (lost updates)", mastery.PracticeCount, n)
	}
}

func TestMasteryStalenessRules(t *testing.T) {
	db := openTestDB(t)
	s := newMasteryService(db)

	subject := createSubject(t, db, "math", "数学", 100)
	kp := createKnowledgePoint(t, db, subject.ID, "数列")
	student := createStudent(t, db, "小久", nil)

	long := time.Now().Add(-20 * 24 * time.Hour)
	mastery := &model.KnowledgePointMastery{
		StudentID:        student.ID,
		KnowledgePointID: kp.ID,
		MasteryLevel:     0.9,
		PracticeCount:    5,
		Status:           model.MasteryMastered,
		LastPracticedAt:  &long,
	}
	if err := db.Create(mastery).Error; err != nil {
		t.Fatalf("seed mastery: %v", err)
	}

	// 读取路径叠加时效规则：20 天未练习的已掌握记录读出来是需复习
	list, err := s.StudentMastery(student.ID)
	if err != nil {
		t.Fatalf("StudentMastery: %v", err)
	}
	if len(list) != 1 || list[0].Status != model.MasteryNeedsReview {
		t.Fatalf("effective status = %v, want needs_review", list)
	}

	// 落库路径：SweepStale 把状态真正翻转
	s.SweepStale()
	stored, err := s.MasteryRepo.Find(student.ID, kp.ID)
	if err != nil {
		t.Fatalf("find mastery: %v", err)
	}
	if stored.Status != model.MasteryNeedsReview {
		t.Errorf("stored status = %s, want needs_review", stored.Status)
	}
}

func TestMasterySummary(t *testing.T) {
	db := openTestDB(t)
	s := newMasteryService(db)

	subject := createSubject(t, db, "math", "数学", 100)
	student := createStudent(t, db, "小汇", nil)

	seed := []struct {
		name   string
		status model.MasteryStatus
	}{
		{"集合", model.MasteryMastered},
		{"映射", model.MasteryInProgress},
		{"复数", model.MasteryInProgress},
		{"向量", model.MasteryNeedsReview},
	}
	now := time.Now()
	for _, row := range seed {
		kp := createKnowledgePoint(t, db, subject.ID, row.name)
		m := &model.KnowledgePointMastery{
			StudentID:        student.ID,
			KnowledgePointID: kp.ID,
			MasteryLevel:     0.5,
			PracticeCount:    2,
			Status:           row.status,
			LastPracticedAt:  &now,
		}
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed mastery: %v", err)
		}
	}

	summary, err := s.Summary(student.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Total != 4 || summary.Mastered != 1 || summary.InProgress != 2 || summary.NeedsReview != 1 {
		t.Errorf("summary = %+v, want total 4 / mastered 1 / inProgress 2 / needsReview 1", summary)
	}
}
