package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"

	"gorm.io/gorm"
)

func newGradeService(db *gorm.DB) *GradeService {
	return NewGradeService(
		repository.NewGradeRepository(db),
		repository.NewExamRepository(db),
		repository.NewUserRepository(db),
		NewStatisticsCache(nil, 30),
	)
}

func createExam(t *testing.T, db *gorm.DB, subjectID, classID uint, name string, examDate time.Time, fullScore float64) *model.Exam {
	t.Helper()
	exam := &model.Exam{
		Name:      name,
		Type:      model.ExamMonthly,
		SubjectID: subjectID,
		ClassID:   classID,
		ExamDate:  examDate,
		FullScore: fullScore,
	}
	if err := db.Create(exam).Error; err != nil {
		t.Fatalf("create exam: %v", err)
	}
	return exam
}

func TestEnterGradeValidation(t *testing.T) {
	db := openTestDB(t)
	s := newGradeService(db)

	class := createClass(t, db, "初一(1)班", 7)
	subject := createSubject(t, db, "math", "数学", 100)
	exam := createExam(t, db, subject.ID, class.ID, "十月月考", time.Now(), 100)
	student := createStudent(t, db, "小明", &class.ID)
	outsider := createStudent(t, db, "隔壁班同学", nil)

	ctx := context.Background()

	// 超出 [0, 总分] 的成绩拒绝入库
	if _, err := s.EnterGrade(ctx, exam.ID, student.ID, 101, "", 1); !errors.Is(err, util.ErrInvalidScore) {
		t.Errorf("score 101: err = %v, want ErrInvalidScore", err)
	}
	if _, err := s.EnterGrade(ctx, exam.ID, student.ID, -1, "", 1); !errors.Is(err, util.ErrInvalidScore) {
		t.Errorf("score -1: err = %v, want ErrInvalidScore", err)
	}

	// 不在考试班级的学生
	if _, err := s.EnterGrade(ctx, exam.ID, outsider.ID, 80, "", 1); !errors.Is(err, util.ErrStudentNotInClass) {
		t.Errorf("outsider: err = %v, want ErrStudentNotInClass", err)
	}

	// 正常录入
	grade, err := s.EnterGrade(ctx, exam.ID, student.ID, 92, "发挥稳定", 1)
	if err != nil {
		t.Fatalf("EnterGrade: %v", err)
	}
	if grade.Version != 1 || !grade.IsLatest {
		t.Errorf("grade = version %d latest %v, want version 1 latest", grade.Version, grade.IsLatest)
	}

	// 重复录入只能走订正
	if _, err := s.EnterGrade(ctx, exam.ID, student.ID, 95, "", 1); !errors.Is(err, util.ErrGradeAlreadyFinal) {
		t.Errorf("duplicate: err = %v, want ErrGradeAlreadyFinal", err)
	}
}

func TestCorrectGradeKeepsHistory(t *testing.T) {
	db := openTestDB(t)
	s := newGradeService(db)

	class := createClass(t, db, "初一(2)班", 7)
	subject := createSubject(t, db, "math", "数学", 100)
	exam := createExam(t, db, subject.ID, class.ID, "期中考试", time.Now(), 100)
	student := createStudent(t, db, "小红", &class.ID)

	ctx := context.Background()
	if _, err := s.EnterGrade(ctx, exam.ID, student.ID, 85, "", 1); err != nil {
		t.Fatalf("EnterGrade: %v", err)
	}

	corrected, err := s.CorrectGrade(ctx, exam.ID, student.ID, 88, "第 19 题漏判 3 分", 2)
	if err != nil {
		t.Fatalf("CorrectGrade: %v", err)
	}
	if corrected.Version != 2 || !corrected.IsLatest || corrected.CorrectedFrom == nil {
		t.Errorf("corrected = %+v, want version 2 latest with correctedFrom", corrected)
	}

	// 旧版本保留且不再是最新
	history, err := s.History(exam.ID, student.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Score != 85 || history[0].IsLatest {
		t.Errorf("v1 = %+v, want score 85 and not latest", history[0])
	}
	if history[1].Score != 88 || !history[1].IsLatest {
		t.Errorf("v2 = %+v, want score 88 and latest", history[1])
	}

	// 统计路径只认最新版本
	latest, err := s.GradeRepo.FindLatest(student.ID, exam.ID)
	if err != nil {
		t.Fatalf("FindLatest: %v", err)
	}
	if latest.Score != 88 {
		t.Errorf("latest score = %v, want 88", latest.Score)
	}

	// 订正成绩同样受 [0, 总分] 约束
	if _, err := s.CorrectGrade(ctx, exam.ID, student.ID, 120, "", 2); !errors.Is(err, util.ErrInvalidScore) {
		t.Errorf("over-full correction: err = %v, want ErrInvalidScore", err)
	}
}

func TestEnterGradesCollectsFailures(t *testing.T) {
	db := openTestDB(t)
	s := newGradeService(db)

	class := createClass(t, db, "初一(3)班", 7)
	subject := createSubject(t, db, "math", "数学", 100)
	exam := createExam(t, db, subject.ID, class.ID, "随堂测验", time.Now(), 100)
	a := createStudent(t, db, "甲", &class.ID)
	b := createStudent(t, db, "乙", &class.ID)

	created, failures, err := s.EnterGrades(context.Background(), exam.ID, []GradeEntry{
		{StudentID: a.ID, Score: 75},
		{StudentID: b.ID, Score: 300}, // 超总分
		{StudentID: 9999, Score: 60},  // 学生不存在
	}, 1)
	if err != nil {
		t.Fatalf("EnterGrades: %v", err)
	}
	if len(created) != 1 || created[0].StudentID != a.ID {
		t.Errorf("created = %+v, want only student %d", created, a.ID)
	}
	if len(failures) != 2 {
		t.Errorf("failures = %+v, want 2 entries", failures)
	}
}
