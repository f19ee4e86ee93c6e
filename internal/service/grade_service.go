package service

import (
	"context"
	"errors"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"
	"smart_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GradeService struct {
	GradeRepo *repository.GradeRepository
	ExamRepo  *repository.ExamRepository
	UserRepo  *repository.UserRepository
	Cache     *StatisticsCache
}

func NewGradeService(
	gradeRepo *repository.GradeRepository,
	examRepo *repository.ExamRepository,
	userRepo *repository.UserRepository,
	cache *StatisticsCache,
) *GradeService {
	return &GradeService{
		GradeRepo: gradeRepo,
		ExamRepo:  examRepo,
		UserRepo:  userRepo,
		Cache:     cache,
	}
}

// GradeEntry 批量录入中的单条成绩
type GradeEntry struct {
	StudentID uint    `json:"studentId" binding:"required"`
	Score     float64 `json:"score"`
	Comment   string  `json:"comment"`
}

// GradeFailure 批量录入失败明细
type GradeFailure struct {
	StudentID uint   `json:"studentId"`
	Reason    string `json:"reason"`
}

// EnterGrade 录入单条成绩
// 同一学生同一考试只允许首录一次，改分走订正接口
func (s *GradeService) EnterGrade(ctx context.Context, examID, studentID uint, score float64, comment string, enteredBy uint) (*model.Grade, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrStudentNotFound
		}
		return nil, err
	}
	if student.Role != model.Student || student.ClassID == nil || *student.ClassID != exam.ClassID {
		return nil, util.ErrStudentNotInClass
	}

	if score < 0 || score > exam.FullScore {
		return nil, util.ErrInvalidScore
	}

	// 查重：已有成绩只能订正不能重录
	if _, err := s.GradeRepo.FindLatest(studentID, examID); err == nil {
		return nil, util.ErrGradeAlreadyFinal
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	grade := &model.Grade{
		StudentID: studentID,
		ExamID:    examID,
		Score:     score,
		Version:   1,
		IsLatest:  true,
		Comment:   comment,
		EnteredBy: enteredBy,
	}
	if err := s.GradeRepo.Create(grade); err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx, examID)
	return grade, nil
}

// EnterGrades 批量录入，有效条目落库，无效条目收集到失败明细中
func (s *GradeService) EnterGrades(ctx context.Context, examID uint, entries []GradeEntry, enteredBy uint) ([]model.Grade, []GradeFailure, error) {
	if _, err := s.ExamRepo.FindByID(examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrExamNotFound
		}
		return nil, nil, err
	}

	var created []model.Grade
	var failures []GradeFailure
	for _, entry := range entries {
		grade, err := s.EnterGrade(ctx, examID, entry.StudentID, entry.Score, entry.Comment, enteredBy)
		if err != nil {
			failures = append(failures, GradeFailure{
				StudentID: entry.StudentID,
				Reason:    err.Error(),
			})
			continue
		}
		created = append(created, *grade)
	}

	logger.Log.Info("Batch grade entry finished",
		zap.Uint("examId", examID),
		zap.Int("created", len(created)),
		zap.Int("failed", len(failures)))
	return created, failures, nil
}

// CorrectGrade 订正成绩：不覆盖旧值，追加新版本并附订正原因
func (s *GradeService) CorrectGrade(ctx context.Context, examID, studentID uint, newScore float64, reason string, correctedBy uint) (*model.Grade, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}

	if newScore < 0 || newScore > exam.FullScore {
		return nil, util.ErrInvalidScore
	}

	previous, err := s.GradeRepo.FindLatest(studentID, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrGradeNotFound
		}
		return nil, err
	}

	corrected := &model.Grade{
		Score:            newScore,
		CorrectionReason: reason,
		EnteredBy:        correctedBy,
	}
	if err := s.GradeRepo.AppendCorrection(previous, corrected); err != nil {
		return nil, err
	}

	logger.Log.Info("Grade corrected",
		zap.Uint("examId", examID),
		zap.Uint("studentId", studentID),
		zap.Int("version", corrected.Version),
		zap.Float64("oldScore", previous.Score),
		zap.Float64("newScore", newScore))

	s.Cache.Invalidate(ctx, examID)
	return corrected, nil
}

// History 成绩订正历史，从首录到最新
func (s *GradeService) History(examID, studentID uint) ([]model.Grade, error) {
	grades, err := s.GradeRepo.History(studentID, examID)
	if err != nil {
		return nil, err
	}
	if len(grades) == 0 {
		return nil, util.ErrGradeNotFound
	}
	return grades, nil
}

// StudentGrades 学生全部最新成绩
func (s *GradeService) StudentGrades(studentID uint) ([]model.Grade, error) {
	return s.GradeRepo.ListLatestByStudent(studentID)
}
