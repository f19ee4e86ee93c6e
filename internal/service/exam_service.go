package service

import (
	"errors"
	"time"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"

	"gorm.io/gorm"
)

type ExamService struct {
	ExamRepo    *repository.ExamRepository
	ClassRepo   *repository.ClassRepository
	SubjectRepo *repository.SubjectRepository
}

func NewExamService(
	examRepo *repository.ExamRepository,
	classRepo *repository.ClassRepository,
	subjectRepo *repository.SubjectRepository,
) *ExamService {
	return &ExamService{
		ExamRepo:    examRepo,
		ClassRepo:   classRepo,
		SubjectRepo: subjectRepo,
	}
}

// CreateExamRequest 创建考试
type CreateExamRequest struct {
	Name        string         `json:"name" binding:"required"`
	Type        model.ExamType `json:"type"`
	SubjectID   uint           `json:"subjectId" binding:"required"`
	ClassID     uint           `json:"classId" binding:"required"`
	ExamDate    time.Time      `json:"examDate" binding:"required"`
	FullScore   float64        `json:"fullScore"`
	Description string         `json:"description"`
}

func (s *ExamService) CreateExam(req CreateExamRequest, createdBy uint) (*model.Exam, error) {
	if _, err := s.ClassRepo.FindByID(req.ClassID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("班级不存在")
		}
		return nil, err
	}

	subject, err := s.SubjectRepo.FindByID(req.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("学科不存在")
		}
		return nil, err
	}

	fullScore := req.FullScore
	if fullScore <= 0 {
		fullScore = subject.FullScore
	}
	examType := req.Type
	if examType == "" {
		examType = model.ExamQuiz
	}

	exam := &model.Exam{
		Name:        req.Name,
		Type:        examType,
		SubjectID:   req.SubjectID,
		ClassID:     req.ClassID,
		ExamDate:    req.ExamDate,
		FullScore:   fullScore,
		Description: req.Description,
		CreatedBy:   createdBy,
	}
	if err := s.ExamRepo.Create(exam); err != nil {
		return nil, err
	}
	return s.ExamRepo.FindByID(exam.ID)
}

func (s *ExamService) GetExam(examID uint) (*model.Exam, error) {
	exam, err := s.ExamRepo.FindByID(examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrExamNotFound
		}
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) ListClassExams(classID uint) ([]model.Exam, error) {
	return s.ExamRepo.ListByClass(classID)
}

func (s *ExamService) ListSubjects() ([]model.Subject, error) {
	return s.SubjectRepo.List()
}
