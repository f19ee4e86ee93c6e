package service

import (
	"errors"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"

	"gorm.io/gorm"
)

type KnowledgePointService struct {
	KPRepo      *repository.KnowledgePointRepository
	SubjectRepo *repository.SubjectRepository
}

func NewKnowledgePointService(
	kpRepo *repository.KnowledgePointRepository,
	subjectRepo *repository.SubjectRepository,
) *KnowledgePointService {
	return &KnowledgePointService{
		KPRepo:      kpRepo,
		SubjectRepo: subjectRepo,
	}
}

type CreateKnowledgePointRequest struct {
	SubjectID   uint             `json:"subjectId" binding:"required"`
	Code        string           `json:"code"`
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Difficulty  model.Difficulty `json:"difficulty"`
	GradeLevel  int              `json:"gradeLevel"`
	Order       int              `json:"order"`
}

func (s *KnowledgePointService) Create(req CreateKnowledgePointRequest) (*model.KnowledgePoint, error) {
	if _, err := s.SubjectRepo.FindByID(req.SubjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("学科不存在")
		}
		return nil, err
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}

	kp := &model.KnowledgePoint{
		SubjectID:   req.SubjectID,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Difficulty:  difficulty,
		GradeLevel:  req.GradeLevel,
		Order:       req.Order,
	}
	if err := s.KPRepo.Create(kp); err != nil {
		return nil, err
	}
	return kp, nil
}

func (s *KnowledgePointService) Get(id string) (*model.KnowledgePoint, error) {
	kp, err := s.KPRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrKnowledgePointNotFound
		}
		return nil, err
	}
	return kp, nil
}

func (s *KnowledgePointService) ListBySubject(subjectID uint) ([]model.KnowledgePoint, error) {
	return s.KPRepo.ListBySubject(subjectID)
}

type UpdateKnowledgePointRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Difficulty  model.Difficulty `json:"difficulty"`
	GradeLevel  *int             `json:"gradeLevel"`
	Order       *int             `json:"order"`
}

func (s *KnowledgePointService) Update(id string, req UpdateKnowledgePointRequest) (*model.KnowledgePoint, error) {
	kp, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		kp.Name = req.Name
	}
	if req.Description != "" {
		kp.Description = req.Description
	}
	if req.Difficulty != "" {
		kp.Difficulty = req.Difficulty
	}
	if req.GradeLevel != nil {
		kp.GradeLevel = *req.GradeLevel
	}
	if req.Order != nil {
		kp.Order = *req.Order
	}

	if err := s.KPRepo.Update(kp); err != nil {
		return nil, err
	}
	return kp, nil
}
