package service

import (
	"errors"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"

	"gorm.io/gorm"
)

type ClassService struct {
	ClassRepo *repository.ClassRepository
	UserRepo  *repository.UserRepository
}

func NewClassService(classRepo *repository.ClassRepository, userRepo *repository.UserRepository) *ClassService {
	return &ClassService{
		ClassRepo: classRepo,
		UserRepo:  userRepo,
	}
}

type CreateClassRequest struct {
	Name          string `json:"name" binding:"required"`
	GradeLevel    int    `json:"gradeLevel" binding:"required"`
	HeadTeacherID *uint  `json:"headTeacherId"`
}

func (s *ClassService) CreateClass(req CreateClassRequest) (*model.Class, error) {
	class := &model.Class{
		Name:          req.Name,
		GradeLevel:    req.GradeLevel,
		HeadTeacherID: req.HeadTeacherID,
	}
	if err := s.ClassRepo.Create(class); err != nil {
		return nil, err
	}
	return class, nil
}

func (s *ClassService) ListClasses() ([]model.Class, error) {
	return s.ClassRepo.List()
}

// Roster 班级学生名单
func (s *ClassService) Roster(classID uint) (*model.Class, error) {
	class, err := s.ClassRepo.FindWithStudents(classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrClassNotFound
		}
		return nil, err
	}
	return class, nil
}

// AssignStudent 学生调入班级
func (s *ClassService) AssignStudent(classID, studentID uint) error {
	if _, err := s.ClassRepo.FindByID(classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrClassNotFound
		}
		return err
	}

	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrStudentNotFound
		}
		return err
	}
	if student.Role != model.Student {
		return errors.New("只有学生角色可以分配班级")
	}

	student.ClassID = &classID
	return s.UserRepo.Update(student)
}
