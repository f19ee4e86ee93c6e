package repository

import (
	"smart_edu_backend/internal/model"

	"gorm.io/gorm"
)

type GradeRepository struct {
	DB *gorm.DB
}

func NewGradeRepository(db *gorm.DB) *GradeRepository {
	return &GradeRepository{DB: db}
}

func (r *GradeRepository) Create(grade *model.Grade) error {
	return r.DB.Create(grade).Error
}

func (r *GradeRepository) FindByID(id uint) (*model.Grade, error) {
	var grade model.Grade
	err := r.DB.First(&grade, id).Error
	return &grade, err
}

func (r *GradeRepository) FindLatest(studentID, examID uint) (*model.Grade, error) {
	var grade model.Grade
	err := r.DB.Where("student_id = ? AND exam_id = ? AND is_latest = ?", studentID, examID, true).
		First(&grade).Error
	return &grade, err
}

// AppendCorrection 追加一个订正版本
// 旧版本摘掉 is_latest 标记后插入新版本，两步在同一事务内完成
func (r *GradeRepository) AppendCorrection(previous *model.Grade, corrected *model.Grade) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Grade{}).
			Where("id = ?", previous.ID).
			Update("is_latest", false).Error; err != nil {
			return err
		}

		corrected.StudentID = previous.StudentID
		corrected.ExamID = previous.ExamID
		corrected.Version = previous.Version + 1
		corrected.CorrectedFrom = &previous.ID
		corrected.IsLatest = true
		return tx.Create(corrected).Error
	})
}

// History 返回一条成绩的全部版本，从首录到最新
func (r *GradeRepository) History(studentID, examID uint) ([]model.Grade, error) {
	var grades []model.Grade
	err := r.DB.Where("student_id = ? AND exam_id = ?", studentID, examID).
		Order("version asc").
		Find(&grades).Error
	return grades, err
}

// ListLatestByExam 某场考试全体学生的最新成绩
func (r *GradeRepository) ListLatestByExam(examID uint) ([]model.Grade, error) {
	var grades []model.Grade
	err := r.DB.Preload("Student").
		Where("exam_id = ? AND is_latest = ?", examID, true).
		Order("score desc").
		Find(&grades).Error
	return grades, err
}

// ListLatestByStudent 学生全部科目的最新成绩，带考试与学科信息
func (r *GradeRepository) ListLatestByStudent(studentID uint) ([]model.Grade, error) {
	var grades []model.Grade
	err := r.DB.Preload("Exam").Preload("Exam.Subject").
		Where("student_id = ? AND is_latest = ?", studentID, true).
		Find(&grades).Error
	return grades, err
}

// ListLatestByStudentAndExams 学生在给定考试集合中的最新成绩
func (r *GradeRepository) ListLatestByStudentAndExams(studentID uint, examIDs []uint) ([]model.Grade, error) {
	if len(examIDs) == 0 {
		return nil, nil
	}
	var grades []model.Grade
	err := r.DB.Where("student_id = ? AND exam_id IN ? AND is_latest = ?", studentID, examIDs, true).
		Find(&grades).Error
	return grades, err
}

// ListLatestForExams 给定考试集合的全部最新成绩，用于计算班级均分
func (r *GradeRepository) ListLatestForExams(examIDs []uint) ([]model.Grade, error) {
	if len(examIDs) == 0 {
		return nil, nil
	}
	var grades []model.Grade
	err := r.DB.Where("exam_id IN ? AND is_latest = ?", examIDs, true).
		Find(&grades).Error
	return grades, err
}
