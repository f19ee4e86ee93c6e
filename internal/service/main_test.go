package service

import (
	"fmt"
	"os"
	"sync/atomic"
	"testing"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/pkg/database"
	"smart_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// openTestDB 每个测试一份私有内存库，单连接池保证写入串行
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

var testUserSeq int64

func createStudent(t *testing.T, db *gorm.DB, name string, classID *uint) *model.User {
	t.Helper()
	seq := atomic.AddInt64(&testUserSeq, 1)
	user := &model.User{
		Name:      name,
		Email:     fmt.Sprintf("student%d@example.com", seq),
		Password:  "secret",
		Role:      model.Student,
		ClassID:   classID,
		StudentNo: fmt.Sprintf("S%04d", seq),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create student: %v", err)
	}
	return user
}

func createClass(t *testing.T, db *gorm.DB, name string, gradeLevel int) *model.Class {
	t.Helper()
	class := &model.Class{Name: name, GradeLevel: gradeLevel}
	if err := db.Create(class).Error; err != nil {
		t.Fatalf("create class: %v", err)
	}
	return class
}

func createSubject(t *testing.T, db *gorm.DB, code, name string, fullScore float64) *model.Subject {
	t.Helper()
	subject := &model.Subject{Code: code, Name: name, FullScore: fullScore}
	if err := db.Create(subject).Error; err != nil {
		t.Fatalf("create subject: %v", err)
	}
	return subject
}

// seededSubject 取 database.Seed 预置的默认学科
// Seed 之后不能再用相同 code 建学科，code 列有唯一约束
func seededSubject(t *testing.T, db *gorm.DB, code string) *model.Subject {
	t.Helper()
	var subject model.Subject
	if err := db.Where("code = ?", code).First(&subject).Error; err != nil {
		t.Fatalf("load seeded subject %s: %v", code, err)
	}
	return &subject
}

func createKnowledgePoint(t *testing.T, db *gorm.DB, subjectID uint, name string) *model.KnowledgePoint {
	t.Helper()
	kp := &model.KnowledgePoint{
		SubjectID:  subjectID,
		Name:       name,
		Difficulty: model.DifficultyMedium,
	}
	if err := db.Create(kp).Error; err != nil {
		t.Fatalf("create knowledge point: %v", err)
	}
	return kp
}
