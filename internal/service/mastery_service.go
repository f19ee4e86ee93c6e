package service

import (
	"errors"
	"sync"
	"time"

	"smart_edu_backend/internal/config"
	"smart_edu_backend/internal/model"
	"smart_edu_backend/internal/repository"
	"smart_edu_backend/internal/util"
	"smart_edu_backend/pkg/logger"
	"smart_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// pointLock 包装单个 (学生, 知识点) 的互斥锁和最后使用时间，用于定期清理
type pointLock struct {
	mu       sync.Mutex
	lastUsed time.Time
}

// MasteryService 知识点掌握度跟踪
// 同一学生同一知识点的并发练习上报按 key 串行化，避免指数平滑更新互相覆盖
type MasteryService struct {
	MasteryRepo  *repository.MasteryRepository
	PracticeRepo *repository.PracticeRepository
	KPRepo       *repository.KnowledgePointRepository
	Cfg          config.AnalysisConfig

	mu    sync.Mutex
	locks map[string]*pointLock
}

func NewMasteryService(
	masteryRepo *repository.MasteryRepository,
	practiceRepo *repository.PracticeRepository,
	kpRepo *repository.KnowledgePointRepository,
	cfg config.AnalysisConfig,
) *MasteryService {
	s := &MasteryService{
		MasteryRepo:  masteryRepo,
		PracticeRepo: practiceRepo,
		KPRepo:       kpRepo,
		Cfg:          cfg,
		locks:        make(map[string]*pointLock),
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			s.mu.Lock()
			for key, l := range s.locks {
				if time.Since(l.lastUsed) > 10*time.Minute {
					delete(s.locks, key)
				}
			}
			s.mu.Unlock()
		}
	}()

	return s
}

func (s *MasteryService) lockFor(studentID uint, kpID string) *pointLock {
	key := kpID + ":" + util.FormatUint(studentID)

	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &pointLock{}
		s.locks[key] = l
	}
	l.lastUsed = time.Now()
	s.mu.Unlock()
	return l
}

// PracticeSubmission 练习结果上报
type PracticeSubmission struct {
	KnowledgePointID string               `json:"knowledgePointId" binding:"required"`
	TotalCount       int                  `json:"totalCount" binding:"required,min=1"`
	CorrectCount     int                  `json:"correctCount" binding:"min=0"`
	Source           model.PracticeSource `json:"source"`
	PracticedAt      *time.Time           `json:"practicedAt"`
}

// RecordPractice 记录一次练习并更新掌握度
// 掌握度用指数平滑累进：new = alpha*rate + (1-alpha)*old，初始值为 0
func (s *MasteryService) RecordPractice(studentID uint, sub PracticeSubmission) (*model.KnowledgePointMastery, error) {
	if sub.TotalCount <= 0 || sub.CorrectCount < 0 || sub.CorrectCount > sub.TotalCount {
		return nil, util.ErrInvalidPractice
	}

	if _, err := s.KPRepo.FindByID(sub.KnowledgePointID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrKnowledgePointNotFound
		}
		return nil, err
	}

	rate := float64(sub.CorrectCount) / float64(sub.TotalCount)
	practicedAt := time.Now()
	if sub.PracticedAt != nil {
		practicedAt = *sub.PracticedAt
	}
	source := sub.Source
	if source == "" {
		source = model.SourcePractice
	}

	record := &model.PracticeRecord{
		StudentID:        studentID,
		KnowledgePointID: sub.KnowledgePointID,
		TotalCount:       sub.TotalCount,
		CorrectCount:     sub.CorrectCount,
		ScoreRate:        rate,
		Source:           source,
		PracticedAt:      practicedAt,
	}
	if err := s.PracticeRepo.Create(record); err != nil {
		return nil, err
	}

	// 临界区：读-改-写必须按 (学生, 知识点) 串行
	l := s.lockFor(studentID, sub.KnowledgePointID)
	l.mu.Lock()
	defer l.mu.Unlock()

	mastery, err := s.MasteryRepo.Find(studentID, sub.KnowledgePointID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		mastery = &model.KnowledgePointMastery{
			StudentID:        studentID,
			KnowledgePointID: sub.KnowledgePointID,
			Status:           model.MasteryNotStarted,
		}
		if err := s.MasteryRepo.Create(mastery); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	wasMastered := mastery.MasteredAt != nil

	mastery.MasteryLevel = s.Cfg.MasteryAlpha*rate + (1-s.Cfg.MasteryAlpha)*mastery.MasteryLevel
	mastery.PracticeCount++
	mastery.LastPracticedAt = &practicedAt

	switch {
	case wasMastered && rate < s.Cfg.ReviewThreshold:
		// 已掌握的知识点出现明显失分，标记遗忘
		mastery.Status = model.MasteryNeedsReview
	case mastery.MasteryLevel >= s.Cfg.MasteredLevel && mastery.PracticeCount >= s.Cfg.MasteredMinRuns:
		mastery.Status = model.MasteryMastered
		if mastery.MasteredAt == nil {
			now := time.Now()
			mastery.MasteredAt = &now
		}
	default:
		mastery.Status = model.MasteryInProgress
	}

	if err := s.MasteryRepo.Save(mastery); err != nil {
		return nil, err
	}

	monitoring.MasteryUpdateCounter.WithLabelValues(string(mastery.Status)).Inc()
	return mastery, nil
}

// effectiveStatus 读取时叠加时效规则：已掌握但超期未练习视为需复习
func (s *MasteryService) effectiveStatus(m *model.KnowledgePointMastery) model.MasteryStatus {
	if m.Status == model.MasteryMastered && m.LastPracticedAt != nil {
		staleAfter := time.Duration(s.Cfg.StalenessDays) * 24 * time.Hour
		if time.Since(*m.LastPracticedAt) > staleAfter {
			return model.MasteryNeedsReview
		}
	}
	return m.Status
}

// StudentMastery 学生全部知识点的掌握情况，读取时应用时效规则
func (s *MasteryService) StudentMastery(studentID uint) ([]model.KnowledgePointMastery, error) {
	masteries, err := s.MasteryRepo.ListByStudent(studentID)
	if err != nil {
		return nil, err
	}
	for i := range masteries {
		masteries[i].Status = s.effectiveStatus(&masteries[i])
	}
	return masteries, nil
}

// StudentMasteryBySubject 按学科过滤的掌握情况
func (s *MasteryService) StudentMasteryBySubject(studentID, subjectID uint) ([]model.KnowledgePointMastery, error) {
	masteries, err := s.MasteryRepo.ListByStudentAndSubject(studentID, subjectID)
	if err != nil {
		return nil, err
	}
	for i := range masteries {
		masteries[i].Status = s.effectiveStatus(&masteries[i])
	}
	return masteries, nil
}

// Summary 掌握状态分布概览
func (s *MasteryService) Summary(studentID uint) (*model.MasterySummary, error) {
	masteries, err := s.StudentMastery(studentID)
	if err != nil {
		return nil, err
	}

	summary := &model.MasterySummary{Total: len(masteries)}
	for _, m := range masteries {
		switch m.Status {
		case model.MasteryMastered:
			summary.Mastered++
		case model.MasteryInProgress:
			summary.InProgress++
		case model.MasteryNeedsReview:
			summary.NeedsReview++
		default:
			summary.NotStarted++
		}
	}
	return summary, nil
}

// PracticeHistory 学生对单个知识点的练习记录
func (s *MasteryService) PracticeHistory(studentID uint, kpID string) ([]model.PracticeRecord, error) {
	return s.PracticeRepo.ListByStudentAndPoint(studentID, kpID)
}

// SweepStale 把超期未练习的已掌握记录落库置为需复习，由后台定时任务调用
func (s *MasteryService) SweepStale() {
	cutoff := time.Now().Add(-time.Duration(s.Cfg.StalenessDays) * 24 * time.Hour)
	affected, err := s.MasteryRepo.MarkStale(cutoff)
	if err != nil {
		logger.Log.Error("Stale mastery sweep failed", zap.Error(err))
		return
	}
	if affected > 0 {
		logger.Log.Info("Stale mastery records marked for review", zap.Int64("affected", affected))
	}
}
