package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smart_edu_backend/internal/model"
	"smart_edu_backend/pkg/logger"
	"smart_edu_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// StatisticsCache 考试统计结果的 Redis 缓存
// 成绩录入或订正后按考试维度失效，Redis 不可用时直接回源计算
type StatisticsCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewStatisticsCache(rdb *redis.Client, ttlMinutes int) *StatisticsCache {
	if ttlMinutes <= 0 {
		ttlMinutes = 30
	}
	return &StatisticsCache{
		Redis: rdb,
		TTL:   time.Duration(ttlMinutes) * time.Minute,
	}
}

func (c *StatisticsCache) key(examID uint) string {
	return fmt.Sprintf("exam_stats:%d", examID)
}

func (c *StatisticsCache) Get(ctx context.Context, examID uint) (*model.ExamStatistics, bool) {
	if c.Redis == nil {
		return nil, false
	}

	val, err := c.Redis.Get(ctx, c.key(examID)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("Exam statistics cache read failed", zap.Uint("examId", examID), zap.Error(err))
		}
		monitoring.StatsCacheCounter.WithLabelValues("miss").Inc()
		return nil, false
	}

	var stats model.ExamStatistics
	if err := json.Unmarshal([]byte(val), &stats); err != nil {
		monitoring.StatsCacheCounter.WithLabelValues("miss").Inc()
		return nil, false
	}

	monitoring.StatsCacheCounter.WithLabelValues("hit").Inc()
	return &stats, true
}

func (c *StatisticsCache) Set(ctx context.Context, stats *model.ExamStatistics) {
	if c.Redis == nil || stats == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return
	}

	if err := c.Redis.Set(ctx, c.key(stats.ExamID), data, c.TTL).Err(); err != nil {
		logger.Log.Warn("Exam statistics cache write failed", zap.Uint("examId", stats.ExamID), zap.Error(err))
	}
}

// Invalidate 成绩变更后删掉对应考试的缓存
func (c *StatisticsCache) Invalidate(ctx context.Context, examID uint) {
	if c.Redis == nil {
		return
	}

	if err := c.Redis.Del(ctx, c.key(examID)).Err(); err != nil {
		logger.Log.Warn("Exam statistics cache invalidate failed", zap.Uint("examId", examID), zap.Error(err))
	}
}
