package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/textscore/evaluation"
	"github.com/BaSui01/textscore/internal/database"
	"github.com/BaSui01/textscore/metric"
)

// reportRecord 报告表行，嵌套字段以 JSON 文本存储以兼容各方言
type reportRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	CreatedAt time.Time `gorm:"index"`
	Pairs     int
	Metrics   string `gorm:"type:text"`
	Params    string `gorm:"type:text"`
	Scores    string `gorm:"type:text"`
	Details   string `gorm:"type:text"`
	Summaries string `gorm:"type:text"`
	Labels    string `gorm:"type:text"`
}

func (reportRecord) TableName() string { return "textscore_reports" }

// GormStore 基于 GORM 的报告存储
type GormStore struct {
	pool   *database.Pool
	logger *zap.Logger
}

// NewGormStore 创建存储并迁移报告表
func NewGormStore(pool *database.Pool, logger *zap.Logger) (*GormStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pool.DB().AutoMigrate(&reportRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate reports table: %w", err)
	}
	return &GormStore{
		pool:   pool,
		logger: logger.With(zap.String("component", "report_store")),
	}, nil
}

// Save implements Store.
func (s *GormStore) Save(ctx context.Context, report *Report) error {
	if report == nil {
		return invalidReport()
	}
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}

	rec, err := toRecord(report)
	if err != nil {
		return err
	}
	err = s.pool.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Save(rec).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", report.ID, err)
	}
	s.logger.Debug("report saved", zap.String("id", report.ID), zap.Int("pairs", report.Pairs))
	return nil
}

// Load implements Store.
func (s *GormStore) Load(ctx context.Context, id string) (*Report, error) {
	var rec reportRecord
	err := s.pool.DB().WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", id, err)
	}
	return fromRecord(&rec)
}

// List implements Store.
func (s *GormStore) List(ctx context.Context, limit int) ([]*Report, error) {
	q := s.pool.DB().WithContext(ctx).Order("created_at DESC").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recs []reportRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	result := make([]*Report, 0, len(recs))
	for i := range recs {
		r, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

// Delete implements Store.
func (s *GormStore) Delete(ctx context.Context, id string) error {
	var affected int64
	err := s.pool.WithTransaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&reportRecord{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

// Ping implements Store.
func (s *GormStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements Store.
func (s *GormStore) Close() error {
	return s.pool.Close()
}

func toRecord(r *Report) (*reportRecord, error) {
	rec := &reportRecord{ID: r.ID, CreatedAt: r.CreatedAt, Pairs: r.Pairs}
	fields := []struct {
		dst *string
		src any
	}{
		{&rec.Metrics, r.Metrics},
		{&rec.Params, r.Params},
		{&rec.Scores, r.Scores},
		{&rec.Details, r.Details},
		{&rec.Summaries, r.Summaries},
		{&rec.Labels, r.Labels},
	}
	for _, f := range fields {
		data, err := json.Marshal(f.src)
		if err != nil {
			return nil, fmt.Errorf("failed to encode report %s: %w", r.ID, err)
		}
		*f.dst = string(data)
	}
	return rec, nil
}

func fromRecord(rec *reportRecord) (*Report, error) {
	r := &Report{ID: rec.ID, CreatedAt: rec.CreatedAt.UTC(), Pairs: rec.Pairs}
	var (
		params    metric.Params
		summaries map[string]evaluation.Summary
	)
	fields := []struct {
		src string
		dst any
	}{
		{rec.Metrics, &r.Metrics},
		{rec.Params, &params},
		{rec.Scores, &r.Scores},
		{rec.Details, &r.Details},
		{rec.Summaries, &summaries},
		{rec.Labels, &r.Labels},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("failed to decode report %s: %w", rec.ID, err)
		}
	}
	r.Params = params
	r.Summaries = summaries
	return r, nil
}
