package store

import (
	"go.uber.org/zap"

	"github.com/BaSui01/textscore/config"
	"github.com/BaSui01/textscore/internal/database"
)

// Open 按配置创建报告存储：driver 为空或 memory 时使用内存存储
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	if !cfg.Persistent() {
		return NewMemoryStore(), nil
	}
	pool, err := database.Open(cfg, logger)
	if err != nil {
		return nil, err
	}
	s, err := NewGormStore(pool, logger)
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	return s, nil
}
