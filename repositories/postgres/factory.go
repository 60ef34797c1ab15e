package postgres

import (
	"context"

	"github.com/lunarspired/portfolio-chat/config"
	"github.com/lunarspired/portfolio-chat/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens the database and creates a repository factory
func NewRepositoryFactory(cfg config.DatabaseConfig, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}

	f := &RepositoryFactory{db: db, logger: logger}

	if cfg.AutoMigrate {
		if err := db.InitSchema(context.Background()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return f, nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	tm := NewTransactionManager(f.db, f.logger)
	return &repositories.Repositories{
		Sessions: NewSessionRepository(f.db, tm, f.logger),
		Messages: NewMessageRepository(f.db, f.logger),
		Chunks:   NewChunkRepository(f.db, f.logger),
	}
}

// GetTransactionManager returns a transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger)
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// Close closes the database connection
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
