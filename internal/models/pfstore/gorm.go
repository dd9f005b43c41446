package pfstore

import (
	"context"
	"errors"
	"time"

	"github.com/insatiatedsoulcode/portfolio/internal/gormzerologger"
	"github.com/insatiatedsoulcode/portfolio/internal/models/pfconfig"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Blob est une entrée clé/valeur persistée via GORM
type Blob struct {
	Key       string    `gorm:"primaryKey;size:191"`
	Value     []byte    `gorm:"type:blob"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Blob) TableName() string {
	return "kv_blobs"
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(cfg pfconfig.StorageConfig, logLevel string) (*GormStore, error) {
	gormLogger := gormzerologger.New(logLevel)

	var db *gorm.DB
	var err error
	switch cfg.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
			Logger: gormLogger,
		})
	case "mysql":
		db, err = gorm.Open(mysql.Open(cfg.Dsn), &gorm.Config{
			Logger: gormLogger,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Blob{}); err != nil {
		return nil, err
	}

	return &GormStore{db: db}, nil
}

// NewGormStoreFromDB enveloppe une connexion existante (tests)
func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Blob{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	var blob Blob
	result := s.db.WithContext(ctx).First(&blob, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return blob.Value, nil
}

func (s *GormStore) Put(ctx context.Context, key string, value []byte) error {
	blob := Blob{Key: key, Value: value}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&blob).Error
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&Blob{}, "key = ?", key).Error
}
