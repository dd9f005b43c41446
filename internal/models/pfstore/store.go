package pfstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/insatiatedsoulcode/portfolio/internal/models/pfconfig"
)

// ErrNotFound est retourné quand la clé n'existe pas dans le store
var ErrNotFound = errors.New("pfstore: clé introuvable")

// Store est le substrat clé/valeur durable du site: un espace plat de blobs
// indépendants, chacun lu et réécrit en entier (dernier écrivain gagne).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// New construit le store selon la configuration: sqlite, mysql ou redis
func New(cfg pfconfig.StorageConfig, logLevel string) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "mysql":
		return NewGormStore(cfg, logLevel)
	case "redis":
		return NewRedisStore(cfg.Redis.Addr, cfg.Redis.Db), nil
	default:
		return nil, fmt.Errorf("le driver de storage doit etre sqlite, mysql ou redis")
	}
}
