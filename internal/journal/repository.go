package journal

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattjoyce/unraid-rrdtool/internal/errors"
	"github.com/mattjoyce/unraid-rrdtool/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

type Repository interface {
	Record(snapshot *RunSnapshot) error
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(cfg Config) (Repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	logger.Debug().Msgf("Initializing journal repository at: %s", cfg.DBPath)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func (r *sqliteRepository) Record(snapshot *RunSnapshot) error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				logger.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	result, err := tx.Exec(insertRunSQL,
		snapshot.Mode,
		snapshot.StartedAt.Unix(),
		snapshot.FinishedAt.Unix(),
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	for i := range snapshot.Items {
		item := &snapshot.Items[i]
		if _, err := tx.Exec(insertOutcomeSQL,
			runID,
			item.Config,
			string(item.Kind),
			item.ItemID,
			boolToInt(item.OK),
			item.Code,
			item.Detail,
			item.Timestamp.Unix(),
		); err != nil {
			return errFactory.Wrap(ErrStorageAccess, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}
	committed = true

	return nil
}

func (r *sqliteRepository) Close() error {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.Close(); err != nil {
		return errFactory.Wrap(ErrStorageClose, err)
	}
	return nil
}
