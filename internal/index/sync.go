package index

import (
	"log/slog"

	"github.com/starford/ansuz/internal/storage"
)

// Ingestor applies vault-driven index mutations. The note service implements
// it, so sync- and watcher-driven writes go through the same exclusive
// section as API mutations.
type Ingestor interface {
	IngestFile(id string, data []byte) error
	RemoveFile(id string) error
}

// Sync walks the vault and brings the indices up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are purged from notes, links, and tag buckets
//
// Running Sync against an unchanged vault is a no-op, so the indexed state
// is indistinguishable from a full rebuild after every mutation.
func Sync(db *DB, store storage.Provider, ing Ingestor, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.ID] = struct{}{}

		if checksums[m.ID] == m.Checksum {
			continue
		}

		data, err := store.Read(m.ID)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("id", m.ID), slog.String("error", err.Error()))
			continue
		}
		if err := ing.IngestFile(m.ID, data); err != nil {
			logger.Warn("sync: index failed", slog.String("id", m.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", m.ID))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if err := ing.RemoveFile(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}
