package pipeline

import (
	"fmt"
	"os"

	"healthtrack/internal/logger"
	"healthtrack/internal/model"
	"healthtrack/internal/storage"
)

// Applier converts a provisional payload into a typed payload once the
// remote model has classified the entry, and relocates backing assets into
// the directory named after the new type.
type Applier struct {
	store  storage.EntryStore
	assets *storage.AssetStore
}

func NewApplier(store storage.EntryStore, assets *storage.AssetStore) *Applier {
	return &Applier{store: store, assets: assets}
}

// Apply reconciles the entry with the detected type. When the type is
// unchanged and the payload is already typed, nothing is written — calling
// Apply again with the same detected type is a no-op.
func (a *Applier) Apply(entry *model.Entry, detected model.EntryType) error {
	typeChanged := entry.Type != detected

	payloadConverted := false
	if pending, ok := entry.Payload.(*model.PendingPayload); ok {
		if typed := model.ConvertPendingPayload(pending, detected); typed != nil {
			entry.Payload = typed
			entry.SchemaVersion = model.CurrentSchemaVersion
			payloadConverted = true
		}
	}

	if !typeChanged && !payloadConverted {
		return nil
	}

	if typeChanged {
		entry.Type = detected
		a.relocateAssets(entry)
	}

	if err := a.store.UpdateEntry(entry); err != nil {
		return fmt.Errorf("failed to persist reclassified entry: %w", err)
	}
	return nil
}

// relocateAssets moves the primary asset and any payload-referenced preview
// into the new type's directory. Relocation is best-effort: a missing source
// is logged and skipped, and a failed move never blocks the reclassification.
func (a *Applier) relocateAssets(entry *model.Entry) {
	log := logger.GetLogger()

	if entry.BlobPath != "" {
		newPath, err := a.assets.Relocate(entry.BlobPath, entry.Type)
		switch {
		case err == nil:
			entry.BlobPath = newPath
		case os.IsNotExist(err):
			log.Warnf("Primary asset for entry %d missing at %s, skipping relocation", entry.ID, entry.BlobPath)
		default:
			log.Errorf("Failed to relocate primary asset for entry %d: %v", entry.ID, err)
		}
	}

	preview := model.PreviewPath(entry.Payload)
	if preview == "" || preview == entry.BlobPath {
		return
	}

	newPath, err := a.assets.Relocate(preview, entry.Type)
	switch {
	case err == nil:
		model.SetPreviewPath(entry.Payload, newPath)
	case os.IsNotExist(err):
		log.Warnf("Preview asset for entry %d missing at %s, skipping relocation", entry.ID, preview)
	default:
		log.Errorf("Failed to relocate preview asset for entry %d: %v", entry.ID, err)
	}
}
