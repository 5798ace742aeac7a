package orchestrator

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"social-post-copilot/internal/domain"
	"social-post-copilot/internal/domain/model"
	"social-post-copilot/internal/domain/ports/gateway"
	"social-post-copilot/internal/infra/metrics"
)

// Uploader turns user-selected files into addressable media items, uploads
// pending ones in a single batch and reconciles client-generated placeholder
// ids with server-issued ones.
type Uploader struct {
	media gateway.MediaStore
	sess  *SessionContext
	log   *zerolog.Logger

	mu       sync.Mutex
	onChange func([]model.MediaItem)
}

func NewUploader(media gateway.MediaStore, sess *SessionContext, logger *zerolog.Logger) *Uploader {
	ulog := logger.With().Str("component", "Uploader").Logger()
	return &Uploader{media: media, sess: sess, log: &ulog}
}

// OnChange registers a callback fired after every observable state
// transition of the collection, including the intermediate uploading state.
func (u *Uploader) OnChange(fn func([]model.MediaItem)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onChange = fn
}

// CreateMediaFromFiles filters non-image files out and wraps the rest as
// local media items with collision-resistant placeholder ids. The result is
// empty when no supplied file is an image; callers surface that as an error.
// Re-invoking on the same files yields fresh ids, there is no deduplication.
func (u *Uploader) CreateMediaFromFiles(files []model.RawFile) []model.MediaItem {
	items := make([]model.MediaItem, 0, len(files))
	for i := range files {
		f := files[i]
		if !f.IsImage() {
			u.log.Debug().Str("file", f.Name).Str("content_type", f.ContentType).
				Msg("skipping non-image file")
			continue
		}
		items = append(items, model.MediaItem{
			ID:          model.LocalIDPrefix + uuid.NewString(),
			URL:         dataURL(&f),
			UploadState: model.UploadStateLocal,
			File:        &f,
		})
	}
	return items
}

// UploadImages uploads the eligible pending subset of items in one batch and
// returns the merged collection. With no pending items it is a safe no-op.
// Missing credentials mark every pending item as error before any request is
// attempted; a failed batch rolls back exactly the items this call marked as
// uploading.
func (u *Uploader) UploadImages(ctx context.Context, items []model.MediaItem) ([]model.MediaItem, error) {
	out := make([]model.MediaItem, len(items))
	copy(out, items)

	var pending []int
	for i := range out {
		if out[i].PendingUpload() {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return out, nil
	}

	creds := u.sess.Credentials()
	if !creds.Complete() {
		for _, i := range pending {
			out[i].UploadState = model.UploadStateError
		}
		u.notify(out)
		metrics.ObserveUploadBatch("rejected", len(pending))
		return out, domain.ErrMissingCredentials
	}

	batch := make([]gateway.MediaUpload, 0, len(pending))
	for _, i := range pending {
		out[i].UploadState = model.UploadStateUploading
		batch = append(batch, gateway.MediaUpload{
			TempID:      out[i].ID,
			Name:        out[i].File.Name,
			ContentType: out[i].File.ContentType,
			Data:        out[i].File.Data,
		})
	}
	u.notify(out)

	results, err := u.media.UploadBatch(ctx, creds, batch)
	if err != nil {
		for _, i := range pending {
			out[i].UploadState = model.UploadStateError
		}
		u.notify(out)
		u.log.Error().Err(err).Int("items", len(pending)).Msg("batch upload failed")
		metrics.ObserveUploadBatch("error", len(pending))
		return out, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	// Reconciliation: the local id is only linked to the server identity
	// through the echoed temp id. Items the server did not echo stay as-is.
	byTemp := make(map[string]gateway.UploadResult, len(results))
	for _, r := range results {
		byTemp[r.TempID] = r
	}
	for _, i := range pending {
		r, ok := byTemp[out[i].ID]
		if !ok {
			continue
		}
		out[i].ID = r.ID
		out[i].URL = r.URL
		out[i].UploadState = model.UploadStateUploaded
		out[i].File = nil
	}
	u.notify(out)
	metrics.ObserveUploadBatch("ok", len(pending))
	return out, nil
}

// AddFilesToUpload composes create, append and upload; every intermediate
// state of the merged collection is propagated through the change callback.
func (u *Uploader) AddFilesToUpload(ctx context.Context, files []model.RawFile, current []model.MediaItem) ([]model.MediaItem, error) {
	created := u.CreateMediaFromFiles(files)
	if len(created) == 0 {
		return current, domain.ErrNoImageFiles
	}
	merged := make([]model.MediaItem, 0, len(current)+len(created))
	merged = append(merged, current...)
	merged = append(merged, created...)
	u.notify(merged)
	return u.UploadImages(ctx, merged)
}

func (u *Uploader) notify(items []model.MediaItem) {
	u.mu.Lock()
	fn := u.onChange
	u.mu.Unlock()
	if fn != nil {
		out := make([]model.MediaItem, len(items))
		copy(out, items)
		fn(out)
	}
}

func dataURL(f *model.RawFile) string {
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}
