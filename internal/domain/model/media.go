package model

import "strings"

type UploadState string

const (
	UploadStateLocal     UploadState = "local"
	UploadStateUploading UploadState = "uploading"
	UploadStateUploaded  UploadState = "uploaded"
	UploadStateError     UploadState = "error"
)

// LocalIDPrefix distinguishes client-generated placeholder ids from
// server-issued ones. A prefixed id is discarded at reconciliation and must
// never be referenced afterwards.
const LocalIDPrefix = "local_"

// RawFile is a user-selected file before it becomes an addressable item.
type RawFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f *RawFile) IsImage() bool {
	return strings.HasPrefix(f.ContentType, "image/")
}

// MediaItem is an image attached to a message or a post draft.
type MediaItem struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	UploadState UploadState `json:"upload_state"`
	Position    int         `json:"position"`

	// File is kept only for items that still need uploading; an item without
	// a raw file is never re-uploaded even when marked error.
	File *RawFile `json:"-"`
}

// PendingUpload reports whether the item is eligible for a (re)upload batch.
func (m *MediaItem) PendingUpload() bool {
	return m.UploadState != UploadStateUploaded && m.File != nil
}

func (m *MediaItem) HasLocalID() bool {
	return strings.HasPrefix(m.ID, LocalIDPrefix)
}
