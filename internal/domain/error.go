package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrPollInProgress     = errors.New("a poll is already in progress for this watcher")
	ErrSendInProgress     = errors.New("a message send is already in progress")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrMediaNotUploaded   = errors.New("attached media is not uploaded yet")
	ErrNoImageFiles       = errors.New("no image files among the selected files")
	ErrMissingCredentials = errors.New("missing session credentials")
	ErrUploadFailed       = errors.New("media upload failed")
	ErrJobFailed          = errors.New("background job failed")
	ErrPostPublished      = errors.New("post is already published")
)
