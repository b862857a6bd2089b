// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// UploadStatus is the persisted stage marker of the recording pipeline.
type UploadStatus int

// Upload stages, in the only order they can be reached.
const (
	UploadStatusInit                 UploadStatus = 0
	UploadStatusUploadedToStorage    UploadStatus = 1
	UploadStatusUploadedToReplayHost UploadStatus = 2
	UploadStatusVerifiedComplete     UploadStatus = 10
)

// Valid reports whether s is a known stage.
func (s UploadStatus) Valid() bool {
	switch s {
	case UploadStatusInit, UploadStatusUploadedToStorage, UploadStatusUploadedToReplayHost, UploadStatusVerifiedComplete:
		return true
	}
	return false
}

func (s UploadStatus) String() string {
	switch s {
	case UploadStatusInit:
		return "INIT"
	case UploadStatusUploadedToStorage:
		return "UPLOADED_TO_STORAGE"
	case UploadStatusUploadedToReplayHost:
		return "UPLOADED_TO_REPLAY_HOST"
	case UploadStatusVerifiedComplete:
		return "VERIFIED_COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Pending reports whether a recording in this stage still needs uploading.
func (s UploadStatus) Pending() bool {
	return s == UploadStatusInit || s == UploadStatusUploadedToStorage
}
