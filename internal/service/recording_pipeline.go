// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/metrics"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/pkg/retry"
)

// Pipeline stage names used in logs and metrics.
const (
	StageVerification  = "verification"
	StageRetrieval     = "retrieval"
	StageCover         = "cover"
	StageStorageUpload = "storage_upload"
	StageReplayUpload  = "replay_upload"
)

// RecordingTarget is where the recordings of one community are published.
type RecordingTarget struct {
	Storage domain.ObjectStorage
	Bucket  string
	Replay  domain.ReplayHost
}

// RecordingPipeline archives meeting recordings to object storage and the
// replay host. Every stage persists its status before the next one starts,
// so an interrupted run resumes at the last completed stage.
type RecordingPipeline struct {
	MeetingRepository domain.MeetingRepository
	PlatformRegistry  domain.PlatformRegistry
	CoverRenderer     domain.CoverRenderer
	VideoInspector    domain.VideoInspector
	Targets           map[string]RecordingTarget
	Window            OperatingWindow
	Retry             retry.Policy

	now func() time.Time
}

// NewRecordingPipeline creates a new RecordingPipeline. inspector may be nil.
func NewRecordingPipeline(
	meetingRepository domain.MeetingRepository,
	platformRegistry domain.PlatformRegistry,
	coverRenderer domain.CoverRenderer,
	inspector domain.VideoInspector,
	targets map[string]RecordingTarget,
	window OperatingWindow,
) *RecordingPipeline {
	return &RecordingPipeline{
		MeetingRepository: meetingRepository,
		PlatformRegistry:  platformRegistry,
		CoverRenderer:     coverRenderer,
		VideoInspector:    inspector,
		Targets:           targets,
		Window:            window,
		Retry:             retry.Default,
		now:               time.Now,
	}
}

// ServiceReady checks if the pipeline is ready for use.
func (p *RecordingPipeline) ServiceReady() bool {
	return p.MeetingRepository != nil &&
		p.PlatformRegistry != nil &&
		p.CoverRenderer != nil &&
		len(p.Targets) > 0
}

// Run processes every configured community concurrently, one worker per
// community. Meetings of one community are handled sequentially.
func (p *RecordingPipeline) Run(ctx context.Context) error {
	if !p.ServiceReady() {
		slog.ErrorContext(ctx, "recording pipeline not initialized", logging.PriorityCritical())
		return domain.ErrServiceUnavailable
	}

	tasks := make([]func() error, 0, len(p.Targets))
	for community := range p.Targets {
		tasks = append(tasks, func() error {
			return p.RunCommunity(ctx, community)
		})
	}

	started := time.Now()
	errs := concurrent.NewWorkerPool(len(tasks)).RunAll(ctx, tasks...)
	slog.InfoContext(ctx, "recording pipeline finished",
		"communities", len(tasks),
		"failed", len(errs),
		"duration", time.Since(started).String(),
	)
	return errors.Join(errs...)
}

// RunCommunity runs the verification pass and then the upload stages for the
// pending meetings of one community. A failing meeting is logged and skipped.
func (p *RecordingPipeline) RunCommunity(ctx context.Context, community string) error {
	target, ok := p.Targets[community]
	if !ok {
		return domain.NewValidationError(fmt.Sprintf("no recording target configured for %s", community))
	}
	ctx = logging.AppendCtx(ctx, slog.String("community", community))

	if err := p.verify(ctx, community, target); err != nil {
		// Verification is independent of the uploads below.
		slog.ErrorContext(ctx, "verification pass failed", logging.ErrKey, err)
	}

	pending, err := p.MeetingRepository.ListByUploadStatus(ctx, community,
		models.UploadStatusInit, models.UploadStatusUploadedToStorage)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list pending recordings", logging.ErrKey, err)
		return err
	}

	now := p.now()
	processed := 0
	for _, meeting := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		end, err := meeting.EndTime(p.Window.Location)
		if err != nil || end.After(now) {
			continue
		}
		processed++
		meetingCtx := logging.AppendCtx(ctx, slog.String("meeting_id", meeting.ID))
		meetingCtx = logging.AppendCtx(meetingCtx, slog.String("mid", meeting.MID))
		if err := p.ProcessMeeting(meetingCtx, target, meeting); err != nil {
			slog.ErrorContext(meetingCtx, "recording not archived",
				logging.ErrKey, err,
				"upload_status", meeting.UploadStatus.String(),
			)
		}
	}

	slog.InfoContext(ctx, "community recordings handled", "pending", len(pending), "processed", processed)
	return nil
}

func (p *RecordingPipeline) verify(ctx context.Context, community string, target RecordingTarget) error {
	uploaded, err := p.MeetingRepository.ListByUploadStatus(ctx, community, models.UploadStatusUploadedToReplayHost)
	if err != nil {
		return err
	}
	if len(uploaded) == 0 {
		return nil
	}

	ids, err := retry.Value(ctx, p.Retry, StageVerification, func() ([]string, error) {
		return target.Replay.ListProcessedVideos(ctx)
	})
	if err != nil {
		metrics.RecordStage(community, StageVerification, metrics.OutcomeFailure)
		return domain.NewPipelineStageError(StageVerification, err)
	}
	processed := mapset.NewSet(ids...)

	for _, meeting := range uploaded {
		if !processed.Contains(meeting.ReplayID()) {
			slog.DebugContext(ctx, "replay still processing", "meeting_id", meeting.ID, "replay_url", meeting.ReplayURL)
			continue
		}
		if err := p.MeetingRepository.AdvanceUploadStatus(ctx, meeting.ID, models.UploadStatusVerifiedComplete, ""); err != nil {
			slog.ErrorContext(ctx, "failed to mark recording verified", logging.ErrKey, err, "meeting_id", meeting.ID)
			continue
		}
		metrics.RecordStage(community, StageVerification, metrics.OutcomeSuccess)
		slog.InfoContext(ctx, "recording verified", "meeting_id", meeting.ID, "replay_url", meeting.ReplayURL)
	}
	return nil
}

// ProcessMeeting drives one meeting from its current stage to
// UPLOADED_TO_REPLAY_HOST. Temporary files are removed on return.
func (p *RecordingPipeline) ProcessMeeting(ctx context.Context, target RecordingTarget, meeting *models.Meeting) error {
	community := meeting.Community

	videoPath, err := p.retrieve(ctx, meeting)
	if videoPath != "" {
		defer func() {
			if err := os.RemoveAll(filepath.Dir(videoPath)); err != nil {
				slog.WarnContext(ctx, "failed to remove recording work dir", logging.ErrKey, err)
			}
		}()
	}
	if err != nil {
		metrics.RecordStage(community, StageRetrieval, metrics.OutcomeFailure)
		return err
	}
	metrics.RecordStage(community, StageRetrieval, metrics.OutcomeSuccess)

	coverPath, err := p.CoverRenderer.Render(ctx, meeting, filepath.Dir(videoPath))
	if err == nil {
		if _, statErr := os.Stat(coverPath); statErr != nil {
			err = statErr
		}
	}
	if err != nil {
		metrics.RecordStage(community, StageCover, metrics.OutcomeFailure)
		return domain.NewPipelineStageError(StageCover, err)
	}
	metrics.RecordStage(community, StageCover, metrics.OutcomeSuccess)

	if meeting.UploadStatus == models.UploadStatusInit {
		if err := p.uploadToStorage(ctx, target, meeting, videoPath, coverPath); err != nil {
			metrics.RecordStage(community, StageStorageUpload, metrics.OutcomeFailure)
			return domain.NewPipelineStageError(StageStorageUpload, err)
		}
		if err := p.MeetingRepository.AdvanceUploadStatus(ctx, meeting.ID, models.UploadStatusUploadedToStorage, ""); err != nil {
			return domain.NewPipelineStageError(StageStorageUpload, err)
		}
		meeting.UploadStatus = models.UploadStatusUploadedToStorage
		metrics.RecordStage(community, StageStorageUpload, metrics.OutcomeSuccess)
		slog.InfoContext(ctx, "recording archived to storage", "key", meeting.RecordingObjectKey())
	} else {
		metrics.RecordStage(community, StageStorageUpload, metrics.OutcomeSkipped)
	}

	upload := domain.ReplayUpload{
		Title:       fmt.Sprintf("%s（%s）", meeting.Topic, meeting.Date),
		Description: fmt.Sprintf("community meeting recording for %s", meeting.GroupName),
		Tags:        []string{meeting.Community, "SIG meeting", "recording"},
		VideoPath:   videoPath,
		CoverPath:   coverPath,
	}
	replayID, err := retry.Value(ctx, p.Retry, StageReplayUpload, func() (string, error) {
		replayID, err := target.Replay.Upload(ctx, upload)
		return replayID, stopOnRejection(err)
	})
	if err != nil {
		metrics.RecordStage(community, StageReplayUpload, metrics.OutcomeFailure)
		return domain.NewPipelineStageError(StageReplayUpload, err)
	}
	replayURL := target.Replay.ReplayURL(replayID)
	if err := p.MeetingRepository.AdvanceUploadStatus(ctx, meeting.ID, models.UploadStatusUploadedToReplayHost, replayURL); err != nil {
		return domain.NewPipelineStageError(StageReplayUpload, err)
	}
	meeting.UploadStatus = models.UploadStatusUploadedToReplayHost
	meeting.ReplayURL = replayURL
	metrics.RecordStage(community, StageReplayUpload, metrics.OutcomeSuccess)
	slog.InfoContext(ctx, "recording published", "replay_url", replayURL)
	return nil
}

// retrieve returns the local recording path. The path is returned alongside
// an error when a file was produced but is unusable, so it can be cleaned up.
func (p *RecordingPipeline) retrieve(ctx context.Context, meeting *models.Meeting) (string, error) {
	result, err := p.PlatformRegistry.Invoke(ctx, domain.OperationGetVideo, meeting)
	if err != nil {
		return "", domain.NewPipelineStageError(StageRetrieval, err)
	}
	if result == nil || result.VideoPath == "" {
		return "", domain.NewPipelineStageError(StageRetrieval, errors.New("no recording found"))
	}

	info, err := os.Stat(result.VideoPath)
	if err != nil {
		return "", domain.NewPipelineStageError(StageRetrieval, err)
	}
	if info.Size() == 0 {
		return result.VideoPath, domain.NewPipelineStageError(StageRetrieval, errors.New("downloaded recording is empty"))
	}
	return result.VideoPath, nil
}

// uploadToStorage archives the recording and its cover. Objects left by an
// earlier run that stopped before persisting its status are not uploaded again.
func (p *RecordingPipeline) uploadToStorage(ctx context.Context, target RecordingTarget, meeting *models.Meeting, videoPath, coverPath string) error {
	videoKey := meeting.RecordingObjectKey()
	videoArchived, coverArchived := p.archived(ctx, target, meeting, videoPath)

	if videoArchived {
		slog.InfoContext(ctx, "recording already archived, skipping upload", "key", videoKey)
	} else {
		metadata, err := p.recordingMetadata(ctx, target, meeting, videoKey, videoPath)
		if err != nil {
			return err
		}
		err = p.Retry.Do(ctx, StageStorageUpload, func() error {
			return target.Storage.Upload(ctx, target.Bucket, videoKey, videoPath, metadata)
		})
		if err != nil {
			return err
		}
	}

	if coverArchived {
		return nil
	}
	return p.Retry.Do(ctx, StageStorageUpload, func() error {
		return target.Storage.Upload(ctx, target.Bucket, meeting.CoverObjectKey(), coverPath, nil)
	})
}

// archived reports which objects of meeting the bucket already holds. The
// video only counts when its size matches the local download. Lookup failures
// count as absent, since uploads overwrite.
func (p *RecordingPipeline) archived(ctx context.Context, target RecordingTarget, meeting *models.Meeting, videoPath string) (video, cover bool) {
	info, err := os.Stat(videoPath)
	if err != nil {
		return false, false
	}

	object, err := target.Storage.GetObjectMetadata(ctx, target.Bucket, meeting.RecordingObjectKey())
	switch {
	case err == nil:
		video = object.Size == info.Size()
	case domain.GetErrorType(err) != domain.ErrorTypeNotFound:
		slog.WarnContext(ctx, "failed to look up archived recording", logging.ErrKey, err)
	}

	objects, err := target.Storage.ListObjects(ctx, target.Bucket, meeting.RecordingObjectDir())
	if err != nil {
		slog.WarnContext(ctx, "failed to list archived objects", logging.ErrKey, err)
		return video, false
	}
	coverKey := meeting.CoverObjectKey()
	for _, o := range objects {
		if o.Key == coverKey {
			cover = true
			break
		}
	}
	return video, cover
}

func (p *RecordingPipeline) recordingMetadata(ctx context.Context, target RecordingTarget, meeting *models.Meeting, key, videoPath string) (map[string]string, error) {
	info, err := os.Stat(videoPath)
	if err != nil {
		return nil, err
	}
	metadata := map[string]string{
		"meeting_id":    meeting.MID,
		"meeting_topic": meeting.Topic,
		"community":     meeting.Community,
		"sig":           meeting.GroupName,
		"agenda":        meeting.Agenda,
		"record_start":  meeting.Date + "T" + meeting.Start + ":00Z",
		"record_end":    meeting.Date + "T" + meeting.End + ":00Z",
		"download_url":  target.Storage.DownloadURL(target.Bucket, key),
		"total_size":    strconv.FormatInt(info.Size(), 10),
	}
	if p.VideoInspector != nil {
		duration, err := p.VideoInspector.Duration(ctx, videoPath)
		if err != nil {
			slog.WarnContext(ctx, "failed to read recording duration", logging.ErrKey, err)
		} else {
			metadata["duration"] = strconv.Itoa(int(duration.Seconds()))
		}
	}
	return metadata, nil
}
