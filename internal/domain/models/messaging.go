// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

// NATS subjects the meeting platform publishes to.
const (
	// MeetingEventSubject carries {action, msg} meeting lifecycle events.
	// The subject is of the form: lfx.meeting-platform.events.meeting
	MeetingEventSubject = "lfx.meeting-platform.events.meeting"

	// NotificationJobSubject carries queued notification jobs.
	// The subject is of the form: lfx.meeting-platform.notifications
	NotificationJobSubject = "lfx.meeting-platform.notifications"

	// NotificationStreamName is the JetStream stream backing the notification queue.
	NotificationStreamName = "MEETING_PLATFORM_NOTIFICATIONS"

	// NotificationConsumerName is the durable consumer of the notification queue.
	NotificationConsumerName = "meeting-platform-notifier"
)

// NATS wildcard subjects that the meeting platform handles messages about.
const (
	// MeetingPlatformAPIQueue is the queue group of the request handlers.
	MeetingPlatformAPIQueue = "lfx.meeting-platform.queue"

	// MeetingPlatformSubjects matches every request subject below.
	MeetingPlatformSubjects = "lfx.meeting-platform.meeting.>"
)

// NATS request subjects that the meeting platform answers.
const (
	MeetingCreateSubject       = "lfx.meeting-platform.meeting.create"
	MeetingUpdateSubject       = "lfx.meeting-platform.meeting.update"
	MeetingDeleteSubject       = "lfx.meeting-platform.meeting.delete"
	MeetingGetSubject          = "lfx.meeting-platform.meeting.get"
	MeetingListSubject         = "lfx.meeting-platform.meeting.list"
	MeetingParticipantsSubject = "lfx.meeting-platform.meeting.participants"
)

// MessageAction is the lifecycle action carried by meeting events.
type MessageAction string

const (
	ActionCreateMeeting MessageAction = "create_meeting"
	ActionUpdateMeeting MessageAction = "update_meeting"
	ActionDeleteMeeting MessageAction = "delete_meeting"
)

// NotificationJob is a unit of notification work handed from the
// orchestrator to the notification worker.
type NotificationJob struct {
	ID      string        `json:"id" msgpack:"id"`
	Action  MessageAction `json:"action" msgpack:"action"`
	Meeting Meeting       `json:"meeting" msgpack:"meeting"`
}
