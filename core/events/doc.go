// Package events defines the pipeline events emitted on the event bus.
//
// Available event types:
//   - DecisionEvent: a dispatch decision was taken
//   - NotificationEvent: a DELAY or RESCHEDULE notice for downstream channels
//   - OverrideEvent: a human override was applied
//   - LearningEvent: a learning cycle completed
package events
