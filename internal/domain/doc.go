// Package domain contains the core entities the review job moves between
// the evaluation platform's services.
//
// This package defines:
//   - TraceRecord: one recorded input/output exchange from the trace store
//   - Dataset: the managed Unity Catalog table holding the review corpus
//   - LabelSchema: the rubric shown to reviewers
//   - LabelingSession: the reviewable unit tying dataset, schema, and
//     reviewers together
//   - Slack message types for the notification step
//
// Domain types are transport-agnostic; the platform and slack packages map
// them onto their wire formats.
package domain
