/*
Package bus implements the hybrid persistent-plus-ephemeral publish-
subscribe message bus inter-agent signals travel over.

Every send persists a Signal through pkg/store first, then publishes a
notification on the topic "signals:<to>" to any live subscriber. Publish is
best-effort and non-blocking — a slow or absent subscriber drops the
notification, never the persisted record, so late subscribers recover by
listing the store directly.
*/
package bus
