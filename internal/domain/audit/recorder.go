// Package audit defines the change trail written by the document services.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	appctx "farmops/internal/core/context"
	"farmops/internal/core/entity"
	"farmops/internal/core/id"
)

// Action is the kind of change recorded.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionStatusChange Action = "status_change"
)

// Entity type names used in the trail.
const (
	EntityOrder    = "order"
	EntityDelivery = "delivery"
)

// Entry is one audited change. Changes is serialized as JSON by the recorder.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	Changes    any
}

// Recorder writes audit entries. Implementations write within the caller's
// transaction when there is one.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Noop discards entries.
type Noop struct{}

func (Noop) Record(context.Context, Entry) error { return nil }

// StampCreated sets CreatedBy and UpdatedBy from the request user.
// No-op when the context carries no user.
func StampCreated(ctx context.Context, doc *entity.BaseDocument) {
	if userID := appctx.GetUserID(ctx); userID != "" {
		doc.CreatedBy = userID
		doc.UpdatedBy = userID
	}
}

// StampUpdated touches doc with the request user.
func StampUpdated(ctx context.Context, doc *entity.BaseDocument) {
	doc.Touch(appctx.GetUserID(ctx))
}

// Change is the before and after state of an updated entity.
type Change struct {
	Before any
	After  any
}

// Diff returns the top-level JSON fields that differ between c.Before and
// c.After as {"field": {"old": ..., "new": ...}}.
func (c Change) Diff() (map[string]any, error) {
	oldState, err := toMap(c.Before)
	if err != nil {
		return nil, err
	}
	newState, err := toMap(c.After)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}
	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}
	return changes, nil
}

func toMap(v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return out, nil
}
