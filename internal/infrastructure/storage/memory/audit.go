package memory

import (
	"context"

	"farmops/internal/core/id"
	"farmops/internal/domain/audit"
)

// AuditRecorder implements audit.Recorder in memory.
type AuditRecorder struct {
	s *Store
}

var _ audit.Recorder = (*AuditRecorder)(nil)

func (a *AuditRecorder) Record(ctx context.Context, e audit.Entry) error {
	return a.s.view(ctx, func(st *state) error {
		st.audit = append(st.audit, e)
		return nil
	})
}

// History returns the entries recorded for one entity, oldest first.
func (a *AuditRecorder) History(ctx context.Context, entityType string, entityID id.ID) []audit.Entry {
	var out []audit.Entry
	_ = a.s.view(ctx, func(st *state) error {
		for _, e := range st.audit {
			if e.EntityType == entityType && e.EntityID == entityID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out
}
