// Package roles implements approval.RoleResolver against the domain store
// and the static escalation configuration, so the approval engine never
// has to know where team managers or admin approvers come from.
package roles

import (
	"context"
	"fmt"

	"github.com/rotakit/rotakit/internal/rota/store"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

// StoreResolver answers approval.RoleResolver from store.Team.ManagerID
// plus a configured admin approver and escalation chain beyond it.
type StoreResolver struct {
	store                 store.Store
	adminApproverID        string
	escalationApproverIDs  []string // index 0 answers level 3, index 1 level 4, ...
}

// New constructs a StoreResolver. adminApproverID and escalationApproverIDs
// come from SchedulingConfig; an empty adminApproverID means level-2 admin
// approval steps fail fast rather than silently resolving to nobody.
func New(st store.Store, adminApproverID string, escalationApproverIDs []string) *StoreResolver {
	return &StoreResolver{store: st, adminApproverID: adminApproverID, escalationApproverIDs: escalationApproverIDs}
}

func (r *StoreResolver) TeamManager(ctx context.Context, teamID string) (string, error) {
	team, err := r.store.Teams().Get(ctx, teamID)
	if err != nil {
		return "", err
	}
	if team.ManagerID == nil {
		return "", apperrors.Internal("team " + teamID + " has no manager assigned")
	}
	return *team.ManagerID, nil
}

func (r *StoreResolver) AdminApprover(ctx context.Context) (string, error) {
	if r.adminApproverID == "" {
		return "", apperrors.Internal("no admin approver configured")
	}
	return r.adminApproverID, nil
}

// EscalationApprover answers level 3 and beyond: level 3 is index 0 of the
// configured chain, level 4 is index 1, and so on. Running off the end of
// the configured chain is an operator configuration error, not a silent
// fallback.
func (r *StoreResolver) EscalationApprover(ctx context.Context, level int) (string, error) {
	idx := level - 3
	if idx < 0 || idx >= len(r.escalationApproverIDs) {
		return "", apperrors.Internal(fmt.Sprintf("no escalation approver configured for level %d", level))
	}
	return r.escalationApproverIDs[idx], nil
}
