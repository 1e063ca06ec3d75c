package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/rotakit/rotakit/internal/rota/domain"
	"github.com/rotakit/rotakit/internal/rota/events"
	apperrors "github.com/rotakit/rotakit/pkg/errors"
)

// workingDayCount returns the number of Mon-Fri civil days in [start,end]
// inclusive, per SPEC_FULL.md §10's ruling on end_date == start_date.
func workingDayCount(start, end time.Time) float64 {
	days := 0.0
	cur := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())
	for !cur.After(last) {
		if cur.Weekday() != time.Saturday && cur.Weekday() != time.Sunday {
			days++
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return days
}

// SubmitLeave implements the leave-approval variant of submit(): a single
// manager level, no auto-approval, per spec §4.6.
func (e *Engine) SubmitLeave(ctx context.Context, leave domain.LeaveRequest, actor domain.Employee) (*domain.LeaveRequest, error) {
	report, err := e.conflict.CheckLeaveConflicts(ctx, leave.EmployeeID, leave.StartDate, leave.EndDate, actor.TeamID)
	if err != nil {
		return nil, err
	}
	if len(report.PersonalOverlaps) > 0 {
		details := map[string]string{"overlapping_request_id": report.PersonalOverlaps[0].ID}
		return nil, apperrors.ConflictBlocking("requested range overlaps an existing leave request", details)
	}
	if len(report.ShiftConflicts) > 0 {
		details := map[string]string{"conflicting_shift_id": report.ShiftConflicts[0].ID}
		return nil, apperrors.ConflictBlocking("requested range overlaps a scheduled or confirmed shift", details)
	}

	now := e.clock.Now()
	leave.Status = domain.LeavePending
	leave.CreatedAt = now
	leave.UpdatedAt = now
	if leave.EndDate.Equal(leave.StartDate) {
		leave.RequestedDayCount = 1
	} else if leave.RequestedDayCount == 0 {
		leave.RequestedDayCount = workingDayCount(leave.StartDate, leave.EndDate)
	}
	if err := e.store.Leave().Create(ctx, &leave); err != nil {
		return nil, err
	}

	if actor.TeamID == nil {
		return nil, apperrors.Internal("requesting employee has no team; cannot resolve a manager approver")
	}
	managerID, err := e.roles.TeamManager(ctx, *actor.TeamID)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("leave request %s needs your decision", leave.ID)
	if report.Blocking {
		body += " (conflicts detected)"
	}
	_ = e.sink.Emit(ctx, events.Notification{
		RecipientID: managerID,
		Class:       domain.NotifyLeaveSubmitted,
		Title:       "leave approval requested",
		Body:        body,
		LeaveID:     &leave.ID,
	})
	return &leave, nil
}

// DecideLeave applies a manager decision to a pending leave request. An
// approval that resolves a set of mutually-conflicting pending requests
// atomically rejects the others, recording a fixed resolution note on each;
// notes becomes the resolution note of the decided request.
func (e *Engine) DecideLeave(ctx context.Context, leaveID string, actor domain.Employee, outcome Outcome, notes string, conflictingRequestIDs []string) error {
	leave, err := e.store.Leave().Get(ctx, leaveID)
	if err != nil {
		return err
	}
	if leave.Status != domain.LeavePending {
		return apperrors.Conflict("leave request is not pending", nil)
	}

	now := e.clock.Now()
	leave.DeciderID = &actor.ID
	leave.DecidedAt = &now

	switch outcome {
	case OutcomeApprove:
		leave.Status = domain.LeaveApproved
		leave.ResolutionNote = notes
		if err := e.store.Leave().UpdateWithVersion(ctx, leave); err != nil {
			return err
		}
		if err := e.applyBalanceOnApproval(ctx, *leave); err != nil {
			return err
		}
		_ = e.sink.Emit(ctx, events.Notification{
			RecipientID: leave.EmployeeID,
			Class:       domain.NotifyLeaveApproved,
			Title:       "leave request approved",
			Body:        fmt.Sprintf("your leave request %s was approved", leave.ID),
			LeaveID:     &leave.ID,
		})

		for _, otherID := range conflictingRequestIDs {
			if otherID == leaveID {
				continue
			}
			if err := e.rejectConflictingLeave(ctx, otherID, actor, "resolved in favor of a conflicting request"); err != nil {
				return err
			}
		}
		return nil

	case OutcomeReject:
		leave.Status = domain.LeaveRejected
		leave.ResolutionNote = notes
		if err := e.store.Leave().UpdateWithVersion(ctx, leave); err != nil {
			return err
		}
		_ = e.sink.Emit(ctx, events.Notification{
			RecipientID: leave.EmployeeID,
			Class:       domain.NotifyLeaveRejected,
			Title:       "leave request rejected",
			Body:        fmt.Sprintf("your leave request %s was rejected", leave.ID),
			LeaveID:     &leave.ID,
		})
		return nil

	default:
		return apperrors.BadRequest("leave decisions only support approve/reject", nil)
	}
}

func (e *Engine) rejectConflictingLeave(ctx context.Context, leaveID string, actor domain.Employee, note string) error {
	other, err := e.store.Leave().Get(ctx, leaveID)
	if err != nil {
		return err
	}
	if other.Status != domain.LeavePending {
		return nil
	}
	now := e.clock.Now()
	other.Status = domain.LeaveRejected
	other.DeciderID = &actor.ID
	other.DecidedAt = &now
	other.ResolutionNote = note
	if err := e.store.Leave().UpdateWithVersion(ctx, other); err != nil {
		return err
	}
	_ = e.sink.Emit(ctx, events.Notification{
		RecipientID: other.EmployeeID,
		Class:       domain.NotifyLeaveRejected,
		Title:       "leave request rejected",
		Body:        fmt.Sprintf("your leave request %s was rejected: %s", other.ID, note),
		LeaveID:     &other.ID,
	})
	return nil
}

func (e *Engine) applyBalanceOnApproval(ctx context.Context, leave domain.LeaveRequest) error {
	bal, err := e.store.Leave().GetBalance(ctx, leave.EmployeeID, leave.StartDate.Year())
	if err != nil {
		bal = &domain.LeaveBalance{EmployeeID: leave.EmployeeID, Year: leave.StartDate.Year()}
	}
	bal.Pending -= leave.RequestedDayCount
	if bal.Pending < 0 {
		bal.Pending = 0
	}
	bal.Planned += leave.RequestedDayCount
	return e.store.Leave().PutBalance(ctx, bal)
}
