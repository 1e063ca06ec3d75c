package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types. Every type is dot-namespaced "<exchange>.<entity>.<action>" so
// a consumer binding on "schedule.shift.*" catches every shift event.
const (
	EventShiftCreated    = "schedule.shift.created"
	EventShiftAssigned   = "schedule.shift.assigned"
	EventShiftChanged    = "schedule.shift.changed"
	EventShiftCancelled  = "schedule.shift.cancelled"

	EventSwapRequested    = "schedule.swap.requested"
	EventSwapAutoApproved = "schedule.swap.auto_approved"
	EventSwapStepPending  = "schedule.swap.step_pending"
	EventSwapApproved     = "schedule.swap.approved"
	EventSwapRejected     = "schedule.swap.rejected"
	EventSwapCancelled    = "schedule.swap.cancelled"

	EventLeaveSubmitted = "schedule.leave.submitted"
	EventLeaveApproved  = "schedule.leave.approved"
	EventLeaveRejected  = "schedule.leave.rejected"
	EventLeaveCancelled = "schedule.leave.cancelled"

	EventPatternGenerated = "schedule.pattern.generated"

	EventAuditLogCreated = "audit.log.created"
)

// Exchange names
const (
	ExchangeScheduleEvents = "schedule.events"
	ExchangeAuditEvents    = "audit.events"
)

// Event is the base event structure published on every exchange.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ShiftAssignedEvent is published when the orchestrator or a swap assigns an
// employee to a shift.
type ShiftAssignedEvent struct {
	ShiftID      string    `json:"shift_id"`
	EmployeeID   string    `json:"employee_id"`
	Class        string    `json:"class"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	AutoAssigned bool      `json:"auto_assigned"`
}

// ShiftChangedEvent is published when a shift's time, status or assignee
// changes outside of orchestrator generation.
type ShiftChangedEvent struct {
	ShiftID string         `json:"shift_id"`
	Fields  map[string]any `json:"fields"`
}

// ShiftCancelledEvent is published when a shift is cancelled.
type ShiftCancelledEvent struct {
	ShiftID    string `json:"shift_id"`
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason,omitempty"`
}

// SwapRequestedEvent is published when a SwapRequest is created.
type SwapRequestedEvent struct {
	SwapRequestID        string `json:"swap_request_id"`
	RequestingEmployeeID string `json:"requesting_employee_id"`
	TargetEmployeeID     string `json:"target_employee_id,omitempty"`
}

// SwapDecidedEvent is published on auto-approval, final chain approval, or
// rejection of a SwapRequest.
type SwapDecidedEvent struct {
	SwapRequestID string `json:"swap_request_id"`
	Status        string `json:"status"`
	DecidedBy     string `json:"decided_by,omitempty"`
}

// SwapStepPendingEvent is published when a chain step becomes the active
// pending step and its approver needs to be notified.
type SwapStepPendingEvent struct {
	SwapRequestID string `json:"swap_request_id"`
	ChainStepID   string `json:"chain_step_id"`
	ApproverID    string `json:"approver_id"`
	Level         int    `json:"level"`
}

// LeaveDecidedEvent is published when a LeaveRequest is approved or
// rejected.
type LeaveDecidedEvent struct {
	LeaveRequestID string `json:"leave_request_id"`
	EmployeeID     string `json:"employee_id"`
	Status         string `json:"status"`
	DecidedBy      string `json:"decided_by,omitempty"`
}

// PatternGeneratedEvent is published after a recurring-pattern generation
// sweep, summarizing how many shifts it produced.
type PatternGeneratedEvent struct {
	PatternID    string `json:"pattern_id"`
	ShiftsCreated int   `json:"shifts_created"`
}

// AuditLogCreatedEvent is published when an audit log entry is created
type AuditLogCreatedEvent struct {
	LogID      string         `json:"log_id"`
	ActorID    string         `json:"actor_id,omitempty"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id"`
	Changes    map[string]any `json:"changes,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
