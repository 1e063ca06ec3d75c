// Package domain holds the entity types described in the scheduling data
// model: employees, teams, shifts, leave, swaps, approval chains and
// notifications. Entities are data carriers only; business logic lives in
// the sibling conflict/fairness/orchestrator/approval packages.
package domain

import "time"

// ShiftClass is the closed set of shift categories the fairness ledger and
// orchestrator generators key off of.
type ShiftClass string

const (
	ClassIncidents  ShiftClass = "incidents"
	ClassWaakdienst ShiftClass = "waakdienst"
	ClassChanges    ShiftClass = "changes"
	ClassProject    ShiftClass = "project"
)

// ShiftStatus is the closed set of shift lifecycle states.
type ShiftStatus string

const (
	ShiftScheduled  ShiftStatus = "scheduled"
	ShiftConfirmed  ShiftStatus = "confirmed"
	ShiftInProgress ShiftStatus = "in_progress"
	ShiftCompleted  ShiftStatus = "completed"
	ShiftCancelled  ShiftStatus = "cancelled"
)

// LeaveStatus is the closed set of leave request states.
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

// SwapStatus is the closed set of swap request states.
type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapApproved  SwapStatus = "approved"
	SwapRejected  SwapStatus = "rejected"
	SwapCancelled SwapStatus = "cancelled"
)

// ChainStepStatus is the closed set of approval chain step states.
type ChainStepStatus string

const (
	StepPending     ChainStepStatus = "pending"
	StepApproved    ChainStepStatus = "approved"
	StepRejected    ChainStepStatus = "rejected"
	StepSkipped     ChainStepStatus = "skipped"
	StepDelegated   ChainStepStatus = "delegated"
	StepAutoApproved ChainStepStatus = "auto_approved"
)

// AuditAction is the closed set of swap audit actions.
type AuditAction string

const (
	AuditCreated      AuditAction = "created"
	AuditRuleApplied  AuditAction = "rule_applied"
	AuditAutoApproved AuditAction = "auto_approved"
	AuditApproved     AuditAction = "approved"
	AuditRejected     AuditAction = "rejected"
	AuditDelegated    AuditAction = "delegated"
	AuditEscalated    AuditAction = "escalated"
	AuditCancelled    AuditAction = "cancelled"
)

// RecurrenceKind is the closed set of recurring pattern frequencies.
type RecurrenceKind string

const (
	RecurDaily    RecurrenceKind = "daily"
	RecurWeekly   RecurrenceKind = "weekly"
	RecurBiweekly RecurrenceKind = "biweekly"
	RecurMonthly  RecurrenceKind = "monthly"
)

// Department groups one or more Teams under an organizational unit.
type Department struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Active    bool       `db:"active" json:"active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Team groups Employees under an optional Department and manager.
type Team struct {
	ID           string     `db:"id" json:"id" validate:"-"`
	Name         string     `db:"name" json:"name" validate:"required"`
	DepartmentID *string    `db:"department_id" json:"department_id,omitempty"`
	ManagerID    *string    `db:"manager_id" json:"manager_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Employee is a schedulable engineer.
type Employee struct {
	ID                      string     `db:"id" json:"id" validate:"-"`
	DisplayName             string     `db:"display_name" json:"display_name" validate:"required"`
	Email                   string     `db:"email" json:"email" validate:"required,email"`
	TeamID                  *string    `db:"team_id" json:"team_id,omitempty"`
	Skills                  []string   `db:"-" json:"skills"`
	FTE                     float64    `db:"fte" json:"fte" validate:"required,gt=0,lte=1"`
	HireDate                time.Time  `db:"hire_date" json:"hire_date" validate:"required"`
	Active                  bool       `db:"active" json:"active"`
	AvailableForIncidents   bool       `db:"available_for_incidents" json:"available_for_incidents"`
	AvailableForWaakdienst  bool       `db:"available_for_waakdienst" json:"available_for_waakdienst"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt               *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// AvailableFor reports whether the employee carries the availability flag
// for the given shift class.
func (e Employee) AvailableFor(class ShiftClass) bool {
	switch class {
	case ClassIncidents:
		return e.AvailableForIncidents
	case ClassWaakdienst:
		return e.AvailableForWaakdienst
	default:
		return true
	}
}

// HasSkills reports whether the employee carries every skill in required.
func (e Employee) HasSkills(required []string) bool {
	have := make(map[string]bool, len(e.Skills))
	for _, s := range e.Skills {
		have[s] = true
	}
	for _, r := range required {
		if !have[r] {
			return false
		}
	}
	return true
}

// TenureMonths returns whole months of tenure as of "at".
func (e Employee) TenureMonths(at time.Time) int {
	years := at.Year() - e.HireDate.Year()
	months := int(at.Month()) - int(e.HireDate.Month())
	total := years*12 + months
	if at.Day() < e.HireDate.Day() {
		total--
	}
	if total < 0 {
		return 0
	}
	return total
}

// ShiftTemplate is a reusable shift definition.
type ShiftTemplate struct {
	ID               string     `db:"id" json:"id" validate:"-"`
	Name             string     `db:"name" json:"name" validate:"required"`
	Class            ShiftClass `db:"class" json:"class" validate:"required,oneof=incidents waakdienst changes project"`
	DefaultStartTOD  string     `db:"default_start_tod" json:"default_start_tod" validate:"required"` // "HH:MM"
	DefaultEndTOD    string     `db:"default_end_tod" json:"default_end_tod" validate:"required"`
	RequiredHeadcount int       `db:"required_headcount" json:"required_headcount" validate:"required,gte=1"`
	Category         string     `db:"category" json:"category"`
	Tags             []string   `db:"-" json:"tags"`
	Favorite         bool       `db:"favorite" json:"favorite"`
	UsageCount       int        `db:"usage_count" json:"usage_count"`
	Active           bool       `db:"active" json:"active"`
	RequiredSkills   []string   `db:"-" json:"required_skills"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Shift is a concrete assignment of an Employee to a time interval.
type Shift struct {
	ID             string      `db:"id" json:"id"`
	TemplateID     string      `db:"template_id" json:"template_id"`
	Class          ShiftClass  `db:"class" json:"class"`
	AssignedEmployeeID string  `db:"assigned_employee_id" json:"assigned_employee_id"`
	Start          time.Time   `db:"start_time" json:"start"`
	End            time.Time   `db:"end_time" json:"end"`
	Status         ShiftStatus `db:"status" json:"status"`
	Notes          string      `db:"notes" json:"notes,omitempty"`
	AutoAssigned   bool        `db:"auto_assigned" json:"auto_assigned"`
	Reason         string      `db:"reason" json:"reason,omitempty"`
	PatternKey     *string     `db:"pattern_key" json:"pattern_key,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time  `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedBy      *string     `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy      *string     `db:"updated_by" json:"updated_by,omitempty"`
}

// DurationHours returns the shift length in hours.
func (s Shift) DurationHours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// Overlaps reports whether s and o share any instant, ignoring cancelled
// shifts on either side.
func (s Shift) Overlaps(o Shift) bool {
	if s.Status == ShiftCancelled || o.Status == ShiftCancelled {
		return false
	}
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// Active reports whether the shift still counts toward conflicts/fairness.
func (s Shift) Active() bool {
	return s.Status != ShiftCancelled
}

// RecurringShiftPattern generates Shifts on a cadence.
type RecurringShiftPattern struct {
	ID                  string         `db:"id" json:"id"`
	TemplateID          string         `db:"template_id" json:"template_id"`
	Kind                RecurrenceKind `db:"kind" json:"kind"`
	StartTOD            string         `db:"start_tod" json:"start_tod"`
	EndTOD              string         `db:"end_tod" json:"end_tod"`
	Weekdays            []time.Weekday `db:"-" json:"weekdays,omitempty"`
	DayOfMonth          int            `db:"day_of_month" json:"day_of_month,omitempty"`
	PatternStart        time.Time      `db:"pattern_start" json:"pattern_start"`
	PatternEnd          *time.Time     `db:"pattern_end" json:"pattern_end,omitempty"`
	AssignedEmployeeID  *string        `db:"assigned_employee_id" json:"assigned_employee_id,omitempty"`
	AssignedTeamID      *string        `db:"assigned_team_id" json:"assigned_team_id,omitempty"`
	Active              bool           `db:"active" json:"active"`
	LastGeneratedThrough *time.Time    `db:"last_generated_through" json:"last_generated_through,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// Key returns the stable identifier used to dedupe generated shifts against
// manual edits for this pattern.
func (p RecurringShiftPattern) Key() string {
	return "pattern:" + p.ID
}

// LeaveRequest is a civil-date interval of requested time off.
type LeaveRequest struct {
	ID                string      `db:"id" json:"id" validate:"-"`
	EmployeeID        string      `db:"employee_id" json:"employee_id" validate:"required"`
	LeaveType         string      `db:"leave_type" json:"leave_type" validate:"required"`
	StartDate         time.Time   `db:"start_date" json:"start_date" validate:"required"`
	EndDate           time.Time   `db:"end_date" json:"end_date" validate:"required"`
	RequestedDayCount float64     `db:"requested_day_count" json:"requested_day_count"`
	Status            LeaveStatus `db:"status" json:"status"`
	DeciderID         *string     `db:"decider_id" json:"decider_id,omitempty"`
	DecidedAt         *time.Time  `db:"decided_at" json:"decided_at,omitempty"`
	Reason            string      `db:"reason" json:"reason,omitempty"`
	ResolutionNote    string      `db:"resolution_note" json:"resolution_note,omitempty"`
	Version           int         `db:"version" json:"version"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

// IntersectsDate reports whether the civil date d falls within [start, end].
func (l LeaveRequest) IntersectsDate(d time.Time) bool {
	day := civilDate(d)
	return !day.Before(civilDate(l.StartDate)) && !day.After(civilDate(l.EndDate))
}

// IntersectsRange reports whether [start,end] overlaps the leave interval.
func (l LeaveRequest) IntersectsRange(start, end time.Time) bool {
	s, e := civilDate(l.StartDate), civilDate(l.EndDate)
	rs, re := civilDate(start), civilDate(end)
	return !s.After(re) && !rs.After(e)
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SwapRequest is a request to exchange (or hand off) one Shift.
type SwapRequest struct {
	ID                 string     `db:"id" json:"id" validate:"-"`
	RequestingEmployeeID string   `db:"requesting_employee_id" json:"requesting_employee_id" validate:"required"`
	TargetEmployeeID   *string    `db:"target_employee_id" json:"target_employee_id,omitempty"`
	RequestingShiftID  string     `db:"requesting_shift_id" json:"requesting_shift_id" validate:"required"`
	TargetShiftID      *string    `db:"target_shift_id" json:"target_shift_id,omitempty"`
	Reason             string     `db:"reason" json:"reason,omitempty"`
	Status             SwapStatus `db:"status" json:"status"`
	RuleID             *string    `db:"rule_id" json:"rule_id,omitempty"`
	Version            int        `db:"version" json:"version"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// OneWay reports whether the swap has no target shift (a handoff).
func (s SwapRequest) OneWay() bool {
	return s.TargetShiftID == nil
}

// SwapApprovalRule configures auto-approval and chain construction for a
// shift class.
type SwapApprovalRule struct {
	ID                     string       `db:"id" json:"id"`
	Priority               int          `db:"priority" json:"priority"`
	Active                 bool         `db:"active" json:"active"`
	AppliesTo              []ShiftClass `db:"-" json:"applies_to"`
	SameClassRequired      bool         `db:"same_class_required" json:"same_class_required"`
	MinAdvanceHours        float64      `db:"min_advance_hours" json:"min_advance_hours"`
	MinSeniorityMonths     int          `db:"min_seniority_months" json:"min_seniority_months"`
	SkillsMatchRequired    bool         `db:"skills_match_required" json:"skills_match_required"`
	MonthlySwapCap         int          `db:"monthly_swap_cap" json:"monthly_swap_cap"`
	AutoApprovalEnabled    bool         `db:"auto_approval_enabled" json:"auto_approval_enabled"`
	RequiresManagerApproval bool        `db:"requires_manager_approval" json:"requires_manager_approval"`
	RequiresAdminApproval  bool         `db:"requires_admin_approval" json:"requires_admin_approval"`
	LevelsRequired         int          `db:"levels_required" json:"levels_required"`
	AllowDelegation        bool         `db:"allow_delegation" json:"allow_delegation"`
	NotifyOnDecision       bool         `db:"notify_on_decision" json:"notify_on_decision"`
	CreatedAt              time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time    `db:"updated_at" json:"updated_at"`
}

// AppliesToClass reports whether the rule is scoped to the given class.
func (r SwapApprovalRule) AppliesToClass(c ShiftClass) bool {
	for _, a := range r.AppliesTo {
		if a == c {
			return true
		}
	}
	return false
}

// DefaultSwapApprovalRule is used when no active rule matches a class.
func DefaultSwapApprovalRule() SwapApprovalRule {
	return SwapApprovalRule{
		ID:                      "default",
		Priority:                0,
		Active:                  true,
		RequiresManagerApproval: true,
		LevelsRequired:          1,
		AutoApprovalEnabled:     false,
	}
}

// SwapApprovalChainStep is one level of a multi-level approval chain.
type SwapApprovalChainStep struct {
	ID            string          `db:"id" json:"id"`
	SwapRequestID string          `db:"swap_request_id" json:"swap_request_id"`
	Level         int             `db:"level" json:"level"`
	ApproverID    string          `db:"approver_id" json:"approver_id"`
	Status        ChainStepStatus `db:"status" json:"status"`
	DecidedAt     *time.Time      `db:"decided_at" json:"decided_at,omitempty"`
	Notes         string          `db:"notes" json:"notes,omitempty"`
	DelegatedToID *string         `db:"delegated_to_id" json:"delegated_to_id,omitempty"`
	RuleID        string          `db:"rule_id" json:"rule_id"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ApprovalDelegation substitutes delegate for delegator over an interval.
type ApprovalDelegation struct {
	ID          string     `db:"id" json:"id"`
	DelegatorID string     `db:"delegator_id" json:"delegator_id"`
	DelegateID  string     `db:"delegate_id" json:"delegate_id"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	Active      bool       `db:"active" json:"active"`
	Reason      string     `db:"reason" json:"reason,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// ActiveOn reports whether the delegation is in effect on the given date.
func (d ApprovalDelegation) ActiveOn(today time.Time) bool {
	if !d.Active {
		return false
	}
	t := civilDate(today)
	if t.Before(civilDate(d.StartDate)) {
		return false
	}
	if d.EndDate != nil && t.After(civilDate(*d.EndDate)) {
		return false
	}
	return true
}

// SwapApprovalAudit is an append-only log entry for a SwapRequest.
type SwapApprovalAudit struct {
	ID            string      `db:"id" json:"id"`
	SwapRequestID string      `db:"swap_request_id" json:"swap_request_id"`
	Action        AuditAction `db:"action" json:"action"`
	ActorID       *string     `db:"actor_id" json:"actor_id,omitempty"`
	ChainStepID   *string     `db:"chain_step_id" json:"chain_step_id,omitempty"`
	RuleID        *string     `db:"rule_id" json:"rule_id,omitempty"`
	Notes         string      `db:"notes" json:"notes,omitempty"`
	Metadata      map[string]string `db:"-" json:"metadata,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
}

// NotificationClass enumerates the kinds of events the sink emits.
type NotificationClass string

const (
	NotifyShiftAssigned      NotificationClass = "shift_assigned"
	NotifyShiftChanged       NotificationClass = "shift_changed"
	NotifySwapRequested      NotificationClass = "swap_requested"
	NotifySwapAutoApproved   NotificationClass = "swap_auto_approved"
	NotifySwapStepPending    NotificationClass = "swap_step_pending"
	NotifySwapApproved       NotificationClass = "swap_approved"
	NotifySwapRejected       NotificationClass = "swap_rejected"
	NotifyLeaveSubmitted     NotificationClass = "leave_submitted"
	NotifyLeaveApproved      NotificationClass = "leave_approved"
	NotifyLeaveRejected      NotificationClass = "leave_rejected"
)

// NotificationEvent is an in-app or emailed message to an Employee.
type NotificationEvent struct {
	ID           string            `db:"id" json:"id"`
	RecipientID  string            `db:"recipient_id" json:"recipient_id"`
	Class        NotificationClass `db:"class" json:"class"`
	Title        string            `db:"title" json:"title"`
	Body         string            `db:"body" json:"body"`
	ActionLink   string            `db:"action_link" json:"action_link,omitempty"`
	ShiftID      *string           `db:"shift_id" json:"shift_id,omitempty"`
	LeaveID      *string           `db:"leave_id" json:"leave_id,omitempty"`
	SwapID       *string           `db:"swap_id" json:"swap_id,omitempty"`
	Email        bool              `db:"email" json:"email"`
	InApp        bool              `db:"in_app" json:"in_app"`
	Read         bool              `db:"read" json:"read"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
}

// NotificationPreference is a per-employee opt-in/quiet-hours configuration.
type NotificationPreference struct {
	EmployeeID      string                     `db:"employee_id" json:"employee_id"`
	EmailByClass    map[NotificationClass]bool `db:"-" json:"email_by_class"`
	InAppByClass    map[NotificationClass]bool `db:"-" json:"in_app_by_class"`
	QuietHoursStart string                     `db:"quiet_hours_start" json:"quiet_hours_start,omitempty"` // "HH:MM"
	QuietHoursEnd   string                     `db:"quiet_hours_end" json:"quiet_hours_end,omitempty"`
}

// EmailEnabled reports whether email is on for class, defaulting to true.
func (p NotificationPreference) EmailEnabled(c NotificationClass) bool {
	if p.EmailByClass == nil {
		return true
	}
	v, ok := p.EmailByClass[c]
	if !ok {
		return true
	}
	return v
}

// InAppEnabled reports whether in-app is on for class, defaulting to true.
func (p NotificationPreference) InAppEnabled(c NotificationClass) bool {
	if p.InAppByClass == nil {
		return true
	}
	v, ok := p.InAppByClass[c]
	if !ok {
		return true
	}
	return v
}

// InQuietHours reports whether t's time-of-day falls in [start,end), handling
// intervals that wrap past midnight.
func (p NotificationPreference) InQuietHours(t time.Time) bool {
	if p.QuietHoursStart == "" || p.QuietHoursEnd == "" {
		return false
	}
	start, err1 := time.Parse("15:04", p.QuietHoursStart)
	end, err2 := time.Parse("15:04", p.QuietHoursEnd)
	if err1 != nil || err2 != nil {
		return false
	}
	cur := t.Hour()*60 + t.Minute()
	s := start.Hour()*60 + start.Minute()
	e := end.Hour()*60 + end.Minute()
	if s <= e {
		return cur >= s && cur < e
	}
	return cur >= s || cur < e
}

// LeaveBalance tracks an Employee's yearly vacation entitlement and usage.
type LeaveBalance struct {
	EmployeeID        string  `db:"employee_id" json:"employee_id"`
	Year              int     `db:"year" json:"year"`
	AnnualEntitlement float64 `db:"annual_entitlement" json:"annual_entitlement"`
	CarryoverDays     float64 `db:"carryover_days" json:"carryover_days"`
	Taken             float64 `db:"taken" json:"taken"`
	Planned           float64 `db:"planned" json:"planned"`
	Pending           float64 `db:"pending" json:"pending"`
}

// Remaining returns the days left in the balance.
func (b LeaveBalance) Remaining() float64 {
	return b.AnnualEntitlement + b.CarryoverDays - b.Taken - b.Planned - b.Pending
}
