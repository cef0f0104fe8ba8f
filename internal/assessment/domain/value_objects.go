package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCompanyNameRequired is returned when a record without company name is submitted for save.
	ErrCompanyNameRequired = errors.New("company name is required")
	// ErrInvalidField marks an enumeration value outside its allowed set.
	ErrInvalidField = errors.New("invalid field value")
)

// AccompanyingRole identifies who walked the site with the nurse.
type AccompanyingRole string

const (
	RoleLaborSafety AccompanyingRole = "labor"
	RoleHR          AccompanyingRole = "hr"
	RoleOther       AccompanyingRole = "other"
)

func NewAccompanyingRole(value string) (AccompanyingRole, error) {
	switch v := AccompanyingRole(strings.TrimSpace(value)); v {
	case "":
		return RoleLaborSafety, nil
	case RoleLaborSafety, RoleHR, RoleOther:
		return v, nil
	}
	return "", invalid("accompanyingRole", value)
}

// Label returns the zh-TW display label used on the report.
func (r AccompanyingRole) Label() string {
	switch r {
	case RoleLaborSafety:
		return "勞安"
	case RoleHR:
		return "人資"
	}
	return "其他"
}

type ShiftType string

const (
	ShiftNormal   ShiftType = "normal"
	ShiftRotating ShiftType = "shift"
)

func NewShiftType(value string) (ShiftType, error) {
	switch v := ShiftType(strings.TrimSpace(value)); v {
	case "":
		return ShiftNormal, nil
	case ShiftNormal, ShiftRotating:
		return v, nil
	}
	return "", invalid("shiftType", value)
}

// AnnualPlanPresence records in which form the annual health-service plan exists.
type AnnualPlanPresence string

const (
	AnnualPlanPaper      AnnualPlanPresence = "paper"
	AnnualPlanElectronic AnnualPlanPresence = "electronic"
	AnnualPlanNone       AnnualPlanPresence = "no"
)

func NewAnnualPlanPresence(value string) (AnnualPlanPresence, error) {
	switch v := AnnualPlanPresence(strings.TrimSpace(value)); v {
	case "":
		return AnnualPlanNone, nil
	case AnnualPlanPaper, AnnualPlanElectronic, AnnualPlanNone:
		return v, nil
	}
	return "", invalid("hasAnnualPlan", value)
}

// Presence is a yes/no answer. Some checklist items also allow not-applicable.
type Presence string

const (
	PresenceYes           Presence = "yes"
	PresenceNo            Presence = "no"
	PresenceNotApplicable Presence = "na"
)

func NewPresence(field, value string, allowNA bool) (Presence, error) {
	switch v := Presence(strings.TrimSpace(value)); v {
	case "":
		return PresenceNo, nil
	case PresenceYes, PresenceNo:
		return v, nil
	case PresenceNotApplicable:
		if allowNA {
			return v, nil
		}
	}
	return "", invalid(field, value)
}

// Answered reports whether the question has been answered at all.
func (p Presence) Answered() bool {
	return p != ""
}

type Priority string

const (
	PriorityLow  Priority = "low"
	PriorityMid  Priority = "mid"
	PriorityHigh Priority = "high"
)

func NewPriority(value string) (Priority, error) {
	switch v := Priority(strings.TrimSpace(value)); v {
	case "":
		return PriorityLow, nil
	case PriorityLow, PriorityMid, PriorityHigh:
		return v, nil
	}
	return "", invalid("priority", value)
}

// GradeState is how far the general checkup grading has progressed.
type GradeState string

const (
	GradeUnanswered GradeState = ""
	GradeNone       GradeState = "none"
	GradePartial    GradeState = "partial"
	GradeDone       GradeState = "done"
)

func NewGradeState(value string) (GradeState, error) {
	switch v := GradeState(strings.TrimSpace(value)); v {
	case GradeUnanswered, GradeNone, GradePartial, GradeDone:
		return v, nil
	}
	return "", invalid("generalGrade", value)
}

type PromotionBasis string

const (
	PromotionUnanswered    PromotionBasis = ""
	PromotionCheckup       PromotionBasis = "checkup"
	PromotionQuestionnaire PromotionBasis = "questionnaire"
)

func NewPromotionBasis(value string) (PromotionBasis, error) {
	switch v := PromotionBasis(strings.TrimSpace(value)); v {
	case PromotionUnanswered, PromotionCheckup, PromotionQuestionnaire:
		return v, nil
	}
	return "", invalid("promoBasis", value)
}

// Program names one of the four statutory workplace health programs.
type Program string

const (
	ProgramOverwork Program = "overwork"
	ProgramErgo     Program = "ergo"
	ProgramViolence Program = "violence"
	ProgramMaternal Program = "maternal"
)

// Programs lists the statutory programs in checklist order.
var Programs = []Program{ProgramOverwork, ProgramErgo, ProgramViolence, ProgramMaternal}

func NewProgram(value string) (Program, error) {
	v := Program(strings.TrimSpace(value))
	for _, p := range Programs {
		if p == v {
			return v, nil
		}
	}
	return "", invalid("program", value)
}

// ApprovalStatus is the stage-2 planning approval state.
type ApprovalStatus string

const (
	ApprovalDraft    ApprovalStatus = "DRAFT"
	ApprovalApproved ApprovalStatus = "APPROVED"
)

func NewApprovalStatus(value string) (ApprovalStatus, error) {
	switch v := ApprovalStatus(strings.ToUpper(strings.TrimSpace(value))); v {
	case "":
		return ApprovalDraft, nil
	case ApprovalDraft, ApprovalApproved:
		return v, nil
	}
	return "", invalid("approvalStatus", value)
}

func (s ApprovalStatus) Approved() bool {
	return s == ApprovalApproved
}

func invalid(field, value string) error {
	return fmt.Errorf("%w: %s=%q", ErrInvalidField, field, value)
}
