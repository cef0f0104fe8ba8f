package mongo

import (
	"time"

	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
)

// ProjectDocument is the stored shape of one project under companies/{c}/projects/{p}.
type ProjectDocument struct {
	ID         string             `bson:"_id"`
	CompanyID  string             `bson:"companyId"`
	ProjectID  string             `bson:"projectId"`
	CreatedAt  *time.Time         `bson:"createdAt,omitempty"`
	Meta       MetaDocument       `bson:"meta"`
	Assessment AssessmentDocument `bson:"stage1_assessment"`
	Planning   PlanningDocument   `bson:"stage2_planning"`
}

// MetaDocument carries the project lifecycle status.
type MetaDocument struct {
	Status    string     `bson:"status"`
	UpdatedAt *time.Time `bson:"updatedAt,omitempty"`
}

// AssessmentDocument is the captured checklist plus its completion timestamp.
type AssessmentDocument struct {
	domain.Record `bson:",inline"`
	CompletedAt   string `bson:"completedAt,omitempty"`
}

// PlanningDocument is the stage-2 block with the derived tasks.
type PlanningDocument struct {
	ApprovalStatus domain.ApprovalStatus `bson:"approvalStatus"`
	Tasks          []domain.Task         `bson:"tasks"`
}

// snapshotDocument is what a save writes; server-managed fields are left to the update operators.
type snapshotDocument struct {
	Meta struct {
		Status string `bson:"status"`
	} `bson:"meta"`
	Assessment AssessmentDocument `bson:"stage1_assessment"`
	Planning   PlanningDocument   `bson:"stage2_planning"`
}
