package checklist

import (
	"time"

	"github.com/anzecare/anzeguard/api/internal/assessment/application"
	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
	"github.com/anzecare/anzeguard/api/internal/report/xlsx"
)

type loginRequest struct {
	Passphrase string `json:"passphrase"`
}

type taskListResponse struct {
	Items []domain.Task `json:"items"`
}

type approvalRequest struct {
	ApprovalStatus string `json:"approvalStatus"`
}

type approvalResponse struct {
	ApprovalStatus domain.ApprovalStatus `json:"approvalStatus"`
}

type planExportRequest struct {
	Record         domain.Record `json:"record"`
	Goals          xlsx.Goals    `json:"goals"`
	ApprovalStatus string        `json:"approvalStatus"`
}

type planningResponse struct {
	ApprovalStatus domain.ApprovalStatus `json:"approvalStatus"`
	Tasks          []domain.Task         `json:"tasks"`
}

type assessmentResponse struct {
	domain.Record
	CompletedAt string `json:"completedAt,omitempty"`
}

type projectResponse struct {
	CompanyID  string             `json:"companyId"`
	ProjectID  string             `json:"projectId"`
	Status     string             `json:"status,omitempty"`
	UpdatedAt  *time.Time         `json:"updatedAt,omitempty"`
	Assessment assessmentResponse `json:"stage1_assessment"`
	Planning   planningResponse   `json:"stage2_planning"`
}

func newProjectResponse(p *application.Project) projectResponse {
	tasks := p.Planning.Tasks
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return projectResponse{
		CompanyID:  p.Key.CompanyID,
		ProjectID:  p.Key.ProjectID,
		Status:     p.Status,
		UpdatedAt:  p.UpdatedAt,
		Assessment: assessmentResponse{Record: p.Assessment, CompletedAt: p.CompletedAt},
		Planning:   planningResponse{ApprovalStatus: p.Planning.ApprovalStatus, Tasks: tasks},
	}
}
