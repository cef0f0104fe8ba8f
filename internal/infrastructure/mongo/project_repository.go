package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anzecare/anzeguard/api/internal/assessment/application"
	"github.com/anzecare/anzeguard/api/internal/assessment/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ProjectRepository stores project documents keyed by their hierarchical path.
type ProjectRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewProjectRepository binds the repository to a collection.
func NewProjectRepository(db *mongo.Database, collection string) *ProjectRepository {
	return &ProjectRepository{collection: db.Collection(collection), now: time.Now}
}

// EnsureIndexes creates the lookup index on the company/project pair.
func (r *ProjectRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "companyId", Value: 1}, {Key: "projectId", Value: 1}},
		Options: options.Index().SetName("company_project"),
	})
	return err
}

// Merge upserts the snapshot. Only the paths carried by the snapshot are written.
func (r *ProjectRepository) Merge(ctx context.Context, key application.ProjectKey, snapshot application.ProjectSnapshot) error {
	update, err := buildMergeUpdate(key, snapshot, r.now().UTC())
	if err != nil {
		return err
	}
	_, err = r.collection.UpdateByID(ctx, key.String(), update, options.Update().SetUpsert(true))
	return err
}

// Find loads a project, returning application.ErrProjectNotFound when absent.
func (r *ProjectRepository) Find(ctx context.Context, key application.ProjectKey) (*application.Project, error) {
	var doc ProjectDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, application.ErrProjectNotFound
		}
		return nil, err
	}
	project := mapProject(key, doc)
	return &project, nil
}

// UpdateApproval sets the stage-2 approval status of an existing project.
func (r *ProjectRepository) UpdateApproval(ctx context.Context, key application.ProjectKey, status domain.ApprovalStatus) error {
	res, err := r.collection.UpdateByID(ctx, key.String(), bson.M{
		"$set":         bson.M{"stage2_planning.approvalStatus": status},
		"$currentDate": bson.M{"meta.updatedAt": true},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return application.ErrProjectNotFound
	}
	return nil
}

// Ping checks connectivity to the primary.
func (r *ProjectRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}

// buildMergeUpdate turns a snapshot into an upsert update document. Nested fields become
// dotted $set paths so sibling fields already stored survive; arrays are replaced whole.
func buildMergeUpdate(key application.ProjectKey, snapshot application.ProjectSnapshot, now time.Time) (bson.M, error) {
	var doc snapshotDocument
	doc.Meta.Status = snapshot.Status
	doc.Assessment = AssessmentDocument{Record: snapshot.Assessment, CompletedAt: snapshot.CompletedAt}
	doc.Planning = PlanningDocument{ApprovalStatus: snapshot.Planning.ApprovalStatus, Tasks: snapshot.Planning.Tasks}
	if doc.Planning.Tasks == nil {
		doc.Planning.Tasks = []domain.Task{}
	}
	if doc.Assessment.Admin.SDSList == nil {
		doc.Assessment.Admin.SDSList = []string{}
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	var tree bson.D
	if err := bson.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return bson.M{
		"$set":         flattenPaths("", tree, bson.D{}),
		"$currentDate": bson.M{"meta.updatedAt": true},
		"$setOnInsert": bson.M{
			"companyId": key.CompanyID,
			"projectId": key.ProjectID,
			"createdAt": now,
		},
	}, nil
}

func flattenPaths(prefix string, doc bson.D, out bson.D) bson.D {
	for _, elem := range doc {
		path := elem.Key
		if prefix != "" {
			path = prefix + "." + elem.Key
		}
		if sub, ok := elem.Value.(bson.D); ok && len(sub) > 0 {
			out = flattenPaths(path, sub, out)
			continue
		}
		out = append(out, bson.E{Key: path, Value: elem.Value})
	}
	return out
}

func mapProject(key application.ProjectKey, doc ProjectDocument) application.Project {
	record := doc.Assessment.Record
	if record.Admin.SDSList == nil {
		record.Admin.SDSList = []string{}
	}
	approval := doc.Planning.ApprovalStatus
	if approval == "" {
		approval = domain.ApprovalDraft
	}
	tasks := doc.Planning.Tasks
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return application.Project{
		Key:         key,
		Status:      doc.Meta.Status,
		UpdatedAt:   doc.Meta.UpdatedAt,
		Assessment:  record,
		CompletedAt: doc.Assessment.CompletedAt,
		Planning: application.Planning{
			ApprovalStatus: approval,
			Tasks:          tasks,
		},
	}
}
