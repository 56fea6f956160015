package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"personaforge/internal/model"
)

type RunRepository interface {
	Create(ctx context.Context, run *model.ClassificationRun) error
	GetByID(ctx context.Context, id string) (*model.ClassificationRun, error)
	ListByDatasetID(ctx context.Context, datasetID string) ([]*model.ClassificationRun, error)
	Update(ctx context.Context, run *model.ClassificationRun) error
	UpdateStatus(ctx context.Context, id string, status model.RunStatus) error
	SetProfiles(ctx context.Context, id string, profiles []model.SegmentProfile) error
	Delete(ctx context.Context, id string) error
}

type runRepository struct {
	collection *mongo.Collection
}

func NewRunRepo(db *mongo.Database) RunRepository {
	return &runRepository{
		collection: db.Collection("classification_runs"),
	}
}

func (r *runRepository) Create(ctx context.Context, run *model.ClassificationRun) error {
	if run.ID == "" {
		run.ID = primitive.NewObjectID().Hex()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, run)
	return err
}

func (r *runRepository) GetByID(ctx context.Context, id string) (*model.ClassificationRun, error) {
	var run model.ClassificationRun
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) ListByDatasetID(ctx context.Context, datasetID string) ([]*model.ClassificationRun, error) {
	// Per-respondent results are bulky; listings only need the summary fields
	opts := options.Find().
		SetSort(bson.M{"createdAt": -1}).
		SetProjection(bson.M{"results": 0})
	cursor, err := r.collection.Find(ctx, bson.M{"datasetId": datasetID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var runs []*model.ClassificationRun
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *runRepository) Update(ctx context.Context, run *model.ClassificationRun) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": run.ID}, run)
	return err
}

func (r *runRepository) UpdateStatus(ctx context.Context, id string, status model.RunStatus) error {
	update := bson.M{"$set": bson.M{"status": status}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *runRepository) SetProfiles(ctx context.Context, id string, profiles []model.SegmentProfile) error {
	update := bson.M{"$set": bson.M{
		"profiles": profiles,
		"status":   model.RunStatusInterpreted,
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *runRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
