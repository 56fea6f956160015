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

type RespondentRepository interface {
	CreateMany(ctx context.Context, respondents []*model.Respondent) error
	GetByDatasetID(ctx context.Context, datasetID string) ([]*model.Respondent, error)
	CountByDatasetID(ctx context.Context, datasetID string) (int64, error)
	DeleteByDatasetID(ctx context.Context, datasetID string) error
}

type respondentRepository struct {
	collection *mongo.Collection
}

func NewRespondentRepo(db *mongo.Database) RespondentRepository {
	return &respondentRepository{
		collection: db.Collection("respondents"),
	}
}

func (r *respondentRepository) CreateMany(ctx context.Context, respondents []*model.Respondent) error {
	if len(respondents) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, len(respondents))
	for i, resp := range respondents {
		if resp.ID == "" {
			resp.ID = primitive.NewObjectID().Hex()
		}
		if resp.CreatedAt.IsZero() {
			resp.CreatedAt = now
		}
		docs[i] = resp
	}

	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

func (r *respondentRepository) GetByDatasetID(ctx context.Context, datasetID string) ([]*model.Respondent, error) {
	// Row order is the original grid order; results must be stable across reads
	opts := options.Find().SetSort(bson.M{"row": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"datasetId": datasetID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var respondents []*model.Respondent
	if err = cursor.All(ctx, &respondents); err != nil {
		return nil, err
	}
	return respondents, nil
}

func (r *respondentRepository) CountByDatasetID(ctx context.Context, datasetID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"datasetId": datasetID})
}

func (r *respondentRepository) DeleteByDatasetID(ctx context.Context, datasetID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"datasetId": datasetID})
	return err
}
