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

type DatasetRepository interface {
	Create(ctx context.Context, dataset *model.Dataset) error
	GetByID(ctx context.Context, id string) (*model.Dataset, error)
	List(ctx context.Context) ([]*model.Dataset, error)
	Update(ctx context.Context, dataset *model.Dataset) error
	Delete(ctx context.Context, id string) error
}

type datasetRepository struct {
	collection *mongo.Collection
}

func NewDatasetRepo(db *mongo.Database) DatasetRepository {
	return &datasetRepository{
		collection: db.Collection("datasets"),
	}
}

func (r *datasetRepository) Create(ctx context.Context, dataset *model.Dataset) error {
	if dataset.ID == "" {
		dataset.ID = primitive.NewObjectID().Hex()
	}
	if dataset.CreatedAt.IsZero() {
		dataset.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, dataset)
	return err
}

func (r *datasetRepository) GetByID(ctx context.Context, id string) (*model.Dataset, error) {
	var dataset model.Dataset
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&dataset)
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (r *datasetRepository) List(ctx context.Context) ([]*model.Dataset, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var datasets []*model.Dataset
	if err = cursor.All(ctx, &datasets); err != nil {
		return nil, err
	}
	return datasets, nil
}

func (r *datasetRepository) Update(ctx context.Context, dataset *model.Dataset) error {
	update := bson.M{"$set": dataset}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": dataset.ID}, update)
	return err
}

func (r *datasetRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
