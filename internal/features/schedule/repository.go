package schedule

import (
	"context"
	"errors"
	"time"

	"tcpos-reports/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrScheduleNotFound = errors.New("scheduled run not found")

type ScheduleRepository interface {
	Create(ctx context.Context, run *ScheduledRun) error
	GetByID(ctx context.Context, id string) (*ScheduledRun, error)
	List(ctx context.Context, userID string) ([]ScheduledRun, error)
	Update(ctx context.Context, run *ScheduledRun) error
	Delete(ctx context.Context, id string) error
	GetActive(ctx context.Context) ([]ScheduledRun, error)
	UpdateLastRun(ctx context.Context, id string, lastRun time.Time, nextRun *time.Time, status RunStatus) error

	CreateLog(ctx context.Context, log *RunLog) error
	UpdateLog(ctx context.Context, log *RunLog) error
	GetLogs(ctx context.Context, scheduledRunID string, limit int) ([]RunLog, error)
}

type ScheduleRepositoryImpl struct {
	collection    *mongo.Collection
	logCollection *mongo.Collection
}

func NewScheduleRepository(mongodb *database.MongodbDB) ScheduleRepository {
	return &ScheduleRepositoryImpl{
		collection:    mongodb.DB.Collection(database.CollectionScheduledRuns),
		logCollection: mongodb.DB.Collection(database.CollectionRunLogs),
	}
}

func (r *ScheduleRepositoryImpl) Create(ctx context.Context, run *ScheduledRun) error {
	run.ID = primitive.NewObjectID()
	_, err := r.collection.InsertOne(ctx, run)
	return err
}

func (r *ScheduleRepositoryImpl) GetByID(ctx context.Context, id string) (*ScheduledRun, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrScheduleNotFound
	}

	var run ScheduledRun
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&run); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &run, nil
}

func (r *ScheduleRepositoryImpl) List(ctx context.Context, userID string) ([]ScheduledRun, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *ScheduleRepositoryImpl) GetActive(ctx context.Context) ([]ScheduledRun, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *ScheduleRepositoryImpl) find(ctx context.Context, query bson.M) ([]ScheduledRun, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	runs := []ScheduledRun{}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *ScheduleRepositoryImpl) Update(ctx context.Context, run *ScheduledRun) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": run.ID}, run)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepositoryImpl) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrScheduleNotFound
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *ScheduleRepositoryImpl) UpdateLastRun(ctx context.Context, id string, lastRun time.Time, nextRun *time.Time, status RunStatus) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrScheduleNotFound
	}
	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"last_run":    lastRun,
			"next_run":    nextRun,
			"last_status": status,
			"updated_at":  time.Now(),
		}},
	)
	return err
}

func (r *ScheduleRepositoryImpl) CreateLog(ctx context.Context, log *RunLog) error {
	log.ID = primitive.NewObjectID()
	_, err := r.logCollection.InsertOne(ctx, log)
	return err
}

func (r *ScheduleRepositoryImpl) UpdateLog(ctx context.Context, log *RunLog) error {
	_, err := r.logCollection.ReplaceOne(ctx, bson.M{"_id": log.ID}, log)
	return err
}

func (r *ScheduleRepositoryImpl) GetLogs(ctx context.Context, scheduledRunID string, limit int) ([]RunLog, error) {
	objectID, err := primitive.ObjectIDFromHex(scheduledRunID)
	if err != nil {
		return nil, ErrScheduleNotFound
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.logCollection.Find(ctx, bson.M{"scheduled_run_id": objectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []RunLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
