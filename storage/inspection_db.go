package storage

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"trail-inspect/model"
)

type InspectionDB interface {
	Connect(ctx context.Context, uri, databaseName string) error
	Close(ctx context.Context) error
	SaveInspection(ctx context.Context, ins model.Inspection) (string, error)
	GetInspection(ctx context.Context, id string) (*model.Inspection, error)
	ListInspections(ctx context.Context, trailID string, limit int64) ([]model.Inspection, error)
	LatestByTrail(ctx context.Context) ([]model.TrailStatus, error)
	SearchInspectionsByLocation(ctx context.Context, lon, lat float64, dist int) ([]model.Inspection, error)
	ListTrails(ctx context.Context) ([]model.Trail, error)
}

type MongoInspectionDB struct {
	client      *mongo.Client
	inspections *mongo.Collection
	trails      *mongo.Collection
	log         *zap.Logger
}

func NewMongoInspectionDB(log *zap.Logger) *MongoInspectionDB {
	if log == nil {
		log = zap.NewNop()
	}
	return &MongoInspectionDB{log: log}
}

func (db *MongoInspectionDB) Connect(ctx context.Context, uri, databaseName string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return err
	}
	db.client = client
	db.inspections = client.Database(databaseName).Collection("inspections")
	db.trails = client.Database(databaseName).Collection("trails")

	// Geo queries on inspection locations need a 2dsphere index.
	_, err = db.inspections.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "lonlat", Value: "2dsphere"}},
	})
	if err != nil {
		return err
	}

	db.log.Info("connected to MongoDB", zap.String("database", databaseName))
	return nil
}

func (db *MongoInspectionDB) Close(ctx context.Context) error {
	if db.client == nil {
		return nil
	}
	if err := db.client.Disconnect(ctx); err != nil {
		return err
	}
	db.log.Info("disconnected from MongoDB")
	return nil
}

func (db *MongoInspectionDB) SaveInspection(ctx context.Context, ins model.Inspection) (string, error) {
	res, err := db.inspections.InsertOne(ctx, ins)
	if err != nil {
		return "", err
	}
	id := ""
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		id = oid.Hex()
	}
	db.log.Info("inspection saved",
		zap.String("id", id),
		zap.String("trail_id", ins.TrailID),
		zap.Int("photos", len(ins.Photos)))
	return id, nil
}

func (db *MongoInspectionDB) GetInspection(ctx context.Context, id string) (*model.Inspection, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var ins model.Inspection
	err = db.inspections.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&ins)
	if err != nil {
		return nil, err
	}
	return &ins, nil
}

func (db *MongoInspectionDB) ListInspections(ctx context.Context, trailID string, limit int64) ([]model.Inspection, error) {
	filter := bson.D{}
	if trailID != "" {
		filter = bson.D{{Key: "trail_id", Value: trailID}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cur, err := db.inspections.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []model.Inspection
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestByTrail aggregates the most recent report per trail for the public
// status view.
func (db *MongoInspectionDB) LatestByTrail(ctx context.Context) ([]model.TrailStatus, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$trail_id"},
			{Key: "condition", Value: bson.D{{Key: "$first", Value: "$condition"}}},
			{Key: "inspector", Value: bson.D{{Key: "$first", Value: "$inspector"}}},
			{Key: "inspected_at", Value: bson.D{{Key: "$first", Value: "$created_at"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := db.inspections.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var out []model.TrailStatus
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (db *MongoInspectionDB) SearchInspectionsByLocation(ctx context.Context, lon, lat float64, dist int) ([]model.Inspection, error) {
	filter := bson.D{
		{Key: "lonlat", Value: bson.D{
			{Key: "$near", Value: bson.D{
				{Key: "$geometry", Value: model.NewGeoPoint(lon, lat)},
				{Key: "$maxDistance", Value: dist},
			}},
		}},
	}
	cur, err := db.inspections.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []model.Inspection
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (db *MongoInspectionDB) ListTrails(ctx context.Context) ([]model.Trail, error) {
	cur, err := db.trails.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "trail_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []model.Trail
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
