package history

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/serpent-os/ent/pkg/errors"
)

// CollectionName is the collection runs are stored in.
const CollectionName = "runs"

const connectTimeout = 10 * time.Second

// MongoStore stores runs in MongoDB.
type MongoStore struct {
	client *mongo.Client
	runs   *mongo.Collection
}

// NewMongoStore connects to uri and ensures the started_at index exists.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnreachable, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeUnreachable, err, "ping mongodb")
	}

	runs := client.Database(database).Collection(CollectionName)
	_, err = runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "started_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create history index")
	}
	return &MongoStore{client: client, runs: runs}, nil
}

func (s *MongoStore) Save(ctx context.Context, run Run) (Run, error) {
	run = withID(run)
	if _, err := s.runs.InsertOne(ctx, run); err != nil {
		return Run{}, errors.Wrap(errors.ErrCodeUnreachable, err, "save run %s", run.ID)
	}
	return run, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (Run, error) {
	if err := ValidateID(id); err != nil {
		return Run{}, err
	}
	var run Run
	err := s.runs.FindOne(ctx, bson.M{"_id": id}).Decode(&run)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return Run{}, errors.New(errors.ErrCodeNotFound, "run %s not found", id)
	}
	if err != nil {
		return Run{}, errors.Wrap(errors.ErrCodeUnreachable, err, "load run %s", id)
	}
	return run, nil
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"report": 0})

	cur, err := s.runs.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnreachable, err, "list runs")
	}
	runs := []Run{}
	if err := cur.All(ctx, &runs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnreachable, err, "decode runs")
	}
	return runs, nil
}

// Close disconnects from the server.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
