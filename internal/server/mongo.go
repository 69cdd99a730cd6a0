package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/carepath/pkg/document"
)

const (
	collAlgorithms = "algorithms"
	collGraphs     = "graphs"
	collNodes      = "nodes"
)

// MongoRepository is a Repository backed by MongoDB.
type MongoRepository struct {
	client     *mongo.Client
	algorithms *mongo.Collection
	graphs     *mongo.Collection
	nodes      *mongo.Collection
}

// NewMongoRepository connects to uri and uses the named database. The
// connection is verified with a ping.
func NewMongoRepository(ctx context.Context, uri, database string) (*MongoRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	r := &MongoRepository{
		client:     client,
		algorithms: db.Collection(collAlgorithms),
		graphs:     db.Collection(collGraphs),
		nodes:      db.Collection(collNodes),
	}
	if _, err := r.nodes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "algorithm_id", Value: 1}},
	}); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create node index: %w", err)
	}
	return r, nil
}

func (r *MongoRepository) Algorithm(ctx context.Context, id string) (document.Algorithm, error) {
	var a document.Algorithm
	if err := r.algorithms.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return document.Algorithm{}, notFound(err)
	}
	return a, nil
}

func (r *MongoRepository) CreateAlgorithm(ctx context.Context, a document.Algorithm, g document.Document) error {
	if _, err := r.algorithms.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert algorithm: %w", err)
	}
	if _, err := r.graphs.InsertOne(ctx, g); err != nil {
		return fmt.Errorf("insert graph: %w", err)
	}
	return nil
}

func (r *MongoRepository) Graph(ctx context.Context, id string) (document.Document, error) {
	var g document.Document
	if err := r.graphs.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return document.Document{}, notFound(err)
	}
	return g, nil
}

func (r *MongoRepository) SaveGraph(ctx context.Context, u document.Update, at time.Time) error {
	var g document.Document
	err := r.graphs.FindOneAndUpdate(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"graph": u.Graph, "updated_at": at}},
	).Decode(&g)
	if err != nil {
		return notFound(err)
	}
	_, err = r.algorithms.UpdateOne(ctx,
		bson.M{"_id": g.AlgorithmID},
		bson.M{"$set": bson.M{"public": u.Public, "updated_at": at}},
	)
	if err != nil {
		return fmt.Errorf("update algorithm %s: %w", g.AlgorithmID, err)
	}
	return nil
}

func (r *MongoRepository) ReplaceNodes(ctx context.Context, algorithmID string, nodes []document.NodeLabel) error {
	if _, err := r.nodes.DeleteMany(ctx, bson.M{"algorithm_id": algorithmID}); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}
	if len(nodes) == 0 {
		return nil
	}
	docs := make([]any, len(nodes))
	for i, n := range nodes {
		docs[i] = n
	}
	if _, err := r.nodes.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert nodes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Nodes(ctx context.Context, algorithmID string) ([]document.NodeLabel, error) {
	cur, err := r.nodes.Find(ctx, bson.M{"algorithm_id": algorithmID})
	if err != nil {
		return nil, fmt.Errorf("find nodes: %w", err)
	}
	var out []document.NodeLabel
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode nodes: %w", err)
	}
	return out, nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
