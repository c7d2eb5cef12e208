package database

import (
	"context"
	"errors"
	"fmt"

	"car-rental-catalog/internal/metrics"
	"car-rental-catalog/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Mongo is the MongoDB backend. Documents use a UUID string as _id.
type Mongo struct {
	client     *mongo.Client
	cars       *mongo.Collection
	brands     *mongo.Collection
	categories *mongo.Collection
}

// ConnectMongo dials MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri, dbName string, log *zap.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("database: mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("database: mongo ping: %w", err)
	}
	log.Info("mongo connected", zap.String("database", dbName))

	m := NewMongo(client.Database(dbName))
	m.client = client
	return m, nil
}

// NewMongo wraps an already-connected database.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		cars:       db.Collection(carsCollection),
		brands:     db.Collection(brandsCollection),
		categories: db.Collection(categoriesCollection),
	}
}

// EnsureIndexes creates the lookup indexes used by the storefront filters.
// CreateMany is idempotent for identical index specs.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, schemaTimeout)
	defer cancel()

	plan := map[*mongo.Collection][]string{
		m.cars:       {"brand", "category", "fuel", "isFeatured", "createdAt"},
		m.brands:     {"slug", "name", "featured"},
		m.categories: {"slug", "type", "featured"},
	}
	for coll, fields := range plan {
		idx := make([]mongo.IndexModel, 0, len(fields))
		for _, f := range fields {
			idx = append(idx, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
		}
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("database: ensure indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := withRead(ctx)
	defer cancel()
	return m.cars.Database().Client().Ping(ctx, nil)
}

// Close disconnects the client when this Mongo owns it.
func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

// ── Cars ───────────────────────────────────────────────────────────────────

func (m *Mongo) GetCar(ctx context.Context, id string) (models.Car, error) {
	return mongoGet[models.Car](ctx, m.cars, "get_car", id)
}

// ListCars returns matching cars in insertion order.
func (m *Mongo) ListCars(ctx context.Context, q models.CarQuery) ([]models.Car, error) {
	return mongoList[models.Car](ctx, m.cars, "list_cars", q.Equals(), bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}, q.Limit)
}

func (m *Mongo) CountCars(ctx context.Context, q models.CarQuery) (int64, error) {
	return mongoCount(ctx, m.cars, "count_cars", q.Equals())
}

// InsertCar assigns the id and timestamps, then stores c.
func (m *Mongo) InsertCar(ctx context.Context, c *models.Car) error {
	c.ID = newID()
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	return mongoInsert(ctx, m.cars, "insert_car", c)
}

func (m *Mongo) UpdateCar(ctx context.Context, id string, set map[string]any) (models.Car, error) {
	return mongoUpdate[models.Car](ctx, m.cars, "update_car", id, set)
}

func (m *Mongo) DeleteCar(ctx context.Context, id string) error {
	return mongoDelete(ctx, m.cars, "delete_car", id)
}

// ── Brands ─────────────────────────────────────────────────────────────────

func (m *Mongo) GetBrand(ctx context.Context, id string) (models.Brand, error) {
	return mongoGet[models.Brand](ctx, m.brands, "get_brand", id)
}

// ListBrands returns matching brands ordered by name.
func (m *Mongo) ListBrands(ctx context.Context, q models.BrandQuery) ([]models.Brand, error) {
	return mongoList[models.Brand](ctx, m.brands, "list_brands", q.Equals(), bson.D{{Key: "name", Value: 1}, {Key: "createdAt", Value: 1}}, q.Limit)
}

func (m *Mongo) CountBrands(ctx context.Context, q models.BrandQuery) (int64, error) {
	return mongoCount(ctx, m.brands, "count_brands", q.Equals())
}

func (m *Mongo) InsertBrand(ctx context.Context, b *models.Brand) error {
	b.ID = newID()
	b.CreatedAt = now()
	b.UpdatedAt = b.CreatedAt
	return mongoInsert(ctx, m.brands, "insert_brand", b)
}

func (m *Mongo) UpdateBrand(ctx context.Context, id string, set map[string]any) (models.Brand, error) {
	return mongoUpdate[models.Brand](ctx, m.brands, "update_brand", id, set)
}

func (m *Mongo) DeleteBrand(ctx context.Context, id string) error {
	return mongoDelete(ctx, m.brands, "delete_brand", id)
}

// ── Categories ─────────────────────────────────────────────────────────────

func (m *Mongo) GetCategory(ctx context.Context, id string) (models.Category, error) {
	return mongoGet[models.Category](ctx, m.categories, "get_category", id)
}

// ListCategories returns matching categories ordered by name.
func (m *Mongo) ListCategories(ctx context.Context, q models.CategoryQuery) ([]models.Category, error) {
	return mongoList[models.Category](ctx, m.categories, "list_categories", q.Equals(), bson.D{{Key: "name", Value: 1}, {Key: "createdAt", Value: 1}}, q.Limit)
}

func (m *Mongo) CountCategories(ctx context.Context, q models.CategoryQuery) (int64, error) {
	return mongoCount(ctx, m.categories, "count_categories", q.Equals())
}

func (m *Mongo) InsertCategory(ctx context.Context, c *models.Category) error {
	c.ID = newID()
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	return mongoInsert(ctx, m.categories, "insert_category", c)
}

func (m *Mongo) UpdateCategory(ctx context.Context, id string, set map[string]any) (models.Category, error) {
	return mongoUpdate[models.Category](ctx, m.categories, "update_category", id, set)
}

func (m *Mongo) DeleteCategory(ctx context.Context, id string) error {
	return mongoDelete(ctx, m.categories, "delete_category", id)
}

// ------------------------------------------------------------------------
// generic collection helpers

func mongoGet[T any](ctx context.Context, c *mongo.Collection, op, id string) (T, error) {
	ctx, cancel := withRead(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	var doc T
	err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	return doc, err
}

func mongoList[T any](ctx context.Context, c *mongo.Collection, op string, eq map[string]any, sort bson.D, limit int) ([]T, error) {
	ctx, cancel := withRead(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := c.Find(ctx, bson.M(eq), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func mongoCount(ctx context.Context, c *mongo.Collection, op string, eq map[string]any) (int64, error) {
	ctx, cancel := withRead(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	return c.CountDocuments(ctx, bson.M(eq))
}

func mongoInsert(ctx context.Context, c *mongo.Collection, op string, doc any) error {
	ctx, cancel := withWrite(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	_, err := c.InsertOne(ctx, doc)
	return err
}

// mongoUpdate applies a $set of the given fields plus updatedAt and returns
// the merged document.
func mongoUpdate[T any](ctx context.Context, c *mongo.Collection, op, id string, set map[string]any) (T, error) {
	ctx, cancel := withWrite(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	fields := bson.M{}
	for k, v := range set {
		if k == "id" || k == "_id" || k == "createdAt" {
			continue
		}
		fields[k] = v
	}
	fields["updatedAt"] = now()

	var doc T
	err := c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	return doc, err
}

func mongoDelete(ctx context.Context, c *mongo.Collection, op, id string) error {
	ctx, cancel := withWrite(ctx)
	defer cancel()
	defer metrics.ObserveStore(op, now())

	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
