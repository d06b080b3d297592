package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/scanpick-service/internal/domain"
)

// AliasRepository reads the barcode alias table. Aliases are written by the
// receiving flow in another service; this side only consumes them.
type AliasRepository struct {
	collection *mongo.Collection
}

// NewAliasRepository creates a repository over the barcode_aliases collection
func NewAliasRepository(db *mongo.Database) *AliasRepository {
	collection := db.Collection("barcode_aliases")
	repo := &AliasRepository{collection: collection}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *AliasRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "externalBarcode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sku", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// LookupAll returns every alias record
func (r *AliasRepository) LookupAll(ctx context.Context) ([]domain.BarcodeAlias, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query barcode aliases: %w", err)
	}
	defer cursor.Close(ctx)

	var aliases []domain.BarcodeAlias
	if err := cursor.All(ctx, &aliases); err != nil {
		return nil, fmt.Errorf("failed to decode barcode aliases: %w", err)
	}
	return aliases, nil
}
