package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/scanpick-service/internal/domain"
)

type inventoryDocument struct {
	SKU      string `bson:"sku"`
	Quantity int    `bson:"quantity"`
}

// InventoryRepository is the inventory-store collaborator. Deductions clamp
// at zero so stock never goes negative, even when it was already short.
type InventoryRepository struct {
	inventory *mongo.Collection
	audit     *mongo.Collection
}

// NewInventoryRepository creates a repository over the inventory and
// inventory_audit collections
func NewInventoryRepository(db *mongo.Database) *InventoryRepository {
	repo := &InventoryRepository{
		inventory: db.Collection("inventory"),
		audit:     db.Collection("inventory_audit"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *InventoryRepository) ensureIndexes(ctx context.Context) {
	r.inventory.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sku", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	r.audit.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sku", Value: 1}, {Key: "recordedAt", Value: -1}}},
		{Keys: bson.D{{Key: "orderId", Value: 1}}},
	})
}

// Deduct atomically subtracts quantity from the SKU's stock, clamped at
// zero. The prior quantity comes back from the same findAndModify so the
// caller can audit the exact movement.
func (r *InventoryRepository) Deduct(ctx context.Context, sku string, quantity int) (domain.DeductionResult, error) {
	filter := bson.M{"sku": sku}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"quantity": bson.M{"$max": bson.A{0, bson.M{"$subtract": bson.A{"$quantity", quantity}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before inventoryDocument
	err := r.inventory.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if err == mongo.ErrNoDocuments {
		return domain.DeductionResult{}, fmt.Errorf("inventory record for %s not found", sku)
	}
	if err != nil {
		return domain.DeductionResult{}, fmt.Errorf("failed to deduct inventory for %s: %w", sku, err)
	}

	newQuantity := before.Quantity - quantity
	if newQuantity < 0 {
		newQuantity = 0
	}
	return domain.DeductionResult{
		SKU:           sku,
		PriorQuantity: before.Quantity,
		NewQuantity:   newQuantity,
	}, nil
}

// Append writes one audit entry
func (r *InventoryRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	if _, err := r.audit.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry for %s: %w", entry.SKU, err)
	}
	return nil
}
