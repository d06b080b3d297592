package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/scanpick-service/internal/domain"
)

// orderDocument is the slice of the order document this service reads
type orderDocument struct {
	OrderID string             `bson:"orderId"`
	Status  string             `bson:"status"`
	Lines   []domain.OrderLine `bson:"lines"`
}

// OrderRepository is the order-store collaborator. Orders are owned by the
// order service; this side reads lines and writes pick progress.
type OrderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository creates a repository over the orders collection
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{collection: db.Collection("orders")}
}

// GetOrderLines loads the order's lines in stored order
func (r *OrderRepository) GetOrderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	var doc orderDocument
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	return doc.Lines, nil
}

// CommitPick records the picked quantity on one line. Writing the full
// quantity again on a retry is a no-op, which is what makes completion
// retryable after a partial failure.
func (r *OrderRepository) CommitPick(ctx context.Context, orderID string, lineIndex, quantity int) error {
	filter := bson.M{"orderId": orderID}
	update := bson.M{
		"$set": bson.M{
			fmt.Sprintf("lines.%d.pickedQty", lineIndex): quantity,
			fmt.Sprintf("lines.%d.pickedAt", lineIndex):  time.Now().UTC(),
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to commit pick for order %s line %d: %w", orderID, lineIndex, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}
	return nil
}

// AdvanceOrderStatus moves the order to the given status
func (r *OrderRepository) AdvanceOrderStatus(ctx context.Context, orderID, status string) error {
	filter := bson.M{"orderId": orderID}
	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to advance order %s to %s: %w", orderID, status, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}
	return nil
}
