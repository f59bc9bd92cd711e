package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/repository"
)

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(ordersCollection)}
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	_, err := r.coll.InsertOne(ctx, order)
	return translate(err)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *OrderRepository) ListVisible(ctx context.Context, userID string) ([]entity.Order, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"paymentType": entity.PaymentCOD},
			bson.M{"isPaid": true},
		},
	}
	if userID != "" {
		filter["userId"] = userID
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	orders := make([]entity.Order, 0)
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) UpdateState(ctx context.Context, order *entity.Order, expected entity.OrderStatus) error {
	set := bson.M{"status": order.Status}
	if order.IsPaid {
		set["isPaid"] = true
	}
	update := bson.M{"$set": set}
	if order.CancelledBy != "" {
		set["cancelledBy"] = order.CancelledBy
	} else {
		update["$unset"] = bson.M{"cancelledBy": ""}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": order.ID, "status": expected}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missingOrStale(ctx, order.ID)
	}
	return nil
}

func (r *OrderRepository) MarkPaid(ctx context.Context, id string) error {
	filter := bson.M{
		"_id":         id,
		"isPaid":      false,
		"paymentType": entity.PaymentCardHosted,
		"status":      bson.M{"$ne": entity.StatusCancelled},
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"isPaid": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) missingOrStale(ctx context.Context, id string) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrStale
}
