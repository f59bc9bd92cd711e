package entity

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	StatusOrderPlaced    OrderStatus = "Order Placed"
	StatusPacking        OrderStatus = "Packing"
	StatusShipped        OrderStatus = "Shipped"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusOrderPlaced,
	StatusPacking,
	StatusShipped,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

type CancelledBy string

const (
	CancelledByUser  CancelledBy = "User"
	CancelledByAdmin CancelledBy = "Admin"
)

type PaymentMethod string

const (
	PaymentCOD        PaymentMethod = "COD"
	PaymentCardHosted PaymentMethod = "CardHosted"
)

// SurchargePercent is the flat tax charge added at checkout.
const SurchargePercent = 2

var (
	ErrNotCancellable  = errors.New("order can no longer be cancelled")
	ErrCancelledByUser = errors.New("order was cancelled by the user")
	ErrUnknownStatus   = errors.New("unknown order status")
)

type Order struct {
	ID          string        `json:"_id" bson:"_id"`
	UserID      string        `json:"userId" bson:"userId"`
	Items       []OrderItem   `json:"items" bson:"items"`
	Address     Address       `json:"address" bson:"address"`
	Amount      int64         `json:"amount" bson:"amount"`
	PaymentType PaymentMethod `json:"paymentType" bson:"paymentType"`
	IsPaid      bool          `json:"isPaid" bson:"isPaid"`
	Status      OrderStatus   `json:"status" bson:"status"`
	CancelledBy CancelledBy   `json:"cancelledBy,omitempty" bson:"cancelledBy,omitempty"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
}

type OrderItem struct {
	ProductID string `json:"productId" bson:"productId"`
	Quantity  int    `json:"quantity" bson:"quantity"`

	// Product is filled in on reads for display and never persisted.
	Product *Product `json:"product,omitempty" bson:"-"`
}

type Address struct {
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
	Email     string `json:"email,omitempty" bson:"email,omitempty"`
	Street    string `json:"street" bson:"street"`
	City      string `json:"city" bson:"city"`
	State     string `json:"state" bson:"state"`
	Zipcode   string `json:"zipcode" bson:"zipcode"`
	Country   string `json:"country" bson:"country"`
	Phone     string `json:"phone" bson:"phone"`
}

// IsZero reports whether no delivery address was supplied.
func (a Address) IsZero() bool {
	return a == Address{}
}

// ParseOrderStatus maps a wire label onto a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, status := range OrderStatuses {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

// OrderAmount returns the surcharge and the charged total for a subtotal.
func OrderAmount(subtotal int64) (surcharge, total int64) {
	surcharge = subtotal * SurchargePercent / 100
	return surcharge, subtotal + surcharge
}

// Visible reports whether the order shows up in order listings: cash orders
// always do, card orders only once paid.
func (o *Order) Visible() bool {
	return o.PaymentType == PaymentCOD || o.IsPaid
}

// CanBuyerCancel reports whether the order has not shipped yet.
func (o *Order) CanBuyerCancel() bool {
	switch o.Status {
	case StatusShipped, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return false
	}
	return true
}

// CancelByUser moves the order into Cancelled on behalf of its buyer.
func (o *Order) CancelByUser() error {
	if !o.CanBuyerCancel() {
		return ErrNotCancellable
	}
	o.Status = StatusCancelled
	o.CancelledBy = CancelledByUser
	return nil
}

// SetStatusByAdmin applies a seller status update. A buyer cancellation is
// final; anything else the seller did can be changed again.
func (o *Order) SetStatusByAdmin(status OrderStatus) error {
	if _, ok := ParseOrderStatus(string(status)); !ok {
		return ErrUnknownStatus
	}
	if o.Status == StatusCancelled && o.CancelledBy == CancelledByUser {
		return ErrCancelledByUser
	}

	o.Status = status
	if status == StatusCancelled {
		o.CancelledBy = CancelledByAdmin
	} else {
		o.CancelledBy = ""
	}

	// cash is collected on delivery
	if status == StatusDelivered && o.PaymentType == PaymentCOD {
		o.IsPaid = true
	}
	return nil
}

/*
MySQL table (one per shard):

CREATE TABLE orders (
	id VARCHAR(36) PRIMARY KEY,
	user_id VARCHAR(36) NOT NULL,
	items JSON NOT NULL,
	address JSON NOT NULL,
	amount BIGINT NOT NULL,
	payment_type VARCHAR(16) NOT NULL,
	is_paid BOOLEAN NOT NULL DEFAULT FALSE,
	status VARCHAR(32) NOT NULL,
	cancelled_by VARCHAR(8) NULL,
	created_at DATETIME(3) NOT NULL
);
*/
