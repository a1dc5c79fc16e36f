package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPacked    OrderStatus = "Packed"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCanceled  OrderStatus = "Canceled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPacked, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether an order may move from one status to
// another. Fulfillment advances one step at a time; any non-terminal
// order may be canceled.
func CanTransitionTo(from, to OrderStatus) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusPacked || to == OrderStatusCanceled
	case OrderStatusPacked:
		return to == OrderStatusShipped || to == OrderStatusCanceled
	case OrderStatusShipped:
		return to == OrderStatusDelivered || to == OrderStatusCanceled
	default:
		return false
	}
}

// ShippingAddress is copied by value into the order at creation time.
// ID ties the address back to a customer record: the user's email, or
// the full name for guest checkout.
type ShippingAddress struct {
	ID       string `bson:"id" json:"id"`
	FullName string `bson:"full_name" json:"fullName"`
	Address  string `bson:"address" json:"address"`
	City     string `bson:"city" json:"city"`
	State    string `bson:"state" json:"state"`
	Zip      string `bson:"zip" json:"zip"`
	Phone    string `bson:"phone" json:"phone"`
}

// OrderItem is a frozen snapshot of a product at the moment of purchase
// plus the purchased quantity. It deliberately copies display data
// instead of referencing the live product, so later catalog edits or
// deletions never corrupt order history. Stock records availability at
// purchase time, before the decrement.
type OrderItem struct {
	ProductID   string   `bson:"product_id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description" json:"description"`
	Price       float64  `bson:"price" json:"price"`
	Images      []string `bson:"images" json:"images"`
	Category    string   `bson:"category" json:"category"`
	Rating      float64  `bson:"rating" json:"rating"`
	Stock       int      `bson:"stock" json:"stock"`
	Quantity    int      `bson:"quantity" json:"quantity"`
}

// Order is created exactly once by order placement. Everything except
// Status is immutable afterwards.
type Order struct {
	ID              string          `bson:"_id" json:"id"`
	Items           []OrderItem     `bson:"items" json:"items"`
	Total           float64         `bson:"total" json:"total"`
	ShippingFee     float64         `bson:"shipping_fee" json:"shippingFee"`
	Status          OrderStatus     `bson:"status" json:"status"`
	Date            time.Time       `bson:"date" json:"date"`
	ShippingAddress ShippingAddress `bson:"shipping_address" json:"shippingAddress"`
	UserEmail       string          `bson:"user_email" json:"userEmail"` // empty for guest checkout
}

// SnapshotItem freezes a product into an order line.
func SnapshotItem(p *Product, quantity int) OrderItem {
	images := make([]string, len(p.Images))
	copy(images, p.Images)
	return OrderItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Images:      images,
		Category:    p.Category,
		Rating:      p.Rating,
		Stock:       p.Stock,
		Quantity:    quantity,
	}
}
