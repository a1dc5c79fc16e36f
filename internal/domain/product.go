package domain

// Product is a catalog document. Stock is the only field this backend
// mutates outside the admin surface, and only ever downward, during
// order placement.
type Product struct {
	ID          string   `bson:"_id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Description string   `bson:"description" json:"description"`
	Price       float64  `bson:"price" json:"price"`
	Images      []string `bson:"images" json:"images"`
	Stock       int      `bson:"stock" json:"stock"`
	Rating      float64  `bson:"rating" json:"rating"`
	Category    string   `bson:"category" json:"category"`
}

// LineItem is one (product, quantity) pair of a proposed order. The cart
// merges duplicate products before checkout, so product IDs are unique
// within one request.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}
