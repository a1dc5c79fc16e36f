package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Nzd00905/s-shop/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const settingsDocID = "store_config"

type Banner struct {
	ID    string `bson:"id" json:"id"`
	Title string `bson:"title" json:"title"`
	Image string `bson:"image" json:"image"`
}

// StoreSettings is the shop-wide configuration the UI renders with:
// read by every request path, written only by the admin surface.
type StoreSettings struct {
	ShopName       string   `bson:"shop_name" json:"shopName"`
	Logo           string   `bson:"logo" json:"logo"`
	CurrencySymbol string   `bson:"currency_symbol" json:"currencySymbol"`
	ShippingFee    float64  `bson:"shipping_fee" json:"shippingFee"`
	Banners        []Banner `bson:"banners" json:"banners"`
}

func Defaults() StoreSettings {
	return StoreSettings{
		ShopName:       "ShopSwift",
		CurrencySymbol: "$",
		ShippingFee:    0,
	}
}

type Repository interface {
	Get(ctx context.Context) (*StoreSettings, error)
	Update(ctx context.Context, settings *StoreSettings) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection(store.SettingsCollection),
	}
}

// Get reads the settings document, seeding defaults on first run.
func (m *mongoRepository) Get(ctx context.Context) (*StoreSettings, error) {
	var settings StoreSettings
	err := m.collection.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			defaults := Defaults()
			if err := m.Update(ctx, &defaults); err != nil {
				return nil, err
			}
			return &defaults, nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

func (m *mongoRepository) Update(ctx context.Context, settings *StoreSettings) error {
	doc := bson.M{
		"_id":             settingsDocID,
		"shop_name":       settings.ShopName,
		"logo":            settings.Logo,
		"currency_symbol": settings.CurrencySymbol,
		"shipping_fee":    settings.ShippingFee,
		"banners":         settings.Banners,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": settingsDocID}, doc, opts); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	return nil
}

// Provider is the read-mostly view handed to request paths. It loads
// settings once, serves them from memory, and swaps the copy when the
// single writer updates them.
type Provider struct {
	mu     sync.RWMutex
	repo   Repository
	cached *StoreSettings
}

func NewProvider(repo Repository) *Provider {
	return &Provider{repo: repo}
}

func (p *Provider) Get(ctx context.Context) (StoreSettings, error) {
	p.mu.RLock()
	cached := p.cached
	p.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		return *p.cached, nil
	}
	settings, err := p.repo.Get(ctx)
	if err != nil {
		return StoreSettings{}, err
	}
	p.cached = settings
	return *settings, nil
}

func (p *Provider) Update(ctx context.Context, settings StoreSettings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.repo.Update(ctx, &settings); err != nil {
		return err
	}
	p.cached = &settings
	return nil
}
