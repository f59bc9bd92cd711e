package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/imagestore"
	"github.com/Harsh-Singh007/grabit/internal/repository"
)

const (
	categoriesCacheKey = "products:categories"
	listCachePrefix    = "products:list:"
	productCachePrefix = "product:"

	reviewAttempts = 3
)

// ProductService manages the catalog and its reviews. Reads go through Redis
// when a client is configured.
type ProductService struct {
	products repository.ProductRepository
	users    repository.UserRepository
	uploader imagestore.Uploader
	rdb      *redis.Client
	cacheTTL time.Duration
	now      func() time.Time
}

// NewProductService creates a new instance of ProductService. uploader and rdb may be nil.
func NewProductService(products repository.ProductRepository, users repository.UserRepository, uploader imagestore.Uploader,
	rdb *redis.Client, cacheTTL time.Duration) *ProductService {
	return &ProductService{
		products: products,
		users:    users,
		uploader: uploader,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

type ProductInput struct {
	Name        string
	Category    string
	Price       int64
	OfferPrice  int64
	Description []string
}

func (in *ProductInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = splitDescription(in.Description)
}

func (in ProductInput) validate() error {
	if in.Name == "" || in.Category == "" || len(in.Description) == 0 || in.Price <= 0 || in.OfferPrice <= 0 {
		return newError(ErrInvalidInput, "All fields including images are required")
	}
	if in.OfferPrice > in.Price {
		return newError(ErrInvalidInput, "Offer price cannot exceed price")
	}
	return nil
}

// Add creates a product from a seller form. At least one image is required.
func (s *ProductService) Add(ctx context.Context, in ProductInput, images []imagestore.File) (*entity.Product, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, newError(ErrInvalidInput, "All fields including images are required")
	}
	if len(images) > imagestore.MaxImages {
		return nil, newError(ErrInvalidInput, "At most %d images are allowed", imagestore.MaxImages)
	}

	urls, err := s.upload(ctx, images)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	product := &entity.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		OfferPrice:  in.OfferPrice,
		Images:      urls,
		InStock:     true,
		Reviews:     []entity.Review{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		logger.Error().Err(err).Msg("Error creating product")
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidate(ctx, product.ID)
	return product, nil
}

type BulkProductInput struct {
	Name        string
	Category    string
	Price       int64
	OfferPrice  int64 // zero means Price
	Description []string
	Images      []string
	InStock     *bool // nil means in stock
}

// BulkAdd inserts a batch of products with already hosted images.
func (s *ProductService) BulkAdd(ctx context.Context, inputs []BulkProductInput) ([]*entity.Product, error) {
	if len(inputs) == 0 {
		return nil, newError(ErrInvalidInput, "Invalid products data. Please provide an array of products.")
	}

	now := s.now().UTC()
	products := make([]*entity.Product, 0, len(inputs))
	for i, in := range inputs {
		name, category := strings.TrimSpace(in.Name), strings.TrimSpace(in.Category)
		if name == "" || category == "" || in.Price <= 0 {
			return nil, newError(ErrInvalidInput, "Product %d needs a name, a category and a price", i+1)
		}
		offer := in.OfferPrice
		if offer <= 0 {
			offer = in.Price
		}
		if offer > in.Price {
			return nil, newError(ErrInvalidInput, "Product %d has an offer price above its price", i+1)
		}
		inStock := true
		if in.InStock != nil {
			inStock = *in.InStock
		}

		products = append(products, &entity.Product{
			ID:          uuid.NewString(),
			Name:        name,
			Description: splitDescription(in.Description),
			Category:    category,
			Price:       in.Price,
			OfferPrice:  offer,
			Images:      nonEmpty(in.Images),
			InStock:     inStock,
			Reviews:     []entity.Review{},
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := s.products.CreateMany(ctx, products); err != nil {
		logger.Error().Err(err).Msg("Error bulk creating products")
		return nil, fmt.Errorf("bulk create products: %w", err)
	}

	s.invalidate(ctx)
	return products, nil
}

// List returns the catalog, optionally narrowed to one category.
func (s *ProductService) List(ctx context.Context, category string) ([]entity.Product, error) {
	category = strings.TrimSpace(category)
	key := listCachePrefix + strings.ToLower(category)

	var products []entity.Product
	if s.cacheGet(ctx, key, &products) {
		return products, nil
	}
	products, err := s.products.List(ctx, repository.ProductFilter{Category: category})
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, key, products)
	return products, nil
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if s.cacheGet(ctx, categoriesCacheKey, &categories) {
		return categories, nil
	}
	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, categoriesCacheKey, categories)
	return categories, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*entity.Product, error) {
	if id == "" {
		return nil, newError(ErrInvalidInput, "Product id is required")
	}
	key := productCachePrefix + id

	var product entity.Product
	if s.cacheGet(ctx, key, &product) {
		return &product, nil
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product not found")
	}
	s.cacheSet(ctx, key, p)
	return p, nil
}

// Update replaces the product fields. Images are replaced only when new
// ones are uploaded.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput, images []imagestore.File) (*entity.Product, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	if len(images) > imagestore.MaxImages {
		return nil, newError(ErrInvalidInput, "At most %d images are allowed", imagestore.MaxImages)
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Product not found")
	}
	if len(images) > 0 {
		urls, err := s.upload(ctx, images)
		if err != nil {
			return nil, err
		}
		product.Images = urls
	}

	product.Name = in.Name
	product.Category = in.Category
	product.Price = in.Price
	product.OfferPrice = in.OfferPrice
	product.Description = in.Description
	product.UpdatedAt = s.now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		return nil, notFound(err, "Product not found")
	}

	s.invalidate(ctx, product.ID)
	return product, nil
}

func (s *ProductService) SetStock(ctx context.Context, id string, inStock bool) (*entity.Product, error) {
	product, err := s.products.SetStock(ctx, id, inStock)
	if err != nil {
		return nil, notFound(err, "Product not found")
	}
	s.invalidate(ctx, id)
	return product, nil
}

// AddReview appends the buyer's review and recomputes the rating. The write
// is retried when another review lands in between.
func (s *ProductService) AddReview(ctx context.Context, userID, productID string, rating int, comment string) (*entity.Product, error) {
	if productID == "" {
		return nil, newError(ErrInvalidInput, "Product id is required")
	}
	if rating < 1 || rating > 5 {
		return nil, newError(ErrInvalidInput, "Rating must be between 1 and 5")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}

	for attempt := 0; attempt < reviewAttempts; attempt++ {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return nil, notFound(err, "Product not found")
		}

		expected := product.ReviewCount
		err = product.AddReview(entity.Review{
			UserID:    user.ID,
			Name:      user.Name,
			Rating:    rating,
			Comment:   strings.TrimSpace(comment),
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return nil, ErrAlreadyReviewed
		}

		err = s.products.SaveReviews(ctx, product, expected)
		if err == nil {
			s.invalidate(ctx, productID)
			return product, nil
		}
		if !errors.Is(err, repository.ErrStale) {
			return nil, notFound(err, "Product not found")
		}
		logger.Warn().Msgf("Concurrent review on product %s, retrying", productID)
	}
	return nil, newError(ErrConflict, "Product is being reviewed by others, please retry")
}

func (s *ProductService) upload(ctx context.Context, images []imagestore.File) ([]string, error) {
	if s.uploader == nil {
		return nil, errors.New("image storage is not configured")
	}
	urls, err := imagestore.UploadAll(ctx, s.uploader, images)
	if err != nil {
		logger.Error().Err(err).Msg("Error uploading product images")
		return nil, err
	}
	return urls, nil
}

func (s *ProductService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.rdb == nil {
		return false
	}
	val, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Msgf("Cache read failed for %s", key)
		}
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		logger.Warn().Err(err).Msgf("Dropping corrupt cache entry %s", key)
		return false
	}
	return true
}

func (s *ProductService) cacheSet(ctx context.Context, key string, v interface{}) {
	if s.rdb == nil {
		return
	}
	val, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, val, s.cacheTTL).Err(); err != nil {
		logger.Warn().Err(err).Msgf("Cache write failed for %s", key)
	}
}

// invalidate drops the category and list entries plus the given products.
func (s *ProductService) invalidate(ctx context.Context, ids ...string) {
	if s.rdb == nil {
		return
	}
	keys := []string{categoriesCacheKey}
	for _, id := range ids {
		keys = append(keys, productCachePrefix+id)
	}

	iter := s.rdb.Scan(ctx, 0, listCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn().Err(err).Msg("Cache scan failed")
	}

	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Warn().Err(err).Msg("Cache invalidation failed")
	}
}

// splitDescription accepts one point per entry or newline separated points.
func splitDescription(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		for _, part := range strings.Split(l, "\n") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
