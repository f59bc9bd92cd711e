package entity

import (
	"errors"
	"time"
)

var ErrAlreadyReviewed = errors.New("product already reviewed")

type Product struct {
	ID            string    `json:"_id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	Description   []string  `json:"description" bson:"description"`
	Category      string    `json:"category" bson:"category"`
	Price         int64     `json:"price" bson:"price"`
	OfferPrice    int64     `json:"offerPrice" bson:"offerPrice"`
	Images        []string  `json:"image" bson:"image"`
	InStock       bool      `json:"inStock" bson:"inStock"`
	Reviews       []Review  `json:"reviews" bson:"reviews"`
	ReviewCount   int       `json:"numReviews" bson:"numReviews"`
	AverageRating float64   `json:"rating" bson:"rating"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Review struct {
	UserID    string    `json:"user" bson:"user"`
	Name      string    `json:"name" bson:"name"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment" bson:"comment"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// HasReviewFrom reports whether the buyer already reviewed the product.
func (p *Product) HasReviewFrom(userID string) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// AddReview appends the review and recomputes the rating summary.
func (p *Product) AddReview(review Review) error {
	if p.HasReviewFrom(review.UserID) {
		return ErrAlreadyReviewed
	}
	p.Reviews = append(p.Reviews, review)
	p.RecomputeRating()
	return nil
}

// RecomputeRating sets ReviewCount and AverageRating from the review list.
func (p *Product) RecomputeRating() {
	p.ReviewCount = len(p.Reviews)
	if p.ReviewCount == 0 {
		p.AverageRating = 0
		return
	}
	var sum int
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.AverageRating = float64(sum) / float64(p.ReviewCount)
}

/*
MySQL table:

CREATE TABLE products (
	id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	description JSON NOT NULL,
	category VARCHAR(128) NOT NULL,
	price BIGINT NOT NULL,
	offer_price BIGINT NOT NULL,
	images JSON NOT NULL,
	in_stock BOOLEAN NOT NULL DEFAULT TRUE,
	reviews JSON NOT NULL,
	review_count INT NOT NULL DEFAULT 0,
	average_rating DOUBLE NOT NULL DEFAULT 0,
	created_at DATETIME(3) NOT NULL,
	updated_at DATETIME(3) NOT NULL,
	INDEX category_idx (category)
);
*/
