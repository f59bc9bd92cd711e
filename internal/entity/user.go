package entity

import "time"

type User struct {
	ID              string     `json:"_id" bson:"_id"`
	Name            string     `json:"name" bson:"name"`
	Email           string     `json:"email" bson:"email"`
	Password        string     `json:"-" bson:"password"`
	Cart            []CartItem `json:"cartItems" bson:"cartItems"`
	IsVerified      bool       `json:"isVerified" bson:"isVerified"`
	VerifyOTP       string     `json:"-" bson:"verifyOtp"`
	VerifyOTPExpire time.Time  `json:"-" bson:"verifyOtpExpire"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
}

type CartItem struct {
	ProductID string `json:"productId" bson:"productId"`
	Quantity  int    `json:"quantity" bson:"quantity"`
}

// NormalizeCart drops non-positive quantities and merges repeated products,
// keeping the position of the first occurrence.
func NormalizeCart(items []CartItem) []CartItem {
	out := make([]CartItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}

// OTPValid reports whether otp matches the pending code and has not expired.
func (u *User) OTPValid(otp string, now time.Time) bool {
	return u.VerifyOTP != "" && u.VerifyOTP == otp && !now.After(u.VerifyOTPExpire)
}

type Seller struct {
	ID       string `json:"_id" bson:"_id"`
	Email    string `json:"email" bson:"email"`
	Password string `json:"-" bson:"password"`
}

/*
MySQL schema:

CREATE TABLE users (
	id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	password VARCHAR(255) NOT NULL,
	cart JSON NOT NULL,
	is_verified BOOLEAN NOT NULL DEFAULT FALSE,
	verify_otp VARCHAR(6) NOT NULL DEFAULT '',
	verify_otp_expire DATETIME(3) NULL,
	created_at DATETIME(3) NOT NULL,
	UNIQUE INDEX email_idx (email)
);

CREATE TABLE sellers (
	id VARCHAR(36) PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	password VARCHAR(255) NOT NULL,
	UNIQUE INDEX email_idx (email)
);
*/
