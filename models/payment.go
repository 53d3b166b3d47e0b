package models

import "time"

// PaymentRecord is the append-only record of one settled checkout.
type PaymentRecord struct {
	ID             string    `bson:"id" json:"id"`
	BookingID      string    `bson:"bookingId" json:"bookingId"`
	BookingKind    string    `bson:"bookingKind,omitempty" json:"bookingKind,omitempty"`
	UserEmail      string    `bson:"userEmail" json:"userEmail"`
	Amount         float64   `bson:"amount" json:"amount"`
	TransactionID  string    `bson:"transactionId" json:"transactionId"`
	Discount       float64   `bson:"discount" json:"discount"`
	CouponUsed     string    `bson:"couponUsed,omitempty" json:"couponUsed,omitempty"`
	Date           time.Time `bson:"date" json:"date"`
	Status         string    `bson:"status" json:"status"`
	IdempotencyKey string    `bson:"idempotencyKey" json:"idempotencyKey,omitempty"`
}

// PaymentIntent is the processor-side intent for a single charge.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"` // minor units
	Currency     string `json:"currency"`
	Status       string `json:"status"`

	Metadata map[string]string `json:"metadata,omitempty"`
}
