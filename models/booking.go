package models

import "time"

// Booking kinds.
const (
	BookingKindCourt = "court"
	BookingKindCoach = "coach"
)

// Booking approval states.
const (
	BookingStatusPending  = "pending"
	BookingStatusApproved = "approved"
	BookingStatusRejected = "rejected"
)

// Payment states of a booking. A booking only ever moves unpaid -> paid.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// CoachDetails identifies the coach booked in a coach session.
type CoachDetails struct {
	Name  string `bson:"name" json:"name"`
	Sport string `bson:"sport,omitempty" json:"sport,omitempty"`
}

// Booking represents a court or coach booking made by a member.
type Booking struct {
	ID            string        `bson:"id" json:"id"`
	UserEmail     string        `bson:"userEmail" json:"userEmail"`
	Kind          string        `bson:"kind" json:"kind"`                               // "court" or "coach"
	CourtType     string        `bson:"courtType,omitempty" json:"courtType,omitempty"` // court bookings only
	Coach         *CoachDetails `bson:"coach,omitempty" json:"coach,omitempty"`         // coach bookings only
	Date          string        `bson:"date" json:"date"`                               // "YYYY-MM-DD"
	Slots         []string      `bson:"slots,omitempty" json:"slots,omitempty"`         // ordered slot labels for court bookings
	TimeSlot      string        `bson:"timeSlot,omitempty" json:"timeSlot,omitempty"`   // single slot for coach bookings
	Price         float64       `bson:"price" json:"price"`                             // per slot (court) or per session (coach)
	Status        string        `bson:"status" json:"status"`
	PaymentStatus string        `bson:"paymentStatus" json:"paymentStatus"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	PaidAt        *time.Time    `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

// Subtotal is the amount owed for the booking before any coupon.
func (b Booking) Subtotal() float64 {
	if b.Kind == BookingKindCourt {
		return b.Price * float64(len(b.Slots))
	}
	return b.Price
}

// IsPaid reports whether the booking has been settled.
func (b Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentStatusPaid
}

// BookingSummary aggregates approved bookings of both kinds for one member.
type BookingSummary struct {
	UserEmail   string    `json:"userEmail"`
	Bookings    []Booking `json:"bookings"`
	Count       int       `json:"count"`
	Total       float64   `json:"total"`
	PaidTotal   float64   `json:"paidTotal"`
	UnpaidTotal float64   `json:"unpaidTotal"`
	CourtTotal  float64   `json:"courtTotal"`
	CoachTotal  float64   `json:"coachTotal"`
	PaidCount   int       `json:"paidCount"`
	UnpaidCount int       `json:"unpaidCount"`
}
