package booking

import (
	"sportivox/models"

	"github.com/shopspring/decimal"
)

// Summarize totals bookings by kind and payment state. Court bookings are
// charged per slot, coach bookings per session.
func Summarize(email string, bookings []models.Booking) models.BookingSummary {
	var total, paid, unpaid, court, coach decimal.Decimal
	summary := models.BookingSummary{
		UserEmail: email,
		Bookings:  bookings,
		Count:     len(bookings),
	}
	if summary.Bookings == nil {
		summary.Bookings = []models.Booking{}
	}

	for _, b := range bookings {
		amount := decimal.NewFromFloat(b.Subtotal())
		total = total.Add(amount)
		if b.Kind == models.BookingKindCourt {
			court = court.Add(amount)
		} else {
			coach = coach.Add(amount)
		}
		if b.IsPaid() {
			paid = paid.Add(amount)
			summary.PaidCount++
		} else {
			unpaid = unpaid.Add(amount)
			summary.UnpaidCount++
		}
	}

	summary.Total = total.Round(2).InexactFloat64()
	summary.PaidTotal = paid.Round(2).InexactFloat64()
	summary.UnpaidTotal = unpaid.Round(2).InexactFloat64()
	summary.CourtTotal = court.Round(2).InexactFloat64()
	summary.CoachTotal = coach.Round(2).InexactFloat64()
	return summary
}
