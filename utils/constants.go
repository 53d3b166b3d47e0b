// File: utils/constants.go
package utils

// Redis key prefixes.
const (
	CouponCachePrefix     = "coupon:"
	SummaryCachePrefix    = "summary:"
	CheckoutSessionPrefix = "checkout:"
	CheckoutLockPrefix    = "checkout:lock:"
)
