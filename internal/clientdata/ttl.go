package clientdata

import "time"

// Default lifetimes, added to time.Now() when storing.
const (
	// Daily bars only change once per session.
	TTLPriceHistory = 12 * time.Hour
	// A verdict on a given news text does not change.
	TTLClassification = 7 * 24 * time.Hour
)
