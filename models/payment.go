package models

type PaymentIntentRequest struct {
	Price float64 `json:"price" binding:"required,gt=0"`
}

// PaymentRecord holds the fields of a payments document the server reads.
// The full client body is stored as sent.
type PaymentRecord struct {
	Email      string  `json:"email"`
	Price      float64 `json:"price"`
	BookingsID string  `json:"bookingsId" binding:"required"`
}

// StatEntry is one tile of the admin dashboard.
type StatEntry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}
