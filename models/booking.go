package models

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingInReview BookingStatus = "in review"
	BookingAccepted BookingStatus = "accepted"
	BookingRejected BookingStatus = "rejected"
)
