package models

import (
	"time"
)

const (
	RoleRenter  = "renter"
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

const (
	ListingAvailable = "available"
	ListingBooked    = "booked"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
	BookingRefunded  = "refunded"
)

const (
	TransactionBooking = "booking"
	TransactionRefund  = "refund"
)

const (
	PaymentCredit = "credit"
	PaymentDebit  = "debit"
	PaymentPayPal = "paypal"
)

type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Email          string    `gorm:"uniqueIndex;not null"          json:"email"`
	FirstName      string    `gorm:"not null"                      json:"firstName"`
	LastName       string    `gorm:"not null"                      json:"lastName"`
	PasswordHash   string    `gorm:"not null"                      json:"-"`
	Role           string    `gorm:"not null;default:renter;index" json:"role"`
	ProfilePicture *string   `gorm:"type:text"                     json:"profilePicture"`
	CreatedAt      time.Time `gorm:"index"                         json:"createdAt"`
}

// Session backs a bearer token. Only the sha256 of the token is stored.
type Session struct {
	ID        uint       `gorm:"primaryKey"          json:"id"`
	UserID    uint       `gorm:"index;not null"      json:"userId"`
	TokenHash string     `gorm:"uniqueIndex;not null" json:"-"`
	JTI       string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"index;not null"      json:"expiresAt"`
	Revoked   bool       `gorm:"default:false"       json:"revoked"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	IPAddress string     `json:"ipAddress"`
	UserAgent string     `json:"userAgent"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (Session) TableName() string { return "user_sessions" }

type Listing struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"                json:"id"`
	Title         string    `gorm:"not null"                                json:"title"`
	Description   string    `gorm:"type:text;not null"                      json:"description"`
	PricePerNight int64     `gorm:"not null"                                json:"pricePerNight"`
	NumGuests     int       `gorm:"not null"                                json:"numGuests"`
	NumBedrooms   int       `gorm:"not null"                                json:"numBedrooms"`
	NumBeds       int       `gorm:"not null"                                json:"numBeds"`
	NumBathrooms  int       `gorm:"not null"                                json:"numBathrooms"`
	Images        []string  `gorm:"serializer:json;type:text;not null"      json:"images"`
	UserID        uint      `gorm:"index;not null"                          json:"userId"`
	Status        string    `gorm:"not null;default:available;index"        json:"status"`
	Featured      bool      `gorm:"not null;default:false;index"            json:"featured"`
	CreatedAt     time.Time `gorm:"index"                                   json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Booking struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"                          json:"id"`
	ListingID     uint       `gorm:"index;not null"                                    json:"listingId"`
	Listing       *Listing   `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"listing,omitempty"`
	UserID        uint       `gorm:"index;not null"                                    json:"userId"`
	CheckInDate   time.Time  `gorm:"not null"                                          json:"checkInDate"`
	CheckOutDate  time.Time  `gorm:"not null;index"                                    json:"checkOutDate"`
	NumNights     int        `gorm:"not null"                                          json:"numNights"`
	Subtotal      int64      `gorm:"not null"                                          json:"subtotal"`
	Tax           int64      `gorm:"not null"                                          json:"tax"`
	Total         int64      `gorm:"not null"                                          json:"total"`
	Status        string     `gorm:"not null;default:pending;index"                    json:"status"`
	PaymentMethod string     `gorm:"not null"                                          json:"paymentMethod"`
	RefundedAt    *time.Time `json:"refundedAt"`
	CreatedAt     time.Time  `gorm:"index"                                             json:"createdAt"`
}

// Transaction is a ledger row. Charges are negative, refunds positive.
type Transaction struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index;not null"           json:"userId"`
	BookingID   *uint     `gorm:"index"                    json:"bookingId"`
	ListingID   *uint     `json:"listingId"`
	Amount      int64     `gorm:"not null"                 json:"amount"`
	Type        string    `gorm:"not null"                 json:"type"`
	Description string    `gorm:"not null"                 json:"description"`
	CreatedAt   time.Time `gorm:"index"                    json:"createdAt"`
}

func All() []any {
	return []any{&User{}, &Session{}, &Listing{}, &Booking{}, &Transaction{}}
}

func IsRole(role string) bool {
	switch role {
	case RoleRenter, RoleAdmin, RoleManager:
		return true
	}
	return false
}

func IsBookingStatus(status string) bool {
	switch status {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingRefunded:
		return true
	}
	return false
}

func IsListingStatus(status string) bool {
	return status == ListingAvailable || status == ListingBooked
}

func IsPaymentMethod(method string) bool {
	switch method {
	case PaymentCredit, PaymentDebit, PaymentPayPal:
		return true
	}
	return false
}
