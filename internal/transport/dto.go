package transport

import (
	"time"

	"github.com/Skotchmaster/stayfinder/internal/models"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	SessionToken string       `json:"sessionToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

type CreateListingRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	PricePerNight int64    `json:"pricePerNight"`
	NumGuests     int      `json:"numGuests"`
	NumBedrooms   int      `json:"numBedrooms"`
	NumBeds       int      `json:"numBeds"`
	NumBathrooms  int      `json:"numBathrooms"`
	Images        []string `json:"images"`
	UserID        *uint    `json:"userId"`
	Featured      bool     `json:"featured"`
}

type PatchListingRequest struct {
	Title         *string   `json:"title"`
	Description   *string   `json:"description"`
	PricePerNight *int64    `json:"pricePerNight"`
	NumGuests     *int      `json:"numGuests"`
	NumBedrooms   *int      `json:"numBedrooms"`
	NumBeds       *int      `json:"numBeds"`
	NumBathrooms  *int      `json:"numBathrooms"`
	Images        *[]string `json:"images"`
	Featured      *bool     `json:"featured"`
}

type PaymentDetails struct {
	CardNumber     string `json:"cardNumber"`
	ExpiryDate     string `json:"expiryDate"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholderName"`
	PayPalEmail    string `json:"paypalEmail"`
}

type CreateBookingRequest struct {
	ListingID     uint            `json:"listingId"`
	CheckInDate   string          `json:"checkInDate"`
	CheckOutDate  string          `json:"checkOutDate"`
	PaymentMethod string          `json:"paymentMethod"`
	Payment       *PaymentDetails `json:"payment"`
	Status        string          `json:"status"`
}

type UpdateBookingRequest struct {
	Status string `json:"status"`
}

type BookingResponse struct {
	Booking     *models.Booking     `json:"booking"`
	Transaction *models.Transaction `json:"transaction"`
}

type Quote struct {
	NumNights     int   `json:"numNights"`
	PricePerNight int64 `json:"pricePerNight"`
	Subtotal      int64 `json:"subtotal"`
	Tax           int64 `json:"tax"`
	Total         int64 `json:"total"`
}

type CreateTransactionRequest struct {
	UserID      *uint  `json:"userId"`
	Amount      *int64 `json:"amount"`
	Type        string `json:"type"`
	Description string `json:"description"`
	BookingID   *uint  `json:"bookingId"`
	ListingID   *uint  `json:"listingId"`
}

type UpdateProfileRequest struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	ProfilePicture *string `json:"profilePicture"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type AdminListing struct {
	models.Listing
	ActiveBooking *models.Booking `json:"activeBooking"`
}

type Stats struct {
	Listings  map[string]int64 `json:"listings"`
	Bookings  map[string]int64 `json:"bookings"`
	LedgerNet int64            `json:"ledgerNet"`
}
