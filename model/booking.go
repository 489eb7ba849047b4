package model

import "time"

const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingRefunded  = "REFUNDED"
	BookingFailed    = "FAILED"
)

// Trạng thái check-in tổng hợp của booking, suy ra từ tỉ lệ vé đã dùng.
const (
	CheckInInactive = "INACTIVE"
	CheckInPartial  = "PARTIAL"
	CheckInUsed     = "USED"
)

type Booking struct {
	DTO
	PublicCode     string     `gorm:"unique;size:20" json:"publicCode"` // BKG-XXXXXX
	CustomerID     *uint      `json:"customerId,omitempty"`             // null nếu guest
	HeldBy         string     `gorm:"size:64" json:"-"`                 // USER_x hoặc GUEST_xxx
	ShowtimeID     uint       `json:"showtimeId"`
	Showtime       Showtime   `json:"showtime"`
	HoldToken      string     `gorm:"uniqueIndex;size:64" json:"-"`
	HoldExpiresAt  time.Time  `json:"-"`
	TotalAmount    float64    `json:"totalAmount"`
	DiscountAmount float64    `json:"discountAmount"`
	FinalAmount    float64    `json:"finalAmount"` // luôn = TotalAmount - DiscountAmount, >= 0
	PromotionCode  string     `gorm:"size:32" json:"promotionCode,omitempty"`
	PaymentRef     string     `gorm:"size:64;index" json:"paymentRef,omitempty"`
	Status         string     `gorm:"index;default:'PENDING'" json:"status"`
	CheckInStatus  string     `gorm:"default:'INACTIVE'" json:"checkInStatus"`
	Version        uint       `gorm:"not null;default:0" json:"version"`
	PaidAt         *time.Time `json:"paidAt,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
	CustomerName   string     `json:"customerName"`
	Phone          string     `json:"phone"`
	Email          string     `json:"email"`

	Tickets []Ticket `gorm:"foreignKey:BookingId" json:"tickets"`
}

// Terminal báo booking đã ở trạng thái cuối. REFUNDED chỉ đạt được từ
// CONFIRMED; mọi trạng thái cuối đều bất biến sau đó.
func (b *Booking) Terminal() bool {
	switch b.Status {
	case BookingCancelled, BookingRefunded, BookingFailed:
		return true
	}
	return false
}

type CreateBookingInput struct {
	HoldToken    string `json:"holdToken" validate:"required"`
	CustomerName string `json:"customerName" validate:"omitempty"`
	Phone        string `json:"phone" validate:"omitempty"`
	Email        string `json:"email" validate:"omitempty,email"`
}

type ApplyPromotionInput struct {
	Code string `json:"code" validate:"required"`
}

type ConfirmPaymentInput struct {
	PaymentRef string `json:"paymentRef" validate:"required"`
}
