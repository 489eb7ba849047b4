package model

import "time"

const (
	TicketIssued    = "ISSUED"
	TicketUsed      = "USED"
	TicketCancelled = "CANCELLED"
)

type Ticket struct {
	DTO
	TicketCode string     `gorm:"size:24;uniqueIndex" json:"ticketCode"`
	Status     string     `gorm:"not null;default:'ISSUED'" json:"status"`
	Price      float64    `gorm:"not null" json:"price"`
	SeatLabel  string     `gorm:"size:8" json:"seatLabel"`
	IssuedAt   time.Time  `json:"issuedAt"`
	UsedAt     *time.Time `json:"usedAt,omitempty"`

	BookingId      uint `gorm:"index;uniqueIndex:idx_tickets_booking_seat" json:"bookingId"`
	ShowtimeSeatId uint `gorm:"uniqueIndex:idx_tickets_booking_seat" json:"showtimeSeatId"`
	ShowtimeId     uint `json:"showtimeId"`
	SeatId         uint `json:"seatId"`

	Booking      Booking      `gorm:"foreignKey:BookingId" json:"-"`
	Showtime     Showtime     `gorm:"foreignKey:ShowtimeId" json:"-"`
	ShowtimeSeat ShowtimeSeat `gorm:"foreignKey:ShowtimeSeatId" json:"-"`
}

type CheckInInput struct {
	QRPayload string `json:"qrPayload" validate:"required"`
}

// CheckInResult là dữ liệu trả về cho thiết bị quét tại rạp.
type CheckInResult struct {
	TicketCode    string `json:"ticketCode"`
	SeatLabel     string `json:"seatLabel"`
	MovieTitle    string `json:"movieTitle"`
	BookingCode   string `json:"bookingCode"`
	BookingStatus string `json:"bookingStatus"` // INACTIVE / PARTIAL / USED
	UsedAt        string `json:"usedAt"`
}
