package model

import (
	"fmt"
	"time"
)

const (
	SeatAvailable = "AVAILABLE"
	SeatHeld      = "HELD"
	SeatBooked    = "BOOKED"
)

type Showtime struct {
	DTO
	PublicCode string    `gorm:"size:16;uniqueIndex" json:"publicCode"`
	StartTime  time.Time `validate:"required" json:"start"`
	EndTime    time.Time `validate:"required" json:"end"`
	Price      float64   `json:"price"`
	Status     string    `json:"status"`
	Format     string    `gorm:"size:10" json:"format"` // 2D, 3D, IMAX, 4DX
	MovieId    uint      `json:"movieId"`
	RoomId     uint      `json:"roomId"`
	Movie      Movie     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;foreignKey:MovieId" json:"Movie"`
	Room       Room      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;foreignKey:RoomId" json:"Room"`
}

// ShowtimeSeat là bản ghi chia sẻ chính của hệ thống: mọi thay đổi trạng thái
// đều đi qua conditional update trên (id, version), RowsAffected quyết định
// thắng/thua, không dùng khoá toàn cục.
type ShowtimeSeat struct {
	DTO
	ShowtimeId uint       `gorm:"index:idx_showtime_seat,unique" json:"showtimeId"`
	SeatId     uint       `gorm:"index:idx_showtime_seat,unique" json:"seatId"`
	SeatRow    string     `json:"seatRow"`
	SeatNumber int        `json:"seatNumber"`
	SeatTypeId uint       `json:"seatTypeId"`
	Price      float64    `json:"price"` // snapshot: showtime.Price * seatType.PriceModifier
	Status     string     `gorm:"index;default:'AVAILABLE'" json:"status"`
	HeldBy     string     `json:"heldBy"`
	HoldToken  string     `gorm:"index" json:"-"`
	ExpiredAt  *time.Time `json:"expiredAt"`
	Version    uint       `gorm:"not null;default:0" json:"-"`

	Showtime Showtime `gorm:"foreignKey:ShowtimeId" json:"-"`
	SeatType SeatType `json:"SeatType"`
	Seat     Seat     `json:"Seat"`
}

func (s *ShowtimeSeat) Label() string {
	return fmt.Sprintf("%s%d", s.SeatRow, s.SeatNumber)
}

type HoldSeatsInput struct {
	SeatIds []uint `json:"seatIds" validate:"required,min=1,dive,gt=0"`
}

type ReleaseSeatsInput struct {
	HoldToken string `json:"holdToken" validate:"required"`
}

type CreateShowtimeInput struct {
	MovieId   uint      `json:"movieId" validate:"required,gt=0"`
	RoomId    uint      `json:"roomId" validate:"required,gt=0"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	Price     float64   `json:"price" validate:"required,gt=0"`
	Format    string    `json:"format" validate:"omitempty,oneof=2D 3D IMAX 4DX"`
}

type FilterShowtimeInput struct {
	Pagination
	MovieId   uint   `query:"movieId" validate:"omitempty,gt=0"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
}
