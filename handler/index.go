package handler

import (
	"cinema_booking/repository"
	"cinema_booking/service"
)

// Các service dùng chung cho handler, gắn một lần lúc khởi động.
var (
	Inventory  *service.SeatInventory
	Bookings   *service.BookingOrchestrator
	CheckIn    *service.CheckInService
	Showtimes  *repository.ShowtimeRepository
	Seats      *repository.SeatRepository
	Promotions *repository.PromotionRepository
)

type Services struct {
	Inventory  *service.SeatInventory
	Bookings   *service.BookingOrchestrator
	CheckIn    *service.CheckInService
	Showtimes  *repository.ShowtimeRepository
	Seats      *repository.SeatRepository
	Promotions *repository.PromotionRepository
}

func Init(s Services) {
	Inventory = s.Inventory
	Bookings = s.Bookings
	CheckIn = s.CheckIn
	Showtimes = s.Showtimes
	Seats = s.Seats
	Promotions = s.Promotions
}
