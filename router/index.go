package router

import (
	"cinema_booking/handler"
	"cinema_booking/middleware"
	"cinema_booking/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1", logger.New())

	auth := v1.Group("/auth")
	auth.Post("/login", validate.Login(), handler.Login)
	auth.Post("/logout", handler.Logout)

	showtime := v1.Group("/showtime", logger.New())
	showtime.Get("/", handler.GetShowtimes)
	showtime.Get("/:showtimeId", validate.GetById("showtimeId"), handler.GetShowtime)
	showtime.Get("/:showtimeId/seats", handler.GetSeats)
	showtime.Post("/:showtimeId/hold", middleware.OptionalJWT(), validate.HoldSeats(), handler.HoldSeats)
	showtime.Post("/:showtimeId/release", middleware.OptionalJWT(), validate.ReleaseSeats(), handler.ReleaseSeats)
	showtime.Get("/ws/:showtimeId", websocket.New(handler.SeatWebsocket))
	showtime.Post("/", middleware.Protected(), middleware.AdminOnly(), validate.CreateShowtime(), handler.CreateShowtime)

	booking := v1.Group("/booking", logger.New())
	booking.Post("/", middleware.OptionalJWT(), validate.CreateBooking(), handler.CreateBooking)
	booking.Get("/:code", handler.GetBooking)
	booking.Post("/:code/promotion", validate.ApplyPromotion(), handler.ApplyPromotion)
	booking.Post("/:code/confirm", validate.ConfirmPayment(), handler.ConfirmPayment)
	booking.Post("/:code/cancel", middleware.OptionalJWT(), handler.CancelBooking)

	promotion := v1.Group("/promotion", logger.New())
	promotion.Get("/", handler.GetPromotions)
	promotion.Post("/", middleware.Protected(), middleware.AdminOnly(), validate.CreatePromotion(), handler.CreatePromotion)

	checkin := v1.Group("/checkin", logger.New())
	checkin.Post("/scan", middleware.Protected(), middleware.StaffOnly(), validate.CheckIn(), handler.ProcessScan)
	checkin.Post("/ticket/:ticketCode", middleware.Protected(), middleware.StaffOnly(), handler.CheckinSeat)
	checkin.Post("/booking/:code", middleware.Protected(), middleware.StaffOnly(), handler.CheckinBooking)
}
