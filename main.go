package main

import (
	"cinema_booking/config"
	"cinema_booking/database"
	"cinema_booking/handler"
	"cinema_booking/repository"
	"cinema_booking/router"
	"cinema_booking/service"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.ConfigDefault("CORS_ORIGIN", "http://localhost:5173"),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	database.ConnectDB()
	database.ConnectRedis()

	seatRepo := repository.NewSeatRepository(database.DB)
	bookingRepo := repository.NewBookingRepository(database.DB)
	promoRepo := repository.NewPromotionRepository(database.DB)
	ticketRepo := repository.NewTicketRepository(database.DB)
	showtimeRepo := repository.NewShowtimeRepository(database.DB)

	ttl := service.DefaultHoldTTL
	if v := config.Config("HOLD_TTL_MINUTES"); v != "" {
		if d, err := time.ParseDuration(v + "m"); err == nil {
			ttl = d
		}
	}

	inventory := service.NewSeatInventory(seatRepo, ttl)
	promoEngine := service.NewPromotionEngine(promoRepo)
	issuer := service.NewTicketIssuer(ticketRepo)
	orchestrator := service.NewBookingOrchestrator(bookingRepo, showtimeRepo, inventory, promoEngine, issuer)
	checkin := service.NewCheckInService(ticketRepo, bookingRepo, showtimeRepo)

	handler.Init(handler.Services{
		Inventory:  inventory,
		Bookings:   orchestrator,
		CheckIn:    checkin,
		Showtimes:  showtimeRepo,
		Seats:      seatRepo,
		Promotions: promoRepo,
	})

	sweeper, err := service.NewSweeper(inventory, orchestrator, func(showtimeIDs []uint) {
		for _, id := range showtimeIDs {
			handler.BroadcastShowtime(id)
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := sweeper.Start(); err != nil {
		log.Fatal(err)
	}
	defer sweeper.Stop()

	router.SetupRoutes(app)
	log.Fatal(app.Listen(":" + config.ConfigDefault("PORT", "8002")))
}
