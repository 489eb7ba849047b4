package database

import (
	"cinema_booking/model"
	"fmt"
	"log"
	"time"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func parseDate(dateStr string) time.Time {
	t, _ := time.Parse("2006-01-02", dateStr)
	return t
}

func SeedData(db *gorm.DB) {
	bytes, err := bcrypt.GenerateFromPassword([]byte("123456cn"), 10)
	HashPassword := string(bytes)
	if err != nil {
		HashPassword = "123456cn"
	}
	accounts := []model.Account{
		{Username: "Administration", Password: HashPassword, Active: true, Role: "ADMIN"},
		{Username: "staff01", Password: HashPassword, Active: true, Role: "STAFF"},
	}

	for _, account := range accounts {
		// Tạo mới nếu không tồn tại
		if err := db.Where(model.Account{Username: account.Username}).FirstOrCreate(&account).Error; err != nil {
			log.Println("failed to seed data for account:", account.Username, "error:", err)
		}
	}

	seatTypes := []model.SeatType{
		{Type: "NORMAL", PriceModifier: 1},
		{Type: "VIP", PriceModifier: 1.2},
		{Type: "COUPLE", PriceModifier: 2},
	}
	for _, st := range seatTypes {
		if err := db.Where(model.SeatType{Type: st.Type}).FirstOrCreate(&st).Error; err != nil {
			log.Println("failed to seed seat type:", st.Type, "error:", err)
		}
	}

	movies := []model.Movie{
		{Title: "Mai", DurationMinutes: 131, Status: "SHOWING"},
		{Title: "Đào, Phở và Piano", DurationMinutes: 100, Status: "SHOWING"},
	}
	for _, m := range movies {
		m.Slug = slug.Make(m.Title)
		if err := db.Where(model.Movie{Slug: m.Slug}).FirstOrCreate(&m).Error; err != nil {
			log.Println("failed to seed movie:", m.Title, "error:", err)
		}
	}

	// Phòng mẫu 5x8, hàng E là ghế VIP
	var room model.Room
	if err := db.Where(model.Room{Name: "Phòng 1"}).
		Attrs(model.Room{RowCount: 5, ColCount: 8}).
		FirstOrCreate(&room).Error; err != nil {
		log.Println("failed to seed room:", err)
		return
	}

	var seatCount int64
	db.Model(&model.Seat{}).Where("room_id = ?", room.ID).Count(&seatCount)
	if seatCount == 0 {
		var normal, vip model.SeatType
		db.Where(model.SeatType{Type: "NORMAL"}).First(&normal)
		db.Where(model.SeatType{Type: "VIP"}).First(&vip)

		var seats []model.Seat
		for r := 0; r < room.RowCount; r++ {
			row := string(rune('A' + r))
			typeId := normal.ID
			if row == "E" {
				typeId = vip.ID
			}
			for c := 1; c <= room.ColCount; c++ {
				seats = append(seats, model.Seat{
					Row:        row,
					Column:     c,
					RoomId:     room.ID,
					SeatTypeId: typeId,
				})
			}
		}
		if err := db.Create(&seats).Error; err != nil {
			log.Println("failed to seed seats:", err)
		}
	}

	promotions := []model.Promotion{
		{
			Code:          "SAVE10",
			Name:          "Giảm 10%",
			DiscountType:  model.DiscountPercentage,
			DiscountValue: 10,
			StartDate:     parseDate("2026-01-01"),
			EndDate:       parseDate("2026-12-31"),
			MinTickets:    2,
			ApplicableTo:  model.PromoScopeAll,
			Status:        "active",
		},
		{
			Code:          "GIAM50K",
			Name:          "Giảm 50.000đ",
			DiscountType:  model.DiscountFixed,
			DiscountValue: 50000,
			StartDate:     parseDate("2026-01-01"),
			EndDate:       parseDate("2026-12-31"),
			MinPurchase:   200000,
			ApplicableTo:  model.PromoScopeAll,
			Status:        "active",
		},
	}
	for _, p := range promotions {
		if err := db.Where(model.Promotion{Code: p.Code}).FirstOrCreate(&p).Error; err != nil {
			log.Println("failed to seed promotion:", p.Code, "error:", err)
		}
	}

	fmt.Println("Seed Data Completed")
}
