package repository

import (
	"cinema_booking/model"
	"cinema_booking/utils"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type ShowtimeRepository struct {
	db *gorm.DB
}

func NewShowtimeRepository(db *gorm.DB) *ShowtimeRepository {
	return &ShowtimeRepository{db: db}
}

func (r *ShowtimeRepository) FindByID(ctx context.Context, id uint) (*model.Showtime, error) {
	var showtime model.Showtime
	err := r.db.WithContext(ctx).Preload("Movie").Preload("Room").First(&showtime, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &showtime, nil
}

func (r *ShowtimeRepository) FindByCode(ctx context.Context, code string) (*model.Showtime, error) {
	var showtime model.Showtime
	err := r.db.WithContext(ctx).Preload("Movie").Preload("Room").
		Where("public_code = ?", code).First(&showtime).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &showtime, nil
}

func (r *ShowtimeRepository) List(ctx context.Context, filter model.FilterShowtimeInput) ([]model.Showtime, error) {
	var showtimes []model.Showtime
	q := r.db.WithContext(ctx).Preload("Movie").Preload("Room")
	if filter.MovieId != 0 {
		q = q.Where("movie_id = ?", filter.MovieId)
	}
	if filter.StartDate != "" {
		if t, err := time.Parse("2006-01-02", filter.StartDate); err == nil {
			q = q.Where("start_time >= ?", t)
		}
	}
	if filter.EndDate != "" {
		if t, err := time.Parse("2006-01-02", filter.EndDate); err == nil {
			q = q.Where("start_time < ?", t.AddDate(0, 0, 1))
		}
	}
	q = utils.ApplyPagination(q.Order("start_time ASC"), filter.Limit, filter.Page)
	err := q.Find(&showtimes).Error
	return showtimes, err
}

// CreateWithSeats tạo suất chiếu và nhân bản sơ đồ ghế của phòng thành
// showtime_seats trong cùng transaction, giá snapshot theo loại ghế.
func (r *ShowtimeRepository) CreateWithSeats(ctx context.Context, showtime *model.Showtime) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(showtime).Error; err != nil {
			return err
		}

		var seats []model.Seat
		if err := tx.Preload("SeatType").
			Where("room_id = ?", showtime.RoomId).
			Find(&seats).Error; err != nil {
			return err
		}
		if len(seats) == 0 {
			return errors.New("Room has no seats")
		}

		var showtimeSeats []model.ShowtimeSeat
		for _, seat := range seats {
			showtimeSeats = append(showtimeSeats, model.ShowtimeSeat{
				ShowtimeId: showtime.ID,
				SeatId:     seat.ID,
				SeatRow:    seat.Row,
				SeatNumber: seat.Column,
				SeatTypeId: seat.SeatTypeId,
				Price:      showtime.Price * seat.SeatType.PriceModifier,
				Status:     model.SeatAvailable,
				HeldBy:     "",
				ExpiredAt:  nil,
			})
		}

		// Insert hàng loạt
		return tx.Create(&showtimeSeats).Error
	})
}
