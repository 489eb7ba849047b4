package repository

import (
	"cinema_booking/model"
	"cinema_booking/service"
	"context"
	"time"

	"gorm.io/gorm"
)

// SeatRepository thao tác bảng showtime_seats.
type SeatRepository struct {
	db *gorm.DB
}

func NewSeatRepository(db *gorm.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

func (r *SeatRepository) FindSeats(ctx context.Context, showtimeID uint, seatIDs []uint) ([]model.ShowtimeSeat, error) {
	var seats []model.ShowtimeSeat
	err := r.db.WithContext(ctx).
		Where("showtime_id = ? AND seat_id IN ?", showtimeID, seatIDs).
		Find(&seats).Error
	return seats, err
}

func (r *SeatRepository) FindByToken(ctx context.Context, token string) ([]model.ShowtimeSeat, error) {
	var seats []model.ShowtimeSeat
	err := r.db.WithContext(ctx).
		Where("hold_token = ?", token).
		Find(&seats).Error
	return seats, err
}

func (r *SeatRepository) FindExpired(ctx context.Context, now time.Time) ([]model.ShowtimeSeat, error) {
	var seats []model.ShowtimeSeat
	err := r.db.WithContext(ctx).
		Where("status = ? AND expired_at IS NOT NULL AND expired_at < ?", model.SeatHeld, now).
		Limit(500).
		Find(&seats).Error
	return seats, err
}

// CompareAndSet cập nhật ghế có điều kiện version. RowsAffected = 0 nghĩa là
// version đã đổi (ai đó nhanh tay hơn), caller tự xử lý.
func (r *SeatRepository) CompareAndSet(ctx context.Context, id uint, version uint, upd service.SeatUpdate) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ShowtimeSeat{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"status":     upd.Status,
			"held_by":    upd.HeldBy,
			"hold_token": upd.HoldToken,
			"expired_at": upd.ExpiredAt,
			"version":    version + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindByShowtime trả toàn bộ sơ đồ ghế của suất chiếu, cho API seat map.
func (r *SeatRepository) FindByShowtime(ctx context.Context, showtimeID uint) ([]model.ShowtimeSeat, error) {
	var seats []model.ShowtimeSeat
	err := r.db.WithContext(ctx).
		Where("showtime_id = ?", showtimeID).
		Order("seat_row ASC, seat_number ASC").
		Find(&seats).Error
	return seats, err
}
