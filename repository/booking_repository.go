package repository

import (
	"cinema_booking/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *BookingRepository) FindByID(ctx context.Context, id uint) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).Preload("Tickets").First(&booking, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) FindByCode(ctx context.Context, code string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).Preload("Tickets").
		Where("public_code = ?", code).First(&booking).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// FindActiveByToken tìm booking chưa kết thúc đang tham chiếu một hold token.
// Mỗi token chỉ được phép có một booking như vậy (unique index trên cột).
func (r *BookingRepository) FindActiveByToken(ctx context.Context, token string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Where("hold_token = ? AND status NOT IN ?", token,
			[]string{model.BookingFailed, model.BookingCancelled, model.BookingRefunded}).
		First(&booking).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// CompareAndSwap đổi trạng thái booking kèm kiểm tra version, version tăng
// ngay trong cùng câu UPDATE nên không cần transaction riêng.
func (r *BookingRepository) CompareAndSwap(ctx context.Context, id uint, version uint, fields map[string]interface{}) (bool, error) {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = version + 1

	res := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *BookingRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND hold_expires_at < ?", model.BookingPending, now).
		Limit(200).
		Find(&bookings).Error
	return bookings, err
}

// UpdateCheckInStatus ghi trạng thái check-in tổng hợp. Giá trị suy ra từ vé
// nên ghi đè thẳng, không cần version.
func (r *BookingRepository) UpdateCheckInStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", id).
		Update("check_in_status", status).Error
}

// FindByCustomer cho màn hình lịch sử đặt vé.
func (r *BookingRepository) FindByCustomer(ctx context.Context, customerID uint) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).Preload("Tickets").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}
