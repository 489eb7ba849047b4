package repository

import (
	"cinema_booking/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// CreateBatch ghi vé theo lô. Ghế đã có vé trong cùng booking bị bỏ qua
// (unique index booking+ghế), nhờ đó phát hành lại không nhân đôi vé.
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&tickets).Error
}

func (r *TicketRepository) FindByCode(ctx context.Context, code string) (*model.Ticket, error) {
	var ticket model.Ticket
	err := r.db.WithContext(ctx).Where("ticket_code = ?", code).First(&ticket).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepository) FindByBooking(ctx context.Context, bookingID uint) ([]model.Ticket, error) {
	var tickets []model.Ticket
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("seat_label ASC").
		Find(&tickets).Error
	return tickets, err
}

// MarkUsed lật vé sang USED đúng một lần, điều kiện status = ISSUED chặn
// hai máy quét cùng lúc.
func (r *TicketRepository) MarkUsed(ctx context.Context, ticketID uint, usedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("id = ? AND status = ?", ticketID, model.TicketIssued).
		Updates(map[string]interface{}{
			"status":  model.TicketUsed,
			"used_at": usedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *TicketRepository) MarkCancelled(ctx context.Context, bookingID uint) error {
	return r.db.WithContext(ctx).
		Model(&model.Ticket{}).
		Where("booking_id = ? AND status = ?", bookingID, model.TicketIssued).
		Update("status", model.TicketCancelled).Error
}
