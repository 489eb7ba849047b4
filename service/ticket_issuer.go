package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cinema_booking/model"

	"github.com/google/uuid"
)

const qrPrefix = "TICKET-"

// TicketStore là mặt cắt lưu trữ cho vé. MarkUsed là compare-and-set
// ISSUED → USED; trả về false khi vé không còn ở ISSUED.
type TicketStore interface {
	CreateBatch(ctx context.Context, tickets []model.Ticket) error
	FindByCode(ctx context.Context, code string) (*model.Ticket, error)
	FindByBooking(ctx context.Context, bookingID uint) ([]model.Ticket, error)
	MarkUsed(ctx context.Context, ticketID uint, usedAt time.Time) (bool, error)
	MarkCancelled(ctx context.Context, bookingID uint) error
}

type TicketIssuer struct {
	tickets TicketStore
}

func NewTicketIssuer(tickets TicketStore) *TicketIssuer {
	return &TicketIssuer{tickets: tickets}
}

// Issue phát hành một vé cho mỗi ghế của booking vừa CONFIRMED. Mã vé dẫn
// xuất từ uuid nên không đoán được từ mã booking. Idempotent theo cặp
// booking+ghế: ghế đã có vé thì CreateBatch bỏ qua, trả về bộ vé đọc lại
// từ store nên hai luồng phát hành đua nhau vẫn hội tụ về một bộ.
func (t *TicketIssuer) Issue(ctx context.Context, booking *model.Booking, seats []model.ShowtimeSeat) ([]model.Ticket, error) {
	now := time.Now()
	tickets := make([]model.Ticket, 0, len(seats))
	for _, seat := range seats {
		tickets = append(tickets, model.Ticket{
			TicketCode:     "TKT-" + strings.ToUpper(uuid.New().String()[:10]),
			Status:         model.TicketIssued,
			Price:          seat.Price,
			SeatLabel:      seat.Label(),
			IssuedAt:       now,
			BookingId:      booking.ID,
			ShowtimeSeatId: seat.ID,
			ShowtimeId:     seat.ShowtimeId,
			SeatId:         seat.SeatId,
		})
	}
	if err := t.tickets.CreateBatch(ctx, tickets); err != nil {
		return nil, err
	}
	return t.tickets.FindByBooking(ctx, booking.ID)
}

// QRPayload là nội dung nhúng vào mã QR của vé.
func QRPayload(ticketCode string) string {
	return qrPrefix + ticketCode
}

// ParseQRPayload tách mã vé từ payload quét được; sai dạng trả ErrInvalidCode.
func ParseQRPayload(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, qrPrefix) {
		return "", ErrInvalidCode
	}
	code := strings.TrimPrefix(payload, qrPrefix)
	if code == "" {
		return "", ErrInvalidCode
	}
	return code, nil
}

func newBookingCode() string {
	return fmt.Sprintf("BKG-%s", strings.ToUpper(uuid.New().String()[:8]))
}
