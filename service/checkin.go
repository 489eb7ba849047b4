package service

import (
	"context"
	"time"

	"cinema_booking/model"
)

// CheckInBookingStore là phần trạng thái booking mà check-in cần ghi lại.
// CheckInStatus là giá trị dẫn xuất (tỉ lệ vé đã dùng) nên update thường,
// không cần CAS, ghi lại bao nhiêu lần cũng ra cùng kết quả.
type CheckInBookingStore interface {
	FindByID(ctx context.Context, id uint) (*model.Booking, error)
	FindByCode(ctx context.Context, code string) (*model.Booking, error)
	UpdateCheckInStatus(ctx context.Context, id uint, status string) error
}

type CheckInService struct {
	tickets   TicketStore
	bookings  CheckInBookingStore
	showtimes ShowtimeStore
}

func NewCheckInService(tickets TicketStore, bookings CheckInBookingStore, showtimes ShowtimeStore) *CheckInService {
	return &CheckInService{tickets: tickets, bookings: bookings, showtimes: showtimes}
}

// ProcessScan nhận payload quét từ thiết bị tại rạp. Vé chuyển ISSUED→USED
// đúng một lần: N máy quét cùng một vé thì đúng một máy nhận kết quả thành
// công, các máy còn lại nhận ErrTicketAlreadyUsed.
func (s *CheckInService) ProcessScan(ctx context.Context, qrPayload string) (*model.CheckInResult, error) {
	code, err := ParseQRPayload(qrPayload)
	if err != nil {
		return nil, err
	}
	return s.CheckinSeat(ctx, code)
}

// CheckinSeat check-in một vé theo mã (biến thể cho staff nhập tay).
func (s *CheckInService) CheckinSeat(ctx context.Context, ticketCode string) (*model.CheckInResult, error) {
	ticket, err := s.tickets.FindByCode(ctx, ticketCode)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if ticket.Status == model.TicketCancelled {
		return nil, ErrInvalidCode
	}

	now := time.Now()
	ok, err := s.tickets.MarkUsed(ctx, ticket.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Thua CAS: một máy quét khác vừa dùng vé này.
		return nil, ErrTicketAlreadyUsed
	}

	bookingStatus, bookingCode, err := s.refreshAggregate(ctx, ticket.BookingId)
	if err != nil {
		return nil, err
	}

	result := &model.CheckInResult{
		TicketCode:    ticket.TicketCode,
		SeatLabel:     ticket.SeatLabel,
		BookingCode:   bookingCode,
		BookingStatus: bookingStatus,
		UsedAt:        now.Format("02/01/2006 15:04"),
	}
	if showtime, err := s.showtimes.FindByID(ctx, ticket.ShowtimeId); err == nil && showtime != nil {
		result.MovieTitle = showtime.Movie.Title
	}
	return result, nil
}

// CheckinBookingResult tóm tắt một lần check-in cả đơn.
type CheckinBookingResult struct {
	BookingCode   string   `json:"bookingCode"`
	CheckedIn     []string `json:"checkedIn"`
	AlreadyUsed   int      `json:"alreadyUsed"`
	BookingStatus string   `json:"bookingStatus"`
}

// CheckinBooking check-in mọi vé chưa dùng của một booking. Từng ghế vẫn
// chuyển trạng thái bằng CAS riêng nên gọi trùng hay chạy song song với
// quét lẻ đều an toàn.
func (s *CheckInService) CheckinBooking(ctx context.Context, bookingCode string) (*CheckinBookingResult, error) {
	booking, err := s.bookings.FindByCode(ctx, bookingCode)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	tickets, err := s.tickets.FindByBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, ErrTicketNotFound
	}

	now := time.Now()
	result := &CheckinBookingResult{BookingCode: booking.PublicCode, CheckedIn: []string{}}
	for _, t := range tickets {
		if t.Status == model.TicketCancelled {
			continue
		}
		ok, err := s.tickets.MarkUsed(ctx, t.ID, now)
		if err != nil {
			return nil, err
		}
		if ok {
			result.CheckedIn = append(result.CheckedIn, t.TicketCode)
		} else {
			result.AlreadyUsed++
		}
	}

	status, _, err := s.refreshAggregate(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	result.BookingStatus = status
	return result, nil
}

// refreshAggregate tính lại trạng thái check-in tổng hợp của booking từ tỉ
// lệ vé đã dùng: 0 → INACTIVE, một phần → PARTIAL, đủ → USED.
func (s *CheckInService) refreshAggregate(ctx context.Context, bookingID uint) (string, string, error) {
	tickets, err := s.tickets.FindByBooking(ctx, bookingID)
	if err != nil {
		return "", "", err
	}
	total, used := 0, 0
	for _, t := range tickets {
		if t.Status == model.TicketCancelled {
			continue
		}
		total++
		if t.Status == model.TicketUsed {
			used++
		}
	}

	status := model.CheckInInactive
	switch {
	case total > 0 && used == total:
		status = model.CheckInUsed
	case used > 0:
		status = model.CheckInPartial
	}

	if err := s.bookings.UpdateCheckInStatus(ctx, bookingID, status); err != nil {
		return "", "", err
	}
	code := ""
	if b, err := s.bookings.FindByID(ctx, bookingID); err == nil && b != nil {
		code = b.PublicCode
	}
	return status, code, nil
}
