package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"cinema_booking/model"
)

// Các store in-memory cho test, giữ đúng hợp đồng CAS của bản GORM:
// conditional write trên version/status, thắng thua quyết định bằng bool.

type memSeatStore struct {
	mu    sync.Mutex
	seats map[uint]*model.ShowtimeSeat
}

func newMemSeatStore(seats ...model.ShowtimeSeat) *memSeatStore {
	s := &memSeatStore{seats: make(map[uint]*model.ShowtimeSeat)}
	for i := range seats {
		seat := seats[i]
		s.seats[seat.ID] = &seat
	}
	return s
}

func (s *memSeatStore) FindSeats(_ context.Context, showtimeID uint, seatIDs []uint) ([]model.ShowtimeSeat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ShowtimeSeat
	for _, id := range seatIDs {
		for _, seat := range s.seats {
			if seat.ShowtimeId == showtimeID && seat.SeatId == id {
				out = append(out, *seat)
			}
		}
	}
	return out, nil
}

func (s *memSeatStore) FindByToken(_ context.Context, token string) ([]model.ShowtimeSeat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ShowtimeSeat
	for _, seat := range s.seats {
		if seat.HoldToken == token {
			out = append(out, *seat)
		}
	}
	return out, nil
}

func (s *memSeatStore) FindExpired(_ context.Context, now time.Time) ([]model.ShowtimeSeat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ShowtimeSeat
	for _, seat := range s.seats {
		if seat.Status == model.SeatHeld && seat.ExpiredAt != nil && seat.ExpiredAt.Before(now) {
			out = append(out, *seat)
		}
	}
	return out, nil
}

func (s *memSeatStore) CompareAndSet(_ context.Context, id uint, version uint, upd SeatUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[id]
	if !ok || seat.Version != version {
		return false, nil
	}
	seat.Status = upd.Status
	seat.HeldBy = upd.HeldBy
	seat.HoldToken = upd.HoldToken
	seat.ExpiredAt = upd.ExpiredAt
	seat.Version = version + 1
	return true, nil
}

func (s *memSeatStore) get(id uint) model.ShowtimeSeat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.seats[id]
}

type memBookingStore struct {
	mu       sync.Mutex
	nextID   uint
	bookings map[uint]*model.Booking
}

func newMemBookingStore() *memBookingStore {
	return &memBookingStore{nextID: 1, bookings: make(map[uint]*model.Booking)}
}

func (s *memBookingStore) Create(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextID
	s.nextID++
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *memBookingStore) FindByID(_ context.Context, id uint) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *memBookingStore) FindByCode(_ context.Context, code string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.PublicCode == code {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memBookingStore) FindActiveByToken(_ context.Context, token string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.HoldToken == token && !b.Terminal() {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memBookingStore) CompareAndSwap(_ context.Context, id uint, version uint, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Version != version {
		return false, nil
	}
	for k, v := range fields {
		switch k {
		case "status":
			b.Status = v.(string)
		case "payment_ref":
			b.PaymentRef = v.(string)
		case "paid_at":
			b.PaidAt = v.(*time.Time)
		case "cancelled_at":
			b.CancelledAt = v.(*time.Time)
		case "promotion_code":
			b.PromotionCode = v.(string)
		case "discount_amount":
			b.DiscountAmount = v.(float64)
		case "final_amount":
			b.FinalAmount = v.(float64)
		}
	}
	b.Version = version + 1
	return true, nil
}

func (s *memBookingStore) FindExpiredPending(_ context.Context, now time.Time) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.Status == model.BookingPending && b.HoldExpiresAt.Before(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memBookingStore) UpdateCheckInStatus(_ context.Context, id uint, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[id]; ok {
		b.CheckInStatus = status
	}
	return nil
}

type memPromoStore struct {
	mu     sync.Mutex
	promos map[string]*model.Promotion
	usages []model.PromotionUsage
}

func newMemPromoStore(promos ...model.Promotion) *memPromoStore {
	s := &memPromoStore{promos: make(map[string]*model.Promotion)}
	for i := range promos {
		p := promos[i]
		s.promos[p.Code] = &p
	}
	return s
}

func (s *memPromoStore) FindByCode(_ context.Context, code string) (*model.Promotion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[code]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memPromoStore) IncrementUsage(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.promos[code]
	if !ok || p.Status != "active" {
		return false, nil
	}
	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return false, nil
	}
	p.UsedCount++
	return true, nil
}

func (s *memPromoStore) RecordUsage(_ context.Context, usage *model.PromotionUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usages = append(s.usages, *usage)
	return nil
}

type memTicketStore struct {
	mu       sync.Mutex
	nextID   uint
	tickets  map[uint]*model.Ticket
	failNext error // lỗi giả lập cho đúng một lần CreateBatch kế tiếp
}

func newMemTicketStore() *memTicketStore {
	return &memTicketStore{nextID: 1, tickets: make(map[uint]*model.Ticket)}
}

func (s *memTicketStore) CreateBatch(_ context.Context, tickets []model.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	for i := range tickets {
		if s.hasTicketFor(tickets[i].BookingId, tickets[i].ShowtimeSeatId) {
			continue
		}
		tickets[i].ID = s.nextID
		s.nextID++
		cp := tickets[i]
		s.tickets[cp.ID] = &cp
	}
	return nil
}

// hasTicketFor mô phỏng unique index booking+ghế của bản GORM.
func (s *memTicketStore) hasTicketFor(bookingID, seatID uint) bool {
	for _, t := range s.tickets {
		if t.BookingId == bookingID && t.ShowtimeSeatId == seatID {
			return true
		}
	}
	return false
}

func (s *memTicketStore) FindByCode(_ context.Context, code string) (*model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.TicketCode == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memTicketStore) FindByBooking(_ context.Context, bookingID uint) ([]model.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Ticket
	for _, t := range s.tickets {
		if t.BookingId == bookingID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatLabel < out[j].SeatLabel })
	return out, nil
}

func (s *memTicketStore) MarkUsed(_ context.Context, ticketID uint, usedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok || t.Status != model.TicketIssued {
		return false, nil
	}
	t.Status = model.TicketUsed
	t.UsedAt = &usedAt
	return true, nil
}

func (s *memTicketStore) MarkCancelled(_ context.Context, bookingID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.BookingId == bookingID && t.Status == model.TicketIssued {
			t.Status = model.TicketCancelled
		}
	}
	return nil
}

type memShowtimeStore struct {
	mu        sync.Mutex
	showtimes map[uint]*model.Showtime
}

func newMemShowtimeStore(showtimes ...model.Showtime) *memShowtimeStore {
	s := &memShowtimeStore{showtimes: make(map[uint]*model.Showtime)}
	for i := range showtimes {
		st := showtimes[i]
		s.showtimes[st.ID] = &st
	}
	return s
}

func (s *memShowtimeStore) FindByID(_ context.Context, id uint) (*model.Showtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.showtimes[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (s *memShowtimeStore) FindByCode(_ context.Context, code string) (*model.Showtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.showtimes {
		if st.PublicCode == code {
			cp := *st
			return &cp, nil
		}
	}
	return nil, nil
}
