package service

import (
	"context"
	"sort"
	"time"

	"cinema_booking/model"

	"github.com/google/uuid"
)

const DefaultHoldTTL = 15 * time.Minute

// SeatUpdate là phần ghi của một lần compare-and-set trên ShowtimeSeat.
type SeatUpdate struct {
	Status    string
	HeldBy    string
	HoldToken string
	ExpiredAt *time.Time
}

// SeatStore là mặt cắt lưu trữ mà SeatInventory cần. CompareAndSet chỉ ghi
// khi (id, version) còn khớp và phải tăng version trong cùng một lệnh,
// đây là primitive độc quyền duy nhất của kho ghế.
type SeatStore interface {
	FindSeats(ctx context.Context, showtimeID uint, seatIDs []uint) ([]model.ShowtimeSeat, error)
	FindByToken(ctx context.Context, token string) ([]model.ShowtimeSeat, error)
	FindExpired(ctx context.Context, now time.Time) ([]model.ShowtimeSeat, error)
	CompareAndSet(ctx context.Context, id uint, version uint, upd SeatUpdate) (bool, error)
}

// Hold là kết quả giữ ghế trả cho client: token + hạn giữ.
type Hold struct {
	Token      string    `json:"holdToken"`
	ShowtimeID uint      `json:"showtimeId"`
	SeatIDs    []uint    `json:"seatIds"`
	HeldBy     string    `json:"heldBy"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

type SeatInventory struct {
	seats SeatStore
	ttl   time.Duration
}

func NewSeatInventory(seats SeatStore, ttl time.Duration) *SeatInventory {
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	return &SeatInventory{seats: seats, ttl: ttl}
}

func (s *SeatInventory) TTL() time.Duration { return s.ttl }

// AcquireHold giữ toàn bộ ghế yêu cầu hoặc không giữ ghế nào. Từng ghế được
// CAS từ AVAILABLE (hoặc HELD đã quá hạn, expiry lười) sang HELD; thua CAS
// ở bất kỳ ghế nào thì nhả lại các ghế đã lấy và trả ErrSeatUnavailable.
func (s *SeatInventory) AcquireHold(ctx context.Context, showtimeID uint, seatIDs []uint, heldBy string) (*Hold, error) {
	seatIDs = dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return nil, ErrSeatUnavailable
	}

	seats, err := s.seats.FindSeats(ctx, showtimeID, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(seats) != len(seatIDs) {
		return nil, ErrSeatUnavailable
	}
	// Giành ghế theo thứ tự id cố định để hai hold giao nhau không thể
	// mỗi bên chiếm một nửa rồi cùng rollback.
	sort.Slice(seats, func(i, j int) bool { return seats[i].ID < seats[j].ID })

	now := time.Now()
	expiresAt := now.Add(s.ttl)
	token := uuid.New().String()

	var taken []model.ShowtimeSeat
	for _, seat := range seats {
		if !claimable(&seat, now) {
			s.rollbackHold(ctx, taken)
			return nil, ErrSeatUnavailable
		}
		ok, err := s.seats.CompareAndSet(ctx, seat.ID, seat.Version, SeatUpdate{
			Status:    model.SeatHeld,
			HeldBy:    heldBy,
			HoldToken: token,
			ExpiredAt: &expiresAt,
		})
		if err != nil {
			s.rollbackHold(ctx, taken)
			return nil, err
		}
		if !ok {
			// Một acquirer khác thắng ghế này trước.
			s.rollbackHold(ctx, taken)
			return nil, ErrSeatUnavailable
		}
		seat.Version++
		taken = append(taken, seat)
	}

	return &Hold{
		Token:      token,
		ShowtimeID: showtimeID,
		SeatIDs:    seatIDs,
		HeldBy:     heldBy,
		ExpiresAt:  expiresAt,
	}, nil
}

// ReleaseHold nhả mọi ghế còn HELD theo token. Idempotent: token đã nhả,
// đã hết hạn hay không tồn tại đều là no-op.
func (s *SeatInventory) ReleaseHold(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	seats, err := s.seats.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	for _, seat := range seats {
		if seat.Status != model.SeatHeld {
			continue
		}
		// Thua CAS nghĩa là ghế vừa bị sweep hoặc promote, bỏ qua.
		if _, err := s.seats.CompareAndSet(ctx, seat.ID, seat.Version, releasedUpdate()); err != nil {
			return err
		}
	}
	return nil
}

// HeldSeats trả về các ghế đang HELD, chưa quá hạn, thuộc token.
func (s *SeatInventory) HeldSeats(ctx context.Context, token string) ([]model.ShowtimeSeat, error) {
	seats, err := s.seats.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	held := make([]model.ShowtimeSeat, 0, len(seats))
	for _, seat := range seats {
		if seat.Status == model.SeatHeld && seat.ExpiredAt != nil && seat.ExpiredAt.After(now) {
			held = append(held, seat)
		}
	}
	return held, nil
}

// PromoteToBooked chuyển mọi ghế của một hold còn hiệu lực sang BOOKED.
// Ghế đã BOOKED với đúng token được coi là promote rồi (an toàn khi retry).
// Mất bất kỳ ghế nào thì hoàn tác các ghế vừa promote và trả ErrHoldExpired.
func (s *SeatInventory) PromoteToBooked(ctx context.Context, token string) ([]model.ShowtimeSeat, error) {
	seats, err := s.seats.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, ErrHoldExpired
	}

	now := time.Now()
	var promoted []model.ShowtimeSeat
	result := make([]model.ShowtimeSeat, 0, len(seats))
	for _, seat := range seats {
		if seat.Status == model.SeatBooked {
			result = append(result, seat)
			continue
		}
		if seat.Status != model.SeatHeld || seat.ExpiredAt == nil || !seat.ExpiredAt.After(now) {
			s.rollbackBooked(ctx, promoted)
			return nil, ErrHoldExpired
		}
		ok, err := s.seats.CompareAndSet(ctx, seat.ID, seat.Version, SeatUpdate{
			Status:    model.SeatBooked,
			HeldBy:    seat.HeldBy,
			HoldToken: token,
		})
		if err != nil {
			s.rollbackBooked(ctx, promoted)
			return nil, err
		}
		if !ok {
			// Thua CAS: một confirm song song cùng token có thể vừa
			// promote ghế này. Đọc lại trước khi kết luận hết hạn.
			if fresh, ferr := s.rereadBooked(ctx, token, seat.ID); ferr == nil && fresh != nil {
				result = append(result, *fresh)
				continue
			}
			s.rollbackBooked(ctx, promoted)
			return nil, ErrHoldExpired
		}
		seat.Version++
		seat.Status = model.SeatBooked
		seat.ExpiredAt = nil
		promoted = append(promoted, seat)
		result = append(result, seat)
	}
	return result, nil
}

// BookedSeats trả về các ghế đã BOOKED thuộc token.
func (s *SeatInventory) BookedSeats(ctx context.Context, token string) ([]model.ShowtimeSeat, error) {
	seats, err := s.seats.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	booked := make([]model.ShowtimeSeat, 0, len(seats))
	for _, seat := range seats {
		if seat.Status == model.SeatBooked {
			booked = append(booked, seat)
		}
	}
	return booked, nil
}

// FreeBookedSeats trả ghế BOOKED của token về AVAILABLE (đường hoàn tiền).
func (s *SeatInventory) FreeBookedSeats(ctx context.Context, token string) error {
	seats, err := s.seats.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	for _, seat := range seats {
		if seat.Status != model.SeatBooked {
			continue
		}
		if _, err := s.seats.CompareAndSet(ctx, seat.ID, seat.Version, releasedUpdate()); err != nil {
			return err
		}
	}
	return nil
}

// Sweep nhả mọi hold đã quá hạn và trả về id các suất chiếu bị ảnh hưởng
// để tầng trên broadcast lại sơ đồ ghế.
func (s *SeatInventory) Sweep(ctx context.Context) ([]uint, error) {
	expired, err := s.seats.FindExpired(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	affected := map[uint]bool{}
	for _, seat := range expired {
		ok, err := s.seats.CompareAndSet(ctx, seat.ID, seat.Version, releasedUpdate())
		if err != nil {
			return nil, err
		}
		if ok {
			affected[seat.ShowtimeId] = true
		}
	}
	ids := make([]uint, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *SeatInventory) rereadBooked(ctx context.Context, token string, seatID uint) (*model.ShowtimeSeat, error) {
	seats, err := s.seats.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	for i := range seats {
		if seats[i].ID == seatID && seats[i].Status == model.SeatBooked {
			return &seats[i], nil
		}
	}
	return nil, nil
}

func (s *SeatInventory) rollbackHold(ctx context.Context, taken []model.ShowtimeSeat) {
	for _, seat := range taken {
		s.seats.CompareAndSet(ctx, seat.ID, seat.Version, releasedUpdate())
	}
}

func (s *SeatInventory) rollbackBooked(ctx context.Context, promoted []model.ShowtimeSeat) {
	for _, seat := range promoted {
		s.seats.CompareAndSet(ctx, seat.ID, seat.Version, releasedUpdate())
	}
}

func releasedUpdate() SeatUpdate {
	return SeatUpdate{Status: model.SeatAvailable}
}

func claimable(seat *model.ShowtimeSeat, now time.Time) bool {
	switch seat.Status {
	case model.SeatAvailable:
		return true
	case model.SeatHeld:
		return seat.ExpiredAt != nil && !seat.ExpiredAt.After(now)
	}
	return false
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
