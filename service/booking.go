package service

import (
	"context"
	"log"
	"time"

	"cinema_booking/model"
)

// BookingStore là mặt cắt lưu trữ của orchestrator. CompareAndSwap chỉ ghi
// khi (id, version) còn khớp và tăng version; mismatch trả false, không
// bao giờ ghi đè im lặng.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	FindByID(ctx context.Context, id uint) (*model.Booking, error)
	FindByCode(ctx context.Context, code string) (*model.Booking, error)
	FindActiveByToken(ctx context.Context, token string) (*model.Booking, error)
	CompareAndSwap(ctx context.Context, id uint, version uint, fields map[string]any) (bool, error)
	FindExpiredPending(ctx context.Context, now time.Time) ([]model.Booking, error)
}

type ShowtimeStore interface {
	FindByID(ctx context.Context, id uint) (*model.Showtime, error)
	FindByCode(ctx context.Context, code string) (*model.Showtime, error)
}

type Contact struct {
	Name  string
	Phone string
	Email string
}

// BookingOrchestrator sở hữu máy trạng thái booking:
//
//	PENDING --payment_confirmed--> CONFIRMED
//	PENDING --payment_failed | hold_expired--> FAILED
//	PENDING --user_cancel--> CANCELLED
//	CONFIRMED --refund_approved--> REFUNDED
//
// Mọi chuyển trạng thái ngoài bảng trên bị từ chối bằng ErrIllegalTransition.
type BookingOrchestrator struct {
	bookings  BookingStore
	showtimes ShowtimeStore
	inventory *SeatInventory
	promos    *PromotionEngine
	issuer    *TicketIssuer
}

func NewBookingOrchestrator(
	bookings BookingStore,
	showtimes ShowtimeStore,
	inventory *SeatInventory,
	promos *PromotionEngine,
	issuer *TicketIssuer,
) *BookingOrchestrator {
	return &BookingOrchestrator{
		bookings:  bookings,
		showtimes: showtimes,
		inventory: inventory,
		promos:    promos,
		issuer:    issuer,
	}
}

// CreateBooking chuyển một hold còn hiệu lực thành booking PENDING. Hold
// phải thuộc đúng danh tính gọi; tổng tiền tính từ snapshot giá trên ghế.
func (o *BookingOrchestrator) CreateBooking(ctx context.Context, heldBy string, customerID *uint, holdToken string, contact Contact) (*model.Booking, error) {
	// Một hold chỉ sinh được một booking sống. Gọi lại với cùng token trả
	// về booking cũ thay vì tạo bản sao tranh cùng bộ ghế với chính nó.
	if existing, err := o.bookings.FindActiveByToken(ctx, holdToken); err != nil {
		return nil, err
	} else if existing != nil {
		if existing.HeldBy != heldBy {
			return nil, ErrHoldExpired
		}
		return existing, nil
	}

	seats, err := o.inventory.HeldSeats(ctx, holdToken)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, ErrHoldExpired
	}

	var total float64
	expiresAt := *seats[0].ExpiredAt
	for _, seat := range seats {
		if seat.HeldBy != heldBy {
			return nil, ErrHoldExpired
		}
		total += seat.Price
		if seat.ExpiredAt.Before(expiresAt) {
			expiresAt = *seat.ExpiredAt
		}
	}

	booking := &model.Booking{
		PublicCode:    newBookingCode(),
		CustomerID:    customerID,
		HeldBy:        heldBy,
		ShowtimeID:    seats[0].ShowtimeId,
		HoldToken:     holdToken,
		HoldExpiresAt: expiresAt,
		TotalAmount:   total,
		FinalAmount:   total,
		Status:        model.BookingPending,
		CheckInStatus: model.CheckInInactive,
		CustomerName:  contact.Name,
		Phone:         contact.Phone,
		Email:         contact.Email,
	}
	if err := o.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// ApplyPromotion chạy dry-run mã giảm giá trên booking PENDING và ghi kết
// quả giá bằng CAS trên version. UsedCount không bị chạm ở bước này.
func (o *BookingOrchestrator) ApplyPromotion(ctx context.Context, bookingCode, promoCode string) (*model.Booking, error) {
	b, err := o.find(ctx, bookingCode)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingPending {
		return nil, ErrIllegalTransition
	}
	if expired, err := o.failIfHoldExpired(ctx, b); err != nil {
		return nil, err
	} else if expired {
		return nil, ErrHoldExpired
	}

	draft, err := o.draftOf(ctx, b)
	if err != nil {
		return nil, err
	}
	discount, err := o.promos.Validate(ctx, promoCode, draft)
	if err != nil {
		return nil, err
	}

	final := b.TotalAmount - discount
	if final < 0 {
		final = 0
	}
	ok, err := o.bookings.CompareAndSwap(ctx, b.ID, b.Version, map[string]any{
		"promotion_code":  promoCode,
		"discount_amount": discount,
		"final_amount":    final,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConcurrentModification
	}
	return o.bookings.FindByID(ctx, b.ID)
}

// ConfirmPayment là điểm vào của webhook thanh toán, idempotent theo
// paymentRef: gọi lại với cùng ref trả về đúng bộ vé đã phát hành, không
// tạo thêm hiệu ứng phụ. Người thắng CAS PENDING→CONFIRMED là người duy
// nhất chốt mã khuyến mãi; phát hành vé idempotent theo booking+ghế nên
// retry cùng ref còn vá được lần phát hành dở dang.
func (o *BookingOrchestrator) ConfirmPayment(ctx context.Context, bookingCode, paymentRef string) (*model.Booking, []model.Ticket, error) {
	b, err := o.find(ctx, bookingCode)
	if err != nil {
		return nil, nil, err
	}

	switch b.Status {
	case model.BookingConfirmed:
		if b.PaymentRef == paymentRef {
			tickets, err := o.confirmedTickets(ctx, b)
			if err != nil {
				return nil, nil, err
			}
			return b, tickets, nil
		}
		return nil, nil, ErrIllegalTransition
	case model.BookingPending:
		// tiếp tục bên dưới
	default:
		return nil, nil, ErrIllegalTransition
	}

	// Giữ chỗ đã hết hạn → FAILED, báo caller cho khách chọn lại ghế.
	seats, err := o.inventory.PromoteToBooked(ctx, b.HoldToken)
	if err == ErrHoldExpired {
		o.failExpired(ctx, b, "hold_expired")
		return nil, nil, ErrHoldExpired
	}
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	for {
		ok, err := o.bookings.CompareAndSwap(ctx, b.ID, b.Version, map[string]any{
			"status":      model.BookingConfirmed,
			"payment_ref": paymentRef,
			"paid_at":     &now,
		})
		if err != nil {
			return nil, nil, err
		}
		if ok {
			break
		}
		// Thua CAS: webhook trùng, cancel đồng thời, hoặc chỉ một
		// ApplyPromotion vừa bump version.
		cur, err := o.bookings.FindByID(ctx, b.ID)
		if err != nil {
			return nil, nil, err
		}
		switch cur.Status {
		case model.BookingConfirmed:
			if cur.PaymentRef == paymentRef {
				tickets, err := o.confirmedTickets(ctx, cur)
				if err != nil {
					return nil, nil, err
				}
				return cur, tickets, nil
			}
			return nil, nil, ErrIllegalTransition
		case model.BookingPending:
			// Chỉ version đổi, trạng thái chưa chốt: thử lại trên bản
			// mới thay vì bỏ rơi ghế đã promote ở trạng thái BOOKED.
			b = cur
		case model.BookingCancelled, model.BookingFailed:
			// Cancel thắng trước webhook: trả ghế vừa promote về kho.
			if err := o.inventory.FreeBookedSeats(ctx, b.HoldToken); err != nil {
				log.Printf("Lỗi trả ghế cho booking %s: %v", b.PublicCode, err)
			}
			return nil, nil, ErrIllegalTransition
		default:
			return nil, nil, ErrIllegalTransition
		}
	}

	// Từ đây chỉ đúng một luồng (người thắng CAS) đi qua.
	if b.PromotionCode != "" {
		redeemed, err := o.promos.Redeem(ctx, b.PromotionCode, b.ID, b.DiscountAmount)
		if err != nil {
			return nil, nil, err
		}
		if !redeemed {
			// Mã cạn lượt giữa chừng: chốt đơn không giảm giá.
			o.clearDiscount(ctx, b.ID)
		}
	}

	confirmed, err := o.bookings.FindByID(ctx, b.ID)
	if err != nil {
		return nil, nil, err
	}
	tickets, err := o.issuer.Issue(ctx, confirmed, seats)
	if err != nil {
		return nil, nil, err
	}
	return confirmed, tickets, nil
}

// FailOrExpire chuyển booking PENDING sang FAILED và nhả các ghế còn giữ.
// Booking đã FAILED là no-op; các trạng thái khác bị từ chối.
func (o *BookingOrchestrator) FailOrExpire(ctx context.Context, bookingCode, reason string) error {
	b, err := o.find(ctx, bookingCode)
	if err != nil {
		return err
	}
	if b.Status == model.BookingFailed {
		return nil
	}
	if b.Status != model.BookingPending {
		return ErrIllegalTransition
	}
	return o.failExpired(ctx, b, reason)
}

// Cancel xử lý huỷ của khách: PENDING→CANCELLED nhả hold, CONFIRMED→REFUNDED
// trả ghế về kho và huỷ vé. Chỉ hợp lệ trước giờ chiếu.
func (o *BookingOrchestrator) Cancel(ctx context.Context, bookingCode string) (*model.Booking, error) {
	b, err := o.find(ctx, bookingCode)
	if err != nil {
		return nil, err
	}

	showtime, err := o.showtimes.FindByID(ctx, b.ShowtimeID)
	if err != nil {
		return nil, err
	}
	if showtime != nil && !showtime.StartTime.After(time.Now()) {
		return nil, ErrIllegalTransition
	}

	now := time.Now()
	switch b.Status {
	case model.BookingPending:
		ok, err := o.bookings.CompareAndSwap(ctx, b.ID, b.Version, map[string]any{
			"status":       model.BookingCancelled,
			"cancelled_at": &now,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrConcurrentModification
		}
		if err := o.inventory.ReleaseHold(ctx, b.HoldToken); err != nil {
			log.Printf("Lỗi nhả ghế booking %s: %v", b.PublicCode, err)
		}
	case model.BookingConfirmed:
		ok, err := o.bookings.CompareAndSwap(ctx, b.ID, b.Version, map[string]any{
			"status":       model.BookingRefunded,
			"cancelled_at": &now,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrConcurrentModification
		}
		if err := o.inventory.FreeBookedSeats(ctx, b.HoldToken); err != nil {
			log.Printf("Lỗi trả ghế booking %s: %v", b.PublicCode, err)
		}
		if err := o.issuer.tickets.MarkCancelled(ctx, b.ID); err != nil {
			log.Printf("Lỗi huỷ vé booking %s: %v", b.PublicCode, err)
		}
	default:
		return nil, ErrIllegalTransition
	}

	return o.bookings.FindByID(ctx, b.ID)
}

// SweepExpired chuyển các booking PENDING đã quá hạn giữ ghế sang FAILED.
// Chạy định kỳ cùng sweep của SeatInventory.
func (o *BookingOrchestrator) SweepExpired(ctx context.Context) (int, error) {
	expired, err := o.bookings.FindExpiredPending(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range expired {
		if err := o.failExpired(ctx, &expired[i], "hold_expired"); err == nil {
			n++
		}
	}
	return n, nil
}

func (o *BookingOrchestrator) Find(ctx context.Context, bookingCode string) (*model.Booking, error) {
	return o.find(ctx, bookingCode)
}

func (o *BookingOrchestrator) Tickets(ctx context.Context, bookingID uint) ([]model.Ticket, error) {
	return o.issuer.tickets.FindByBooking(ctx, bookingID)
}

func (o *BookingOrchestrator) find(ctx context.Context, bookingCode string) (*model.Booking, error) {
	b, err := o.bookings.FindByCode(ctx, bookingCode)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

// failIfHoldExpired áp expiry lười: thao tác nào chạm booking PENDING quá
// hạn đều chuyển nó sang FAILED ngay.
func (o *BookingOrchestrator) failIfHoldExpired(ctx context.Context, b *model.Booking) (bool, error) {
	if time.Now().Before(b.HoldExpiresAt) {
		return false, nil
	}
	if err := o.failExpired(ctx, b, "hold_expired"); err != nil {
		return true, err
	}
	return true, nil
}

func (o *BookingOrchestrator) failExpired(ctx context.Context, b *model.Booking, reason string) error {
	ok, err := o.bookings.CompareAndSwap(ctx, b.ID, b.Version, map[string]any{
		"status": model.BookingFailed,
	})
	if err != nil {
		return err
	}
	if ok {
		log.Printf("Booking %s -> FAILED (%s)", b.PublicCode, reason)
	}
	// Nhả hold kể cả khi thua CAS vì ReleaseHold idempotent.
	return o.inventory.ReleaseHold(ctx, b.HoldToken)
}

// confirmedTickets trả bộ vé của booking đã CONFIRMED. Nếu người thắng CAS
// trước đó chết giữa chừng (chưa kịp phát hành vé) thì lần retry idempotent
// kế tiếp phát hành lại tại đây, ghế vẫn đang BOOKED theo token.
func (o *BookingOrchestrator) confirmedTickets(ctx context.Context, b *model.Booking) ([]model.Ticket, error) {
	tickets, err := o.issuer.tickets.FindByBooking(ctx, b.ID)
	if err != nil || len(tickets) > 0 {
		return tickets, err
	}
	seats, err := o.inventory.BookedSeats(ctx, b.HoldToken)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, nil
	}
	log.Printf("Booking %s CONFIRMED nhưng chưa có vé, phát hành lại", b.PublicCode)
	return o.issuer.Issue(ctx, b, seats)
}

func (o *BookingOrchestrator) clearDiscount(ctx context.Context, bookingID uint) {
	cur, err := o.bookings.FindByID(ctx, bookingID)
	if err != nil || cur == nil {
		return
	}
	if _, err := o.bookings.CompareAndSwap(ctx, cur.ID, cur.Version, map[string]any{
		"discount_amount": float64(0),
		"final_amount":    cur.TotalAmount,
		"promotion_code":  "",
	}); err != nil {
		log.Printf("Lỗi gỡ giảm giá booking %d: %v", bookingID, err)
	}
}

// draftOf chụp lại booking PENDING để PromotionEngine kiểm tra điều kiện.
func (o *BookingOrchestrator) draftOf(ctx context.Context, b *model.Booking) (model.BookingDraft, error) {
	seats, err := o.inventory.HeldSeats(ctx, b.HoldToken)
	if err != nil {
		return model.BookingDraft{}, err
	}
	items := []string{}
	if showtime, err := o.showtimes.FindByID(ctx, b.ShowtimeID); err == nil && showtime != nil {
		if showtime.Movie.Slug != "" {
			items = append(items, showtime.Movie.Slug)
		}
	}
	return model.BookingDraft{
		TotalAmount: b.TotalAmount,
		TicketCount: len(seats),
		Items:       items,
	}, nil
}
