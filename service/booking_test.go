package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cinema_booking/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	seats     *memSeatStore
	bookings  *memBookingStore
	promos    *memPromoStore
	tickets   *memTicketStore
	showtimes *memShowtimeStore
	inv       *SeatInventory
	orch      *BookingOrchestrator
}

func newFixture(t *testing.T, promos ...model.Promotion) *fixture {
	t.Helper()
	seats := newMemSeatStore(makeSeats(1, 4)...)
	bookings := newMemBookingStore()
	promoStore := newMemPromoStore(promos...)
	tickets := newMemTicketStore()
	showtimes := newMemShowtimeStore(model.Showtime{
		DTO:        model.DTO{ID: 1},
		PublicCode: "ST-TEST",
		StartTime:  time.Now().Add(2 * time.Hour),
		Movie:      model.Movie{Title: "Mai", Slug: "mai"},
	})

	inv := NewSeatInventory(seats, time.Minute)
	orch := NewBookingOrchestrator(
		bookings, showtimes, inv,
		NewPromotionEngine(promoStore),
		NewTicketIssuer(tickets),
	)
	return &fixture{seats: seats, bookings: bookings, promos: promoStore, tickets: tickets, showtimes: showtimes, inv: inv, orch: orch}
}

func (f *fixture) pendingBooking(t *testing.T, seatIDs ...uint) *model.Booking {
	t.Helper()
	ctx := context.Background()
	hold, err := f.inv.AcquireHold(ctx, 1, seatIDs, "USER_1")
	require.NoError(t, err)
	b, err := f.orch.CreateBooking(ctx, "USER_1", nil, hold.Token, Contact{Name: "Khach", Email: "khach@test.vn"})
	require.NoError(t, err)
	return b
}

func TestCreateBookingFromHold(t *testing.T) {
	f := newFixture(t)
	b := f.pendingBooking(t, 1, 2)

	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, float64(200000), b.TotalAmount)
	assert.Equal(t, b.TotalAmount, b.FinalAmount)
	assert.Contains(t, b.PublicCode, "BKG-")
}

func TestCreateBookingWrongIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hold, err := f.inv.AcquireHold(ctx, 1, []uint{1}, "USER_1")
	require.NoError(t, err)

	_, err = f.orch.CreateBooking(ctx, "USER_2", nil, hold.Token, Contact{})
	assert.ErrorIs(t, err, ErrHoldExpired)
}

func TestConfirmPaymentIssuesTicketsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pendingBooking(t, 1, 2)

	confirmed, tickets, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-123")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.Status)
	assert.Equal(t, "PAY-123", confirmed.PaymentRef)
	require.Len(t, tickets, 2)
	assert.Equal(t, model.SeatBooked, f.seats.get(1).Status)

	// Webhook gửi lại cùng ref: trả đúng bộ vé cũ, không phát hành thêm
	again, ticketsAgain, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-123")
	require.NoError(t, err)
	assert.Equal(t, confirmed.ID, again.ID)
	assert.Len(t, ticketsAgain, 2)

	all, _ := f.tickets.FindByBooking(ctx, b.ID)
	assert.Len(t, all, 2)
}

func TestConfirmPaymentDifferentRefRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pendingBooking(t, 1)

	_, _, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-1")
	require.NoError(t, err)

	_, _, err = f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-2")
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestConfirmPaymentConcurrentWebhooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pendingBooking(t, 1, 2)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-X")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	all, _ := f.tickets.FindByBooking(ctx, b.ID)
	assert.Len(t, all, 2, "mỗi ghế đúng một vé dù webhook dội n lần")
}

func TestConfirmExpiredHoldFailsBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pendingBooking(t, 1)

	// Hold bị sweep trước khi thanh toán về
	require.NoError(t, f.inv.ReleaseHold(ctx, b.HoldToken))

	_, _, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-LATE")
	assert.ErrorIs(t, err, ErrHoldExpired)

	cur, _ := f.bookings.FindByID(ctx, b.ID)
	assert.Equal(t, model.BookingFailed, cur.Status)
}

func TestApplyPromotionDryRun(t *testing.T) {
	f := newFixture(t, model.Promotion{
		DTO: model.DTO{ID: 1}, Code: "SAVE10", DiscountType: model.DiscountPercentage,
		DiscountValue: 10, Status: "active",
		StartDate: time.Now().Add(-time.Hour), EndDate: time.Now().Add(time.Hour),
		MinTickets: 2, ApplicableTo: model.PromoScopeAll,
	})
	ctx := context.Background()
	b := f.pendingBooking(t, 1, 2, 3)

	updated, err := f.orch.ApplyPromotion(ctx, b.PublicCode, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, float64(300000), updated.TotalAmount)
	assert.Equal(t, float64(30000), updated.DiscountAmount)
	assert.Equal(t, float64(270000), updated.FinalAmount)

	// Dry-run không chạm UsedCount
	promo, _ := f.promos.FindByCode(ctx, "SAVE10")
	assert.Equal(t, 0, promo.UsedCount)
}

func TestPromotionRedeemedOnlyAtConfirm(t *testing.T) {
	f := newFixture(t, model.Promotion{
		DTO: model.DTO{ID: 1}, Code: "SAVE10", DiscountType: model.DiscountPercentage,
		DiscountValue: 10, Status: "active",
		StartDate: time.Now().Add(-time.Hour), EndDate: time.Now().Add(time.Hour),
		ApplicableTo: model.PromoScopeAll,
	})
	ctx := context.Background()
	b := f.pendingBooking(t, 1, 2)

	_, err := f.orch.ApplyPromotion(ctx, b.PublicCode, "SAVE10")
	require.NoError(t, err)

	confirmed, _, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, float64(180000), confirmed.FinalAmount)

	promo, _ := f.promos.FindByCode(ctx, "SAVE10")
	assert.Equal(t, 1, promo.UsedCount)
	assert.Len(t, f.promos.usages, 1)
}

func TestExhaustedPromotionConfirmsWithoutDiscount(t *testing.T) {
	f := newFixture(t, model.Promotion{
		DTO: model.DTO{ID: 1}, Code: "LAST1", DiscountType: model.DiscountFixed,
		DiscountValue: 50000, Status: "active",
		StartDate: time.Now().Add(-time.Hour), EndDate: time.Now().Add(time.Hour),
		ApplicableTo: model.PromoScopeAll, UsageLimit: 1, UsedCount: 0,
	})
	ctx := context.Background()
	b := f.pendingBooking(t, 1, 2)

	_, err := f.orch.ApplyPromotion(ctx, b.PublicCode, "LAST1")
	require.NoError(t, err)

	// Một booking khác nẫng lượt cuối giữa apply và confirm
	ok, err := f.promos.IncrementUsage(ctx, "LAST1")
	require.NoError(t, err)
	require.True(t, ok)

	confirmed, tickets, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.Status)
	assert.Len(t, tickets, 2)

	// Đơn chốt không giảm giá, không vượt trần lượt dùng
	cur, _ := f.bookings.FindByID(ctx, b.ID)
	assert.Equal(t, float64(0), cur.DiscountAmount)
	assert.Equal(t, cur.TotalAmount, cur.FinalAmount)
	promo, _ := f.promos.FindByCode(ctx, "LAST1")
	assert.Equal(t, 1, promo.UsedCount)
}

func TestCancelPendingReleasesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pendingBooking(t, 1, 2)

	cancelled, err := f.orch.Cancel(ctx, b.PublicCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.Equal(t, model.SeatAvailable, f.seats.get(1).Status)
	assert.Equal(t, model.SeatAvailable, f.seats.get(2).Status)
}

func TestCancelConfirmedRefunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pendingBooking(t, 1)
	_, _, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-1")
	require.NoError(t, err)

	refunded, err := f.orch.Cancel(ctx, b.PublicCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingRefunded, refunded.Status)
	assert.Equal(t, model.SeatAvailable, f.seats.get(1).Status)

	tickets, _ := f.tickets.FindByBooking(ctx, b.ID)
	for _, tk := range tickets {
		assert.Equal(t, model.TicketCancelled, tk.Status)
	}
}

func TestCancelAfterShowtimeStartRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pendingBooking(t, 1)

	f.showtimes.mu.Lock()
	f.showtimes.showtimes[1].StartTime = time.Now().Add(-time.Minute)
	f.showtimes.mu.Unlock()

	_, err := f.orch.Cancel(ctx, b.PublicCode)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestFailOrExpire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pendingBooking(t, 1)

	require.NoError(t, f.orch.FailOrExpire(ctx, b.PublicCode, "payment_failed"))
	// FAILED rồi thì gọi lại là no-op
	require.NoError(t, f.orch.FailOrExpire(ctx, b.PublicCode, "payment_failed"))

	cur, _ := f.bookings.FindByID(ctx, b.ID)
	assert.Equal(t, model.BookingFailed, cur.Status)
	assert.Equal(t, model.SeatAvailable, f.seats.get(1).Status)

	// Trạng thái cuối khác thì bị từ chối
	b2 := f.pendingBooking(t, 2)
	_, err := f.orch.Cancel(ctx, b2.PublicCode)
	require.NoError(t, err)
	assert.ErrorIs(t, f.orch.FailOrExpire(ctx, b2.PublicCode, "x"), ErrIllegalTransition)
}

func TestSweepExpiredFailsPendingBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pendingBooking(t, 1)

	// Kéo hạn giữ ghế về quá khứ
	f.bookings.mu.Lock()
	f.bookings.bookings[b.ID].HoldExpiresAt = time.Now().Add(-time.Second)
	f.bookings.mu.Unlock()

	n, err := f.orch.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cur, _ := f.bookings.FindByID(ctx, b.ID)
	assert.Equal(t, model.BookingFailed, cur.Status)
}

func TestBookingNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Find(context.Background(), "BKG-KHONGCO")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCreateBookingSingleBookingPerHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hold, err := f.inv.AcquireHold(ctx, 1, []uint{1}, "USER_1")
	require.NoError(t, err)

	b1, err := f.orch.CreateBooking(ctx, "USER_1", nil, hold.Token, Contact{Name: "Khach"})
	require.NoError(t, err)

	// POST lại với cùng token trả về đúng booking cũ, không tạo bản sao
	b2, err := f.orch.CreateBooking(ctx, "USER_1", nil, hold.Token, Contact{Name: "Khach"})
	require.NoError(t, err)
	assert.Equal(t, b1.ID, b2.ID)
	assert.Len(t, f.bookings.bookings, 1)

	// Token đã gắn với booking của người khác thì không nhận
	_, err = f.orch.CreateBooking(ctx, "USER_2", nil, hold.Token, Contact{})
	assert.ErrorIs(t, err, ErrHoldExpired)

	// Hai webhook khác ref trên cùng hold: chỉ ref đầu chốt được,
	// mỗi ghế vật lý đúng một vé
	_, tickets, err := f.orch.ConfirmPayment(ctx, b1.PublicCode, "PAY-A")
	require.NoError(t, err)
	require.Len(t, tickets, 1)

	_, _, err = f.orch.ConfirmPayment(ctx, b2.PublicCode, "PAY-B")
	assert.ErrorIs(t, err, ErrIllegalTransition)

	all, _ := f.tickets.FindByBooking(ctx, b1.ID)
	assert.Len(t, all, 1)
}

// bumpOnConfirmStore giả lập một ApplyPromotion chen ngang: bump version của
// booking ngay trước lần CAS chốt trạng thái đầu tiên.
type bumpOnConfirmStore struct {
	*memBookingStore
	once sync.Once
}

func (s *bumpOnConfirmStore) CompareAndSwap(ctx context.Context, id uint, version uint, fields map[string]any) (bool, error) {
	if _, isConfirm := fields["status"]; isConfirm {
		s.once.Do(func() {
			s.memBookingStore.CompareAndSwap(ctx, id, version, map[string]any{
				"promotion_code":  "SAVE10",
				"discount_amount": float64(10000),
				"final_amount":    float64(90000),
			})
		})
	}
	return s.memBookingStore.CompareAndSwap(ctx, id, version, fields)
}

func TestConfirmRetriesAfterPromotionVersionBump(t *testing.T) {
	ctx := context.Background()
	seats := newMemSeatStore(makeSeats(1, 2)...)
	bookings := &bumpOnConfirmStore{memBookingStore: newMemBookingStore()}
	promoStore := newMemPromoStore(activePromo("SAVE10"))
	tickets := newMemTicketStore()
	showtimes := newMemShowtimeStore(model.Showtime{
		DTO:        model.DTO{ID: 1},
		PublicCode: "ST-TEST",
		StartTime:  time.Now().Add(2 * time.Hour),
		Movie:      model.Movie{Title: "Mai", Slug: "mai"},
	})
	inv := NewSeatInventory(seats, time.Minute)
	orch := NewBookingOrchestrator(bookings, showtimes, inv,
		NewPromotionEngine(promoStore), NewTicketIssuer(tickets))

	hold, err := inv.AcquireHold(ctx, 1, []uint{1}, "USER_1")
	require.NoError(t, err)
	b, err := orch.CreateBooking(ctx, "USER_1", nil, hold.Token, Contact{})
	require.NoError(t, err)

	// Lần CAS đầu thua vì version vừa bị bump; confirm phải thử lại trên
	// bản mới thay vì bỏ rơi ghế đã BOOKED trong một booking PENDING
	confirmed, issued, err := orch.ConfirmPayment(ctx, b.PublicCode, "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.Status)
	require.Len(t, issued, 1)
	assert.Equal(t, model.SeatBooked, seats.get(1).Status)

	// Mã chen ngang vẫn được chốt đúng trên đường retry
	assert.Equal(t, float64(90000), confirmed.FinalAmount)
	promo, _ := promoStore.FindByCode(ctx, "SAVE10")
	assert.Equal(t, 1, promo.UsedCount)
}

func TestConfirmRetryRepairsMissingTickets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.pendingBooking(t, 1, 2)

	f.tickets.mu.Lock()
	f.tickets.failNext = errors.New("ticket store down")
	f.tickets.mu.Unlock()

	_, _, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-9")
	require.Error(t, err)

	// Người thắng chết sau CAS: booking CONFIRMED nhưng chưa có vé
	cur, _ := f.bookings.FindByID(ctx, b.ID)
	require.Equal(t, model.BookingConfirmed, cur.Status)
	none, _ := f.tickets.FindByBooking(ctx, b.ID)
	require.Empty(t, none)

	// Retry cùng ref phát hành lại trọn bộ vé
	confirmed, issued, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-9")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.Status)
	require.Len(t, issued, 2)

	// Retry tiếp theo trả đúng bộ vé cũ, không nhân đôi
	_, again, err := f.orch.ConfirmPayment(ctx, b.PublicCode, "PAY-9")
	require.NoError(t, err)
	assert.Len(t, again, 2)
	all, _ := f.tickets.FindByBooking(ctx, b.ID)
	assert.Len(t, all, 2)
}
