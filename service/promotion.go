package service

import (
	"context"
	"log"
	"time"

	"cinema_booking/model"
)

// PromotionStore là mặt cắt lưu trữ của PromotionEngine. IncrementUsage
// phải là một lệnh điều kiện nguyên tử (used_count + 1 khi còn dưới trần)
// nên hai booking tranh lượt cuối thì đúng một bên tăng được.
type PromotionStore interface {
	FindByCode(ctx context.Context, code string) (*model.Promotion, error)
	IncrementUsage(ctx context.Context, code string) (bool, error)
	RecordUsage(ctx context.Context, usage *model.PromotionUsage) error
}

type PromotionEngine struct {
	promos PromotionStore
}

func NewPromotionEngine(promos PromotionStore) *PromotionEngine {
	return &PromotionEngine{promos: promos}
}

// Validate kiểm tra điều kiện mã theo thứ tự cố định, lỗi đầu tiên thắng,
// và trả về số tiền giảm. Đây là dry-run: không bao giờ chạm UsedCount.
func (e *PromotionEngine) Validate(ctx context.Context, code string, draft model.BookingDraft) (float64, error) {
	promo, err := e.promos.FindByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if promo == nil {
		return 0, ErrPromotionNotFound
	}

	now := time.Now()
	if promo.Status != "active" || now.Before(promo.StartDate) || now.After(promo.EndDate) {
		return 0, ErrPromotionIneligible
	}
	if draft.TicketCount < promo.MinTickets {
		return 0, ErrPromotionIneligible
	}
	if promo.MinPurchase > 0 && draft.TotalAmount < promo.MinPurchase {
		return 0, ErrPromotionIneligible
	}
	if promo.ApplicableTo != model.PromoScopeAll && !intersects(draft.Items, promo.Items) {
		return 0, ErrPromotionIneligible
	}
	if promo.UsageLimit > 0 && promo.UsedCount >= promo.UsageLimit {
		return 0, ErrPromotionExhausted
	}

	return Discount(promo, draft.TotalAmount), nil
}

// Redeem chốt một lượt dùng mã cho booking vừa CONFIRMED. Trả về false khi
// mã đã cạn, caller quyết định chốt đơn không giảm giá.
func (e *PromotionEngine) Redeem(ctx context.Context, code string, bookingID uint, discount float64) (bool, error) {
	ok, err := e.promos.IncrementUsage(ctx, code)
	if err != nil || !ok {
		return false, err
	}
	promo, err := e.promos.FindByCode(ctx, code)
	if err == nil && promo != nil {
		usage := &model.PromotionUsage{
			PromotionId:     promo.ID,
			BookingId:       bookingID,
			AppliedAt:       time.Now(),
			DiscountApplied: discount,
		}
		if err := e.promos.RecordUsage(ctx, usage); err != nil {
			log.Printf("Lỗi ghi promotion usage %s: %v", code, err)
		}
	}
	return true, nil
}

// Discount tính tiền giảm, luôn kẹp trong [0, total].
func Discount(promo *model.Promotion, total float64) float64 {
	var d float64
	switch promo.DiscountType {
	case model.DiscountPercentage:
		d = total * promo.DiscountValue / 100
	case model.DiscountFixed:
		d = promo.DiscountValue
	}
	if d > total {
		d = total
	}
	if d < 0 {
		d = 0
	}
	return d
}

func intersects(items []string, scoped []model.PromotionItem) bool {
	if len(scoped) == 0 {
		return false
	}
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	for _, s := range scoped {
		if set[s.ItemValue] {
			return true
		}
	}
	return false
}
