package model

import "time"

const (
	DiscountPercentage = "PERCENTAGE"
	DiscountFixed      = "FIXED"
)

const (
	PromoScopeAll     = "ALL"
	PromoScopeMovies  = "MOVIES"
	PromoScopeCombos  = "COMBOS"
	PromoScopeTickets = "TICKETS"
)

type Promotion struct {
	DTO
	Code          string    `gorm:"uniqueIndex;not null;size:32" json:"code"`
	Name          string    `gorm:"not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	DiscountType  string    `gorm:"not null" json:"discountType"` // PERCENTAGE, FIXED
	DiscountValue float64   `gorm:"type:decimal(10,2);not null" json:"discountValue"`
	StartDate     time.Time `gorm:"not null" json:"startDate"`
	EndDate       time.Time `gorm:"not null" json:"endDate"`
	MinTickets    int       `gorm:"default:0" json:"minTickets"`
	MinPurchase   float64   `gorm:"default:0" json:"minPurchase"`
	ApplicableTo  string    `gorm:"default:'ALL'" json:"applicableTo"`       // ALL, MOVIES, COMBOS, TICKETS
	UsageLimit    int       `gorm:"default:0" json:"usageLimit"`             // 0 = không giới hạn
	UsedCount     int       `gorm:"default:0" json:"usedCount"`              // bất biến: UsedCount <= UsageLimit
	Status        string    `gorm:"default:'active';not null" json:"status"` // active, inactive

	Items []PromotionItem `gorm:"foreignKey:PromotionId" json:"items"`
}
type Promotions []Promotion

// PromotionItem khoanh vùng mã theo ApplicableTo (slug phim, mã combo...).
type PromotionItem struct {
	DTO
	PromotionId uint      `gorm:"not null;index" json:"promotionId"`
	ItemValue   string    `gorm:"not null" json:"itemValue"`
	Promotion   Promotion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignKey:PromotionId" json:"-"`
}

// PromotionUsage lưu vết mỗi lần mã được chốt theo booking đã CONFIRMED.
type PromotionUsage struct {
	DTO
	PromotionId     uint      `gorm:"not null;index" json:"promotionId"`
	BookingId       uint      `gorm:"not null;index" json:"bookingId"`
	AppliedAt       time.Time `gorm:"not null" json:"appliedAt"`
	DiscountApplied float64   `gorm:"type:decimal(10,2);not null" json:"discountApplied"`
}

// BookingDraft là ảnh chụp dùng để kiểm tra điều kiện mã. Apply trong lúc
// PENDING chỉ là dry-run, không bao giờ tăng UsedCount.
type BookingDraft struct {
	TotalAmount float64
	TicketCount int
	Items       []string
}

type CreatePromotionInput struct {
	Code          string    `json:"code" validate:"required,min=3,max=32"`
	Name          string    `json:"name" validate:"required"`
	Description   string    `json:"description"`
	DiscountType  string    `json:"discountType" validate:"required,oneof=PERCENTAGE FIXED"`
	DiscountValue float64   `json:"discountValue" validate:"required,gt=0"`
	StartDate     time.Time `json:"startDate" validate:"required"`
	EndDate       time.Time `json:"endDate" validate:"required,gtfield=StartDate"`
	MinTickets    int       `json:"minTickets" validate:"omitempty,gte=0"`
	MinPurchase   float64   `json:"minPurchase" validate:"omitempty,gte=0"`
	ApplicableTo  string    `json:"applicableTo" validate:"omitempty,oneof=ALL MOVIES COMBOS TICKETS"`
	Items         []string  `json:"items" validate:"omitempty,dive,required" copier:"-"`
	UsageLimit    int       `json:"usageLimit" validate:"omitempty,gte=0"`
}
