package handler

import (
	"cinema_booking/model"
	"cinema_booking/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
)

// GetPromotions danh sách mã đang hiệu lực cho khách, admin xem tất cả.
func GetPromotions(c *fiber.Ctx) error {
	activeOnly := c.Query("all") == ""

	promos, err := Promotions.List(c.Context(), activeOnly)
	if err != nil {
		return utils.ErrorResponse(c, 500, "Lỗi truy vấn khuyến mãi", err)
	}
	return utils.SuccessResponse(c, 200, promos)
}

// CreatePromotion (admin) tạo mã khuyến mãi mới.
func CreatePromotion(c *fiber.Ctx) error {
	input := c.Locals("createPromotionInput").(model.CreatePromotionInput)

	newPromo := new(model.Promotion)
	copier.Copy(&newPromo, &input)
	newPromo.Code = strings.ToUpper(input.Code)
	newPromo.Status = "active"
	if newPromo.ApplicableTo == "" {
		newPromo.ApplicableTo = model.PromoScopeAll
	}
	for _, item := range input.Items {
		newPromo.Items = append(newPromo.Items, model.PromotionItem{ItemValue: item})
	}

	if err := Promotions.Create(c.Context(), newPromo); err != nil {
		return utils.ErrorResponse(c, 500, "Lỗi tạo khuyến mãi", err)
	}
	return utils.SuccessResponse(c, 201, newPromo)
}
