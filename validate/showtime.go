package validate

import (
	"cinema_booking/constants"
	"cinema_booking/database"
	"cinema_booking/model"
	"cinema_booking/utils"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

func CreateShowtime() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreateShowtimeInput

		// Parse JSON từ request body vào struct
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid input %s", err.Error()),
			})
		}

		// Validate input
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}

		// Kiểm tra phim và phòng tồn tại
		var movie model.Movie
		if err := database.DB.First(&movie, input.MovieId).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Phim không tồn tại", err)
		}
		var room model.Room
		if err := database.DB.First(&room, input.RoomId).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Phòng chiếu không tồn tại", err)
		}

		c.Locals("createShowtimeInput", input)
		return c.Next()
	}
}

func CreatePromotion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreatePromotionInput

		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid input %s", err.Error()),
			})
		}

		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}

		if input.DiscountType == model.DiscountPercentage && input.DiscountValue > 100 {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Phần trăm giảm tối đa 100", nil)
		}

		c.Locals("createPromotionInput", input)
		return c.Next()
	}
}

func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.LoginInput

		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid input %s", err.Error()),
			})
		}

		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}

		c.Locals("loginInput", input)
		return c.Next()
	}
}
