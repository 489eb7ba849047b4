package validate

import (
	"cinema_booking/constants"
	"cinema_booking/model"
	"cinema_booking/utils"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

func HoldSeats() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.HoldSeatsInput

		// Parse JSON từ request body vào struct
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid input %s", err.Error()),
			})
		}

		// Validate input
		if err := validate.Struct(input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals("holdSeatsInput", input)
		return c.Next()
	}
}

func ReleaseSeats() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.ReleaseSeatsInput

		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid input %s", err.Error()),
			})
		}

		if err := validate.Struct(input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals("releaseSeatsInput", input)
		return c.Next()
	}
}

func CreateBooking() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreateBookingInput

		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid input %s", err.Error()),
			})
		}

		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}

		c.Locals("createBookingInput", input)
		return c.Next()
	}
}

func ApplyPromotion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.ApplyPromotionInput

		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid input %s", err.Error()),
			})
		}

		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}

		c.Locals("applyPromotionInput", input)
		return c.Next()
	}
}

func ConfirmPayment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.ConfirmPaymentInput

		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid input %s", err.Error()),
			})
		}

		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}

		c.Locals("confirmPaymentInput", input)
		return c.Next()
	}
}

func CheckIn() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CheckInInput

		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid input %s", err.Error()),
			})
		}

		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
		}

		c.Locals("checkInInput", input)
		return c.Next()
	}
}
