package handler

import (
	"cinema_booking/helper"
	"cinema_booking/model"
	"cinema_booking/utils"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetShowtimes danh sách suất chiếu, lọc theo phim và khoảng ngày.
func GetShowtimes(c *fiber.Ctx) error {
	var filter model.FilterShowtimeInput
	if err := c.QueryParser(&filter); err != nil {
		return utils.ErrorResponse(c, 400, "Tham số lọc không hợp lệ", err)
	}

	showtimes, err := Showtimes.List(c.Context(), filter)
	if err != nil {
		return utils.ErrorResponse(c, 500, "Lỗi truy vấn suất chiếu", err)
	}
	return utils.SuccessResponse(c, 200, showtimes)
}

// GetShowtime chi tiết một suất chiếu.
func GetShowtime(c *fiber.Ctx) error {
	id := c.Locals("inputId").(int)
	if id <= 0 {
		return utils.ErrorResponse(c, 404, "Suất chiếu không tồn tại", nil)
	}

	showtime, err := Showtimes.FindByID(c.Context(), uint(id))
	if err != nil {
		return utils.ErrorResponse(c, 500, "Lỗi truy vấn suất chiếu", err)
	}
	if showtime == nil {
		return utils.ErrorResponse(c, 404, "Suất chiếu không tồn tại", nil)
	}
	return utils.SuccessResponse(c, 200, showtime)
}

// CreateShowtime (admin) tạo suất chiếu và nhân bản sơ đồ ghế của phòng.
func CreateShowtime(c *fiber.Ctx) error {
	input := c.Locals("createShowtimeInput").(model.CreateShowtimeInput)

	price := input.Price
	if price <= 0 {
		price = helper.CalculatePrice(input.StartTime, input.Format, input.StartTime)
	}

	showtime := &model.Showtime{
		PublicCode: fmt.Sprintf("ST-%s", strings.ToUpper(uuid.New().String()[:8])),
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Price:      price,
		Status:     "OPEN",
		Format:     input.Format,
		MovieId:    input.MovieId,
		RoomId:     input.RoomId,
	}
	if err := Showtimes.CreateWithSeats(c.Context(), showtime); err != nil {
		return utils.ErrorResponse(c, 500, "Lỗi tạo suất chiếu", err)
	}
	return utils.SuccessResponse(c, 201, showtime)
}
