package handler

import (
	"cinema_booking/model"
	"cinema_booking/service"
	"cinema_booking/utils"

	"github.com/gofiber/fiber/v2"
)

func checkinError(c *fiber.Ctx, err error) error {
	switch err {
	case service.ErrInvalidCode:
		return utils.ErrorResponse(c, 400, "Mã QR không đúng định dạng", err)
	case service.ErrTicketNotFound:
		return utils.ErrorResponse(c, 404, "Không tìm thấy vé", err)
	case service.ErrTicketAlreadyUsed:
		return utils.ErrorResponse(c, 409, "Vé đã được sử dụng", err)
	case service.ErrBookingNotFound:
		return utils.ErrorResponse(c, 404, "Không tìm thấy đơn đặt vé", err)
	default:
		return utils.ErrorResponse(c, 500, "Lỗi hệ thống", err)
	}
}

// ProcessScan nhận payload quét QR từ thiết bị tại cửa soát vé.
func ProcessScan(c *fiber.Ctx) error {
	input := c.Locals("checkInInput").(model.CheckInInput)

	result, err := CheckIn.ProcessScan(c.Context(), input.QRPayload)
	if err != nil {
		return checkinError(c, err)
	}
	return utils.SuccessResponse(c, 200, result)
}

// CheckinSeat check-in một vé theo mã, cho staff nhập tay khi QR hỏng.
func CheckinSeat(c *fiber.Ctx) error {
	ticketCode := c.Params("ticketCode")
	if ticketCode == "" {
		return utils.ErrorResponse(c, 400, "Thiếu mã vé", nil)
	}

	result, err := CheckIn.CheckinSeat(c.Context(), ticketCode)
	if err != nil {
		return checkinError(c, err)
	}
	return utils.SuccessResponse(c, 200, result)
}

// CheckinBooking check-in cả đơn (nhóm khách vào cùng lúc).
func CheckinBooking(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return utils.ErrorResponse(c, 400, "Thiếu mã đơn", nil)
	}

	result, err := CheckIn.CheckinBooking(c.Context(), code)
	if err != nil {
		return checkinError(c, err)
	}
	return utils.SuccessResponse(c, 200, result)
}
