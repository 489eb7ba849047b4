package handler

import (
	"cinema_booking/helper"
	"cinema_booking/model"
	"cinema_booking/service"
	"cinema_booking/utils"
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TicketUI vé kèm QR dạng data URI để FE hiển thị luôn không cần gọi thêm.
type TicketUI struct {
	TicketCode string  `json:"ticketCode"`
	SeatLabel  string  `json:"seatLabel"`
	Price      float64 `json:"price"`
	Status     string  `json:"status"`
	QRCode     string  `json:"qrCode,omitempty"`
}

func ticketUIOf(tickets []model.Ticket, withQR bool) []TicketUI {
	out := make([]TicketUI, 0, len(tickets))
	for _, t := range tickets {
		ui := TicketUI{
			TicketCode: t.TicketCode,
			SeatLabel:  t.SeatLabel,
			Price:      t.Price,
			Status:     t.Status,
		}
		if withQR && t.Status != model.TicketCancelled {
			if uri, err := utils.QRCodeDataURI(service.QRPayload(t.TicketCode), 256); err == nil {
				ui.QRCode = uri
			}
		}
		out = append(out, ui)
	}
	return out
}

// bookingError map lỗi nghiệp vụ sang mã HTTP thống nhất cho cả nhóm API đặt vé.
func bookingError(c *fiber.Ctx, err error) error {
	switch err {
	case service.ErrBookingNotFound:
		return utils.ErrorResponse(c, 404, "Không tìm thấy đơn đặt vé", err)
	case service.ErrHoldExpired:
		return utils.ErrorResponse(c, 410, "Hết thời gian giữ ghế, vui lòng chọn lại", err)
	case service.ErrSeatUnavailable:
		return utils.ErrorResponse(c, 409, "Ghế đã có người giữ hoặc đã bán", err)
	case service.ErrConcurrentModification:
		return utils.ErrorResponse(c, 409, "Đơn vừa bị thay đổi, vui lòng thử lại", err)
	case service.ErrIllegalTransition:
		return utils.ErrorResponse(c, 422, "Trạng thái đơn không cho phép thao tác này", err)
	case service.ErrPromotionNotFound:
		return utils.ErrorResponse(c, 404, "Mã khuyến mãi không tồn tại", err)
	case service.ErrPromotionIneligible:
		return utils.ErrorResponse(c, 422, "Đơn chưa đủ điều kiện dùng mã này", err)
	case service.ErrPromotionExhausted:
		return utils.ErrorResponse(c, 409, "Mã khuyến mãi đã hết lượt", err)
	default:
		return utils.ErrorResponse(c, 500, "Lỗi hệ thống", err)
	}
}

// CreateBooking tạo đơn PENDING từ hold còn hiệu lực.
func CreateBooking(c *fiber.Ctx) error {
	input := c.Locals("createBookingInput").(model.CreateBookingInput)
	heldBy, customerId := helper.GetIdentity(c)

	booking, err := Bookings.CreateBooking(c.Context(), heldBy, customerId, input.HoldToken, service.Contact{
		Name:  input.CustomerName,
		Phone: input.Phone,
		Email: input.Email,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return utils.SuccessResponse(c, 201, booking)
}

// ApplyPromotion áp mã giảm giá (dry-run) lên đơn PENDING.
func ApplyPromotion(c *fiber.Ctx) error {
	code := c.Params("code")
	input := c.Locals("applyPromotionInput").(model.ApplyPromotionInput)

	booking, err := Bookings.ApplyPromotion(c.Context(), code, strings.ToUpper(input.Code))
	if err != nil {
		return bookingError(c, err)
	}
	return utils.SuccessResponse(c, 200, booking)
}

// ConfirmPayment là webhook cổng thanh toán, idempotent theo paymentRef.
func ConfirmPayment(c *fiber.Ctx) error {
	code := c.Params("code")
	input := c.Locals("confirmPaymentInput").(model.ConfirmPaymentInput)

	booking, tickets, err := Bookings.ConfirmPayment(c.Context(), code, input.PaymentRef)
	if err != nil {
		return bookingError(c, err)
	}

	BroadcastShowtime(booking.ShowtimeID)
	sendConfirmationEmail(booking, tickets)

	return utils.SuccessResponse(c, 200, fiber.Map{
		"booking": booking,
		"tickets": ticketUIOf(tickets, true),
	})
}

// CancelBooking huỷ đơn của khách trước giờ chiếu.
func CancelBooking(c *fiber.Ctx) error {
	code := c.Params("code")

	booking, err := Bookings.Cancel(c.Context(), code)
	if err != nil {
		return bookingError(c, err)
	}

	BroadcastShowtime(booking.ShowtimeID)
	return utils.SuccessResponse(c, 200, booking)
}

// GetBooking chi tiết đơn kèm vé và QR.
func GetBooking(c *fiber.Ctx) error {
	code := c.Params("code")

	booking, err := Bookings.Find(c.Context(), code)
	if err != nil {
		return bookingError(c, err)
	}
	tickets, err := Bookings.Tickets(c.Context(), booking.ID)
	if err != nil {
		return bookingError(c, err)
	}

	return utils.SuccessResponse(c, 200, fiber.Map{
		"booking": booking,
		"tickets": ticketUIOf(tickets, booking.Status == model.BookingConfirmed),
	})
}

func sendConfirmationEmail(booking *model.Booking, tickets []model.Ticket) {
	if booking.Email == "" || len(tickets) == 0 {
		return
	}

	showtime, err := Showtimes.FindByID(context.Background(), booking.ShowtimeID)
	if err != nil || showtime == nil {
		log.Printf("Không load được suất chiếu cho email %s", booking.PublicCode)
		return
	}

	items := make([]utils.TicketEmailItem, 0, len(tickets))
	labels := make([]string, 0, len(tickets))
	for _, t := range tickets {
		labels = append(labels, t.SeatLabel)
		qr, err := utils.GenerateQRCode(service.QRPayload(t.TicketCode), 256)
		if err != nil {
			log.Printf("Lỗi tạo QR cho vé %s: %v", t.TicketCode, err)
			continue
		}
		items = append(items, utils.TicketEmailItem{
			TicketCode: t.TicketCode,
			SeatLabel:  t.SeatLabel,
			QRBytes:    qr,
		})
	}

	utils.SendBookingConfirmationEmail(booking.Email, utils.BookingConfirmationData{
		BookingCode: booking.PublicCode,
		MovieName:   showtime.Movie.Title,
		Showtime:    showtime.StartTime.Format("02/01/2006 15:04"),
		Seats:       strings.Join(labels, ", "),
		FinalAmount: booking.FinalAmount,
		Tickets:     items,
	})
}
