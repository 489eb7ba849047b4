package handler

import (
	"cinema_booking/database"
	"cinema_booking/helper"
	"cinema_booking/model"
	"cinema_booking/service"
	"cinema_booking/utils"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

var (
	seatConnections = make(map[uint]map[*websocket.Conn]bool)
	seatMutex       sync.Mutex
)

const seatMapCacheTTL = 5 * time.Second

type SeatUI struct {
	Id        uint       `json:"id"`
	Label     string     `json:"label"`
	Status    string     `json:"status"`
	Price     float64    `json:"price"`
	HeldBy    string     `json:"heldBy,omitempty"`
	ExpiredAt *time.Time `json:"expiredAt,omitempty"`
}

func seatMapOf(seats []model.ShowtimeSeat) map[string][]SeatUI {
	result := make(map[string][]SeatUI)
	for _, s := range seats {
		row := s.SeatRow
		result[row] = append(result[row], SeatUI{
			Id:        s.SeatId,
			Label:     s.Label(),
			Status:    s.Status,
			Price:     s.Price,
			HeldBy:    s.HeldBy,
			ExpiredAt: s.ExpiredAt,
		})
	}
	return result
}

// WebSocket handler cho ghế suất chiếu
func SeatWebsocket(c *websocket.Conn) {
	showtimeIdStr := c.Params("showtimeId")
	showtimeId, err := strconv.ParseUint(showtimeIdStr, 10, 64)
	if err != nil {
		log.Printf("Invalid showtimeId: %s", showtimeIdStr)
		c.Close()
		return
	}
	id := uint(showtimeId)

	// Thêm connection vào map
	seatMutex.Lock()
	if seatConnections[id] == nil {
		seatConnections[id] = make(map[*websocket.Conn]bool)
	}
	seatConnections[id][c] = true
	seatMutex.Unlock()

	log.Printf("New WS connection for showtime %d", id)

	defer func() {
		seatMutex.Lock()
		delete(seatConnections[id], c)
		if len(seatConnections[id]) == 0 {
			delete(seatConnections, id)
		}
		seatMutex.Unlock()
		c.Close()
	}()

	// Gửi ngay trạng thái ghế hiện tại cho client mới connect
	BroadcastShowtime(id)

	// Loop để giữ connection
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

// BroadcastShowtime gửi full sơ đồ ghế cho mọi client đang xem suất chiếu và
// xoá cache redis của suất đó.
func BroadcastShowtime(showtimeId uint) {
	ctx := context.Background()
	invalidateSeatCache(ctx, showtimeId)

	seatMutex.Lock()
	conns, ok := seatConnections[showtimeId]
	seatMutex.Unlock()
	if !ok {
		return
	}

	seats, err := Seats.FindByShowtime(ctx, showtimeId)
	if err != nil {
		log.Printf("Error loading seats for broadcast: %v", err)
		return
	}

	result := seatMapOf(seats)
	for conn := range conns {
		if err := conn.WriteJSON(result); err != nil {
			log.Printf("Error broadcasting full state: %v", err)
		}
	}
}

func seatCacheKey(showtimeId uint) string {
	return fmt.Sprintf("seatmap:%d", showtimeId)
}

func invalidateSeatCache(ctx context.Context, showtimeId uint) {
	if database.Redis == nil {
		return
	}
	if err := database.Redis.Del(ctx, seatCacheKey(showtimeId)).Err(); err != nil {
		log.Printf("Lỗi xoá cache sơ đồ ghế %d: %v", showtimeId, err)
	}
}

// GetSeats trả sơ đồ ghế của suất chiếu, cache redis vài giây để đỡ DB khi
// nhiều khách cùng mở màn chọn ghế.
func GetSeats(c *fiber.Ctx) error {
	showtimeId, err := c.ParamsInt("showtimeId")
	if err != nil || showtimeId <= 0 {
		return utils.ErrorResponse(c, 400, "Suất chiếu không hợp lệ", err)
	}
	id := uint(showtimeId)

	if database.Redis != nil {
		if cached, err := database.Redis.Get(c.Context(), seatCacheKey(id)).Result(); err == nil {
			var result map[string][]SeatUI
			if json.Unmarshal([]byte(cached), &result) == nil {
				return utils.SuccessResponse(c, 200, result)
			}
		}
	}

	seats, err := Seats.FindByShowtime(c.Context(), id)
	if err != nil {
		return utils.ErrorResponse(c, 500, "Lỗi truy vấn ghế", err)
	}
	result := seatMapOf(seats)

	if database.Redis != nil {
		if raw, err := json.Marshal(result); err == nil {
			database.Redis.Set(c.Context(), seatCacheKey(id), raw, seatMapCacheTTL)
		}
	}

	return utils.SuccessResponse(c, 200, result)
}

// HoldSeats giữ nhóm ghế all-or-nothing cho khách (đăng nhập hoặc guest).
func HoldSeats(c *fiber.Ctx) error {
	showtimeId, err := c.ParamsInt("showtimeId")
	if err != nil || showtimeId <= 0 {
		return utils.ErrorResponse(c, 400, "Suất chiếu không hợp lệ", err)
	}
	input := c.Locals("holdSeatsInput").(model.HoldSeatsInput)
	heldBy, _ := helper.GetIdentity(c)

	hold, err := Inventory.AcquireHold(c.Context(), uint(showtimeId), input.SeatIds, heldBy)
	if err == service.ErrSeatUnavailable {
		return utils.ErrorResponse(c, 409, "Ghế đã có người giữ hoặc đã bán", err)
	}
	if err != nil {
		return utils.ErrorResponse(c, 500, "Lỗi giữ ghế", err)
	}

	BroadcastShowtime(uint(showtimeId))
	return utils.SuccessResponse(c, 200, hold)
}

// ReleaseSeats nhả hold theo token, gọi trùng vô hại.
func ReleaseSeats(c *fiber.Ctx) error {
	showtimeId, err := c.ParamsInt("showtimeId")
	if err != nil || showtimeId <= 0 {
		return utils.ErrorResponse(c, 400, "Suất chiếu không hợp lệ", err)
	}
	input := c.Locals("releaseSeatsInput").(model.ReleaseSeatsInput)

	if err := Inventory.ReleaseHold(c.Context(), input.HoldToken); err != nil {
		return utils.ErrorResponse(c, 500, "Lỗi nhả ghế", err)
	}

	BroadcastShowtime(uint(showtimeId))
	return utils.SuccessResponse(c, 200, fiber.Map{"released": true})
}
