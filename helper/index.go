package helper

import (
	"cinema_booking/database"
	"cinema_booking/model"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var JwtSecret = []byte(os.Getenv("JWT_SECRET"))

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func GetAccountByUsername(u string) (*model.Account, error) {
	db := database.DB
	var account model.Account
	if err := db.Where(&model.Account{Username: u}).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func ValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func GenerateAccessToken(tokenClaim model.TokenClaim) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	claims := token.Claims.(jwt.MapClaims)
	claims["username"] = tokenClaim.Username
	claims["accountId"] = tokenClaim.AccountId
	claims["role"] = tokenClaim.Role
	claims["exp"] = time.Now().Add(time.Minute * 60).Unix()

	t, err := token.SignedString(JwtSecret)
	return t, err
}

func ParseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Xác thực thuật toán ký là HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return JwtSecret, nil
	})

	return token, err
}

// GetIdentity trả về định danh giữ ghế: USER_<id> nếu đã đăng nhập, ngược lại
// GUEST_<uuid> lấy từ cookie guest_id (tự phát nếu chưa có).
func GetIdentity(c *fiber.Ctx) (heldBy string, customerId *uint) {
	u := c.Locals("user")
	if u != nil {
		if userToken, ok := u.(*jwt.Token); ok && userToken != nil {
			if claims, ok := userToken.Claims.(jwt.MapClaims); ok {
				if aid, ok := claims["accountId"].(float64); ok && aid > 0 {
					id := uint(aid)
					return fmt.Sprintf("USER_%d", id), &id
				}
			}
		}
	}

	guestId := c.Cookies("guest_id")
	if guestId == "" {
		guestId = uuid.New().String()
		c.Cookie(&fiber.Cookie{
			Name:     "guest_id",
			Value:    guestId,
			HTTPOnly: true,
			Expires:  time.Now().Add(24 * time.Hour),
		})
	}
	return "GUEST_" + guestId, nil
}
