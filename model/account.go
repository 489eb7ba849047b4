package model

type Account struct {
	DTO
	Username string `gorm:"uniqueIndex;not null" validate:"required" json:"username"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"default:'STAFF'" json:"role"` // ADMIN, STAFF
	Active   bool   `gorm:"default:true" json:"active"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
