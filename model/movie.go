package model

type Movie struct {
	DTO
	Title           string `gorm:"not null" validate:"required" json:"title"`
	Slug            string `gorm:"uniqueIndex;size:120" json:"slug"`
	DurationMinutes int    `json:"durationMinutes"`
	Status          string `gorm:"default:'SHOWING'" json:"status"` // SHOWING, UPCOMING, ENDED

	Showtimes []Showtime `gorm:"foreignKey:MovieId" json:"-"`
}
