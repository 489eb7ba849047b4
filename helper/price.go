package helper

import "time"

func CalculatePrice(startTime time.Time, format string, date time.Time) float64 {
	hour := startTime.Hour()
	basePrice := 50000.0

	// Định dạng
	switch format {
	case "IMAX":
		basePrice += 20000
	case "4DX":
		basePrice += 10000
	case "3D":
		basePrice += 5000
	}

	// Giờ vàng (18h-22h)
	if hour >= 18 && hour < 22 {
		basePrice += 10000
	}

	// Cuối tuần
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		basePrice += 10000
	}

	return basePrice
}
