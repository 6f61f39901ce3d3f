package valueobject

import (
	"math"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const earthRadiusKm = 6371.0

// DefaultRadiusKm используется, когда радиус поиска не указан.
const DefaultRadiusKm = 50.0

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// NewCoordinates проверяет, что обе координаты заданы вместе и в допустимых пределах.
func NewCoordinates(lat, lng *float64) (*Coordinates, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	var errs apperror.FieldErrors
	if lat == nil {
		errs.Add("latitude", "широта обязательна вместе с долготой")
	} else if *lat < -90 || *lat > 90 {
		errs.Add("latitude", "широта должна быть от -90 до 90")
	}
	if lng == nil {
		errs.Add("longitude", "долгота обязательна вместе с широтой")
	} else if *lng < -180 || *lng > 180 {
		errs.Add("longitude", "долгота должна быть от -180 до 180")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return &Coordinates{Latitude: *lat, Longitude: *lng}, nil
}

// DistanceKm считает расстояние по большому кругу (формула гаверсинусов).
func (c Coordinates) DistanceKm(other Coordinates) float64 {
	lat1 := c.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (other.Longitude - c.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
	TimeSlotEvening   TimeSlot = "evening"
)

func (t TimeSlot) IsValid() bool {
	switch t {
	case TimeSlotMorning, TimeSlotAfternoon, TimeSlotEvening:
		return true
	}
	return false
}

// HourRange возвращает границы слота в часах [from, to).
func (t TimeSlot) HourRange() (from, to int) {
	switch t {
	case TimeSlotMorning:
		return 6, 12
	case TimeSlotAfternoon:
		return 12, 18
	case TimeSlotEvening:
		return 18, 24
	}
	return 0, 24
}

// Contains проверяет, попадает ли час начала в слот.
func (t TimeSlot) Contains(hour int) bool {
	from, to := t.HourRange()
	return hour >= from && hour < to
}
