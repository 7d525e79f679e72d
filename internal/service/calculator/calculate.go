package ridecalc

import (
	"math"

	"github.com/Temutjin2k/ride-realtime/internal/domain/models"
)

const (
	averageSpeedKmh = 30   // средняя скорость в городе
	earthRadiusKm   = 6371 // радиус Земли в км

	baseFare  = 2.50
	ratePerKm = 1.50
)

// Calculator: чистые функции от координат: расстояние, стоимость, время в пути
type Calculator interface {
	Distance(p1, p2 models.Location) float64
	Duration(distanceKm float64) int
	Fare(pickup, dropoff models.Location) float64
	ETA(from, to models.Location) int
}

type CalculatorImpl struct{}

func New() *CalculatorImpl {
	return &CalculatorImpl{}
}

// вычисление расстояния между двумя координатами по формуле гаверсинусов, в километрах
func (c *CalculatorImpl) Distance(p1, p2 models.Location) float64 {
	// градусы в радианы
	lat1Rad := p1.Latitude * math.Pi / 180
	lon1Rad := p1.Longitude * math.Pi / 180
	lat2Rad := p2.Latitude * math.Pi / 180
	lon2Rad := p2.Longitude * math.Pi / 180

	diffLat := lat2Rad - lat1Rad
	diffLon := lon2Rad - lon1Rad

	a := math.Pow(math.Sin(diffLat/2), 2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(diffLon/2), 2)
	angle := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * angle
}

// примерное время в минутах, округление вверх
func (c *CalculatorImpl) Duration(distanceKm float64) int {
	if distanceKm <= 0 {
		return 0
	}
	durationMinutes := (distanceKm / averageSpeedKmh) * 60
	return int(math.Ceil(durationMinutes))
}

// Fare = base + rate * km, rounded to cents
func (c *CalculatorImpl) Fare(pickup, dropoff models.Location) float64 {
	fare := baseFare + c.Distance(pickup, dropoff)*ratePerKm
	return math.Round(fare*100) / 100
}

// ETA returns minutes needed to get from one point to another
func (c *CalculatorImpl) ETA(from, to models.Location) int {
	return c.Duration(c.Distance(from, to))
}
