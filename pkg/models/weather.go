package models

// Weather is one forecast period from the weather feed.
type Weather struct {
	Forecast      string
	Temperature   int
	WindSpeed     string
	WindDirection string
}
