package ontario

import (
	"net/url"
	"strconv"

	"github.com/example/campwatch/internal/availability"
	"github.com/example/campwatch/internal/dates"
)

const DefaultBookingURL = "https://reservations.ontarioparks.com/create-booking/results"

// Booking builds links to the public booking results page.
type Booking struct {
	BaseURL   string
	PartySize int
}

// URL returns the results page for a map and resource location over w. The
// link depends on its inputs only.
func (b Booking) URL(mapID, resourceLocationID int64, w dates.Window) string {
	base := b.BaseURL
	if base == "" {
		base = DefaultBookingURL
	}
	party := b.PartySize
	if party <= 0 {
		party = DefaultPartySize
	}

	q := url.Values{}
	q.Set("searchTabGroupId", "0")
	q.Set("mapId", strconv.FormatInt(mapID, 10))
	q.Set("bookingCategoryId", "0")
	q.Set("startDate", w.StartDate())
	q.Set("endDate", w.EndDate())
	q.Set("nights", strconv.Itoa(w.Nights()))
	q.Set("isReserving", "true")
	q.Set("equipmentId", strconv.Itoa(EquipmentAny))
	q.Set("subEquipmentId", strconv.Itoa(SingleTent))
	q.Set("partySize", strconv.Itoa(party))
	q.Set("resourceLocationId", strconv.FormatInt(resourceLocationID, 10))
	return base + "?" + q.Encode()
}

// Builder links a campground through its own map id for both parameters.
func (b Booking) Builder() availability.URLBuilder {
	return func(campgroundID int64, w dates.Window) string {
		return b.URL(campgroundID, campgroundID, w)
	}
}

