package ontario

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingURL_Defaults(t *testing.T) {
	w := testWindow(t)

	got := Booking{}.URL(-2147483408, -2147483407, w)
	u, err := url.Parse(got)
	require.NoError(t, err)

	assert.Equal(t, "reservations.ontarioparks.com", u.Host)
	assert.Equal(t, "/create-booking/results", u.Path)
	q := u.Query()
	assert.Equal(t, "-2147483408", q.Get("mapId"))
	assert.Equal(t, "-2147483407", q.Get("resourceLocationId"))
	assert.Equal(t, "2024-06-07", q.Get("startDate"))
	assert.Equal(t, "2024-06-09", q.Get("endDate"))
	assert.Equal(t, "2", q.Get("nights"))
	assert.Equal(t, "3", q.Get("partySize"))
	assert.Equal(t, "0", q.Get("searchTabGroupId"))
	assert.Empty(t, q.Get("searchTime"))

	assert.Equal(t, got, Booking{}.URL(-2147483408, -2147483407, w), "same inputs give the same link")
}

func TestBookingBuilder(t *testing.T) {
	w := testWindow(t)
	build := Booking{BaseURL: "https://example.test/results", PartySize: 5}.Builder()

	u, err := url.Parse(build(101, w))
	require.NoError(t, err)
	assert.Equal(t, "example.test", u.Host)
	assert.Equal(t, "101", u.Query().Get("mapId"))
	assert.Equal(t, "101", u.Query().Get("resourceLocationId"))
	assert.Equal(t, "5", u.Query().Get("partySize"))
	assert.NotEqual(t, build(101, w), build(102, w))
}
