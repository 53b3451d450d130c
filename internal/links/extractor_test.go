package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "empty",
			in:   "",
			want: []string{},
		},
		{
			name: "no links",
			in:   "Stories and songs for toddlers. Free!",
			want: []string{},
		},
		{
			name: "call to action",
			in:   "Book now: https://library.test/events/42",
			want: []string{"https://library.test/events/42"},
		},
		{
			name: "call to action without url is ignored",
			in:   "Book now at the front desk",
			want: []string{},
		},
		{
			name: "booking word in url",
			in:   "Details https://parks.test/reserve/pool?id=3 and https://parks.test/about",
			want: []string{"https://parks.test/reserve/pool?id=3"},
		},
		{
			name: "known platform",
			in:   "Sign up at https://calendly.com/kids-yoga/class",
			want: []string{"https://calendly.com/kids-yoga/class"},
		},
		{
			name: "platform in path does not count",
			in:   "See https://example.test/calendly-alternatives",
			want: []string{},
		},
		{
			name: "anchor text",
			in:   `<p>Spaces are limited. <a href="https://museum.test/e/77">Reserve <b>a spot</b></a></p>`,
			want: []string{"https://museum.test/e/77"},
		},
		{
			name: "anchor without call to action",
			in:   `<a href="https://museum.test/e/77">More info</a>`,
			want: []string{},
		},
		{
			name: "relative anchor dropped",
			in:   `<a href="/book">Book</a>`,
			want: []string{},
		},
		{
			name: "generic booking noun",
			in:   "Reservations: https://zoo.test/reservation-form",
			want: []string{"https://zoo.test/reservation-form"},
		},
		{
			name: "case insensitive",
			in:   "BOOK HERE - HTTPS://Studio.test/Classes",
			want: []string{"HTTPS://Studio.test/Classes"},
		},
		{
			name: "priority order across patterns",
			in:   "Try https://calendly.com/a then Book now: https://gym.test/x",
			want: []string{"https://gym.test/x", "https://calendly.com/a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.in)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractDeduplicates(t *testing.T) {
	// Matches the "book" pattern and the "booking" pattern.
	in := "Register at https://rec.test/booking/swim or again at https://rec.test/booking/swim"
	assert.Equal(t, []string{"https://rec.test/booking/swim"}, Extract(in))

	// Same link reachable as call to action, keyword and platform.
	in = "Book here: https://acuityscheduling.com/schedule.php?owner=1"
	assert.Equal(t, []string{"https://acuityscheduling.com/schedule.php?owner=1"}, Extract(in))
}

func TestCleanForDisplay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "https://a.test/book", want: "https://a.test/book"},
		{in: `https://a.test/book">Book now`, want: "https://a.test/book"},
		{in: `https://a.test/book">`, want: "https://a.test/book"},
		{in: `"https://a.test/book"`, want: "https://a.test/book"},
		{in: "<b>https://a.test/book</b>", want: "https://a.test/book"},
		{in: "a.test/book", want: "https://a.test/book"},
		{in: "https://www.google.com/url?q=https://calendly.com/x&sa=D", want: "https://calendly.com/x"},
		{in: `"">`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanForDisplay(tt.in))
		})
	}
}

func TestCleanAll(t *testing.T) {
	got := CleanAll([]string{"https://a.test/book", "<i></i>", "b.test/reserve"})
	assert.Equal(t, []string{"https://a.test/book", "https://b.test/reserve"}, got)
}
