package ical_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/watson-app/watson/internal/ical"
)

func TestUnfoldCRLF(t *testing.T) {
	in := "SUMMARY:Long line that wraps\r\n onto a continuation\r\nEND:VEVENT\r\n"
	want := "SUMMARY:Long line that wraps onto a continuation\nEND:VEVENT\n"
	assert.Equal(t, want, string(ical.Unfold([]byte(in))))
}

func TestUnfoldBareLF(t *testing.T) {
	in := "SUMMARY:wrapped\n\tvalue\nEND:VEVENT\n"
	want := "SUMMARY:wrapped value\nEND:VEVENT\n"
	assert.Equal(t, want, string(ical.Unfold([]byte(in))))
}

func TestUnfoldNoFolding(t *testing.T) {
	in := "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	want := "BEGIN:VCALENDAR\nEND:VCALENDAR\n"
	assert.Equal(t, want, string(ical.Unfold([]byte(in))))
}
