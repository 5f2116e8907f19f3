package jid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"user jid", "5511999999999@s.whatsapp.net", "5511999999999"},
		{"group jid", "120363041234567890@g.us", "120363041234567890"},
		{"device linked jid", "267215769174167@lid", "267215769174167"},
		{"broadcast", "status@broadcast", "status"},
		{"unknown suffix", "12345@newsletter", "12345"},
		{"double separator keeps first split", "a@b@c", "a"},
		{"no separator returns input", "5511999999999", "5511999999999"},
		{"empty", "", ""},
		{"separator only", "@s.whatsapp.net", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestClassifiers(t *testing.T) {
	assert.True(t, IsGroup("120363041234567890@g.us"))
	assert.False(t, IsGroup("5511999999999@s.whatsapp.net"))
	assert.False(t, IsGroup("5511999999999"))

	assert.True(t, IsDeviceLinked("267215769174167@lid"))
	assert.False(t, IsDeviceLinked("267215769174167@s.whatsapp.net"))

	assert.True(t, IsBroadcast("status@broadcast"))
	assert.False(t, IsBroadcast("120363041234567890@g.us"))
}

func TestDeviceLinkedStillNormalizes(t *testing.T) {
	in := "267215769174167@lid"
	assert.True(t, IsDeviceLinked(in))
	assert.Equal(t, "267215769174167", Normalize(in))
}

func TestFormatRoundTrip(t *testing.T) {
	phones := []string{
		"5511999999999",
		"+55 (11) 99999-9999",
		"+1 415-555-0100",
	}

	for _, phone := range phones {
		digits := DigitsOnly(phone)
		assert.Equal(t, digits, Normalize(FormatUser(phone)))
		assert.Equal(t, digits, Normalize(FormatGroup(phone)))
	}
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "5511999999999", DigitsOnly("+55 11 99999-9999"))
	assert.Equal(t, "", DigitsOnly("no digits here"))
	assert.Equal(t, "", DigitsOnly(""))
}
