// Package jid normalizes WhatsApp-style chat identifiers. A jid carries a
// local part and a domain-like suffix denoting the chat subtype, e.g.
// 5511999999999@s.whatsapp.net (user), 120363041234567890@g.us (group) or
// 267215769174167@lid (device-linked id).
package jid

import "strings"

const (
	SuffixUser      = "s.whatsapp.net"
	SuffixGroup     = "g.us"
	SuffixLID       = "lid"
	SuffixBroadcast = "broadcast"
)

// Normalize returns the local part of a jid, the substring before the first
// "@". Identifiers without a separator come back unchanged, so subtypes that
// appear after this code was written still normalize. Empty input yields "".
func Normalize(remoteJid string) string {
	if remoteJid == "" {
		return ""
	}
	if i := strings.Index(remoteJid, "@"); i >= 0 {
		return remoteJid[:i]
	}
	return remoteJid
}

// IsGroup reports whether the jid addresses a group chat.
func IsGroup(remoteJid string) bool {
	return suffix(remoteJid) == SuffixGroup
}

// IsDeviceLinked reports whether the jid is a device-linked identifier. These
// are not dialable phone numbers; callers flag them for monitoring but keep
// processing the message.
func IsDeviceLinked(remoteJid string) bool {
	return suffix(remoteJid) == SuffixLID
}

// IsBroadcast reports whether the jid addresses a broadcast list or status.
func IsBroadcast(remoteJid string) bool {
	return suffix(remoteJid) == SuffixBroadcast
}

// FormatUser builds a user jid from a phone number in any formatting.
func FormatUser(phone string) string {
	return DigitsOnly(phone) + "@" + SuffixUser
}

// FormatGroup builds a group jid from a numeric group id.
func FormatGroup(id string) string {
	return DigitsOnly(id) + "@" + SuffixGroup
}

// DigitsOnly strips every non-digit rune, reducing formatted phone numbers
// like "+55 (11) 99999-9999" to their dialable digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func suffix(remoteJid string) string {
	if i := strings.Index(remoteJid, "@"); i >= 0 {
		return remoteJid[i+1:]
	}
	return ""
}
