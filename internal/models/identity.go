package models

import "strings"

// Identity is an authenticated user handle issued by the hosted backend.
// Premium selects the photo upload policy (resolution/quality).
type Identity struct {
	ID      string
	Email   string
	Premium bool
}

// GuestIDPrefix marks locally minted, unauthenticated identities. A device
// holds at most one guest identity at a time; it survives restarts until the
// user signs in and migration completes.
const GuestIDPrefix = "guest_"

func IsGuestID(id string) bool {
	return strings.HasPrefix(id, GuestIDPrefix)
}
