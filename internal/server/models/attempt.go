package models

import "time"

// AttemptOutcomeOK marks a successful authentication in the journal.
const AttemptOutcomeOK = "OK"

// Attempt is one journaled authentication call.
type Attempt struct {
	ID            string
	LicenseKey    string
	HWID          string
	ClientVersion string
	ClientType    string
	RemoteAddr    string
	Outcome       string
	CreatedAt     time.Time
}
