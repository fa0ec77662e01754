package credentials

import "time"

// ExpiryMargin is subtracted from the vendor-reported validity window so a
// token is treated as expired slightly before WHOOP actually rejects it,
// avoiding presenting a token that expires mid-request.
const ExpiryMargin = 60 * time.Second

// Record is the single persisted credential set: the bearer access token, the
// rotating refresh token, and the instant after which the access token must
// not be presented anymore.
type Record struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"` // epoch milliseconds
}

// NewRecord builds a Record whose ExpiresAt already has ExpiryMargin applied.
func NewRecord(accessToken, refreshToken string, expiry time.Time) Record {
	return Record{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiry.Add(-ExpiryMargin).UnixMilli(),
	}
}

// ExpiredAt reports whether the record must be treated as expired at t.
// A record expiring exactly at t is already expired.
func (r Record) ExpiredAt(t time.Time) bool {
	return r.ExpiresAt <= t.UnixMilli()
}
