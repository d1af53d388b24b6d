package domain

import "time"

// Shop is a merchant storefront connected through the OAuth install flow.
// The domain is the unique key; the access token is overwritten on
// re-install (last writer wins).
type Shop struct {
	Domain      string    `json:"domain" bson:"domain"`
	AccessToken string    `json:"accessToken" bson:"access_token"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}
