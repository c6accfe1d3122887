// Package social holds the relationship engine and name search of Mercury:
// the friend-request state machine, paginated relation views, and
// embedding-based user search. Storage is reached only through the Store
// contracts declared in store.go.
package social

import "fmt"

// Identity says who owns a user's credentials. It is exactly one of
// NativeIdentity or ExternalIdentity.
type Identity interface {
	identity()
}

// NativeIdentity is an account whose password is stored locally
type NativeIdentity struct {
	PasswordHash string
}

// ExternalIdentity is an account owned by an external identity provider
type ExternalIdentity struct {
	Issuer   string
	IssuerID string
}

func (NativeIdentity) identity()   {}
func (ExternalIdentity) identity() {}

// User is the stored user record
type User struct {
	ID             string
	FirstName      string
	LastName       string
	Country        string
	ProfilePicture string
	Mail           string
	Identity       Identity
	NameEmbedding  []float64
}

// Profile is the projection of a User exposed to callers. It never carries
// credentials, issuer data or the name embedding.
type Profile struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Country        string `json:"country"`
	ProfilePicture string `json:"profile_picture"`
	Mail           string `json:"mail"`
}

// Profile strips the variant payload and the embedding
func (u User) Profile() Profile {
	return Profile{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Country:        u.Country,
		ProfilePicture: u.ProfilePicture,
		Mail:           u.Mail,
	}
}

// IsNative reports whether the account's password is stored locally
func (u User) IsNative() bool {
	_, ok := u.Identity.(NativeIdentity)
	return ok
}

// Validate checks the identity invariant
func (u User) Validate() error {
	switch id := u.Identity.(type) {
	case NativeIdentity:
		if id.PasswordHash == "" {
			return fmt.Errorf("user %s: native identity without password hash", u.ID)
		}
	case ExternalIdentity:
		if id.Issuer == "" || id.IssuerID == "" {
			return fmt.Errorf("user %s: external identity without issuer", u.ID)
		}
	case nil:
		return fmt.Errorf("user %s: missing identity", u.ID)
	}
	return nil
}

// Profiles projects a slice of users
func Profiles(users []User) []Profile {
	out := make([]Profile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}
