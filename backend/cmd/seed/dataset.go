package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"mercury/backend/internal/embedding"
	"mercury/backend/internal/social"
)

// seedUser is one user of the dataset. Exactly one of password or
// issuer/issuer_id must be set.
type seedUser struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Country        string `json:"country"`
	ProfilePicture string `json:"profile_picture"`
	Mail           string `json:"mail"`
	Password       string `json:"password,omitempty"`
	Issuer         string `json:"issuer,omitempty"`
	IssuerID       string `json:"issuer_id,omitempty"`
}

type seedInvite struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type dataset struct {
	Users       []seedUser   `json:"users"`
	Friendships [][2]string  `json:"friendships"`
	Invites     []seedInvite `json:"invites"`
}

func loadDatasetFile(path string) (*dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return readDataset(f)
}

func readDataset(r io.Reader) (*dataset, error) {
	var d dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// validate rejects duplicate ids, ambiguous identities and edges that
// reference unknown users or contradict each other
func (d *dataset) validate() error {
	ids := make(map[string]bool, len(d.Users))
	for i, u := range d.Users {
		if u.ID == "" {
			return fmt.Errorf("user %d: missing id", i)
		}
		if ids[u.ID] {
			return fmt.Errorf("user %s: duplicate id", u.ID)
		}
		ids[u.ID] = true

		native := u.Password != ""
		external := u.Issuer != "" || u.IssuerID != ""
		if native == external {
			return fmt.Errorf("user %s: exactly one of password or issuer must be set", u.ID)
		}
		if external && (u.Issuer == "" || u.IssuerID == "") {
			return fmt.Errorf("user %s: issuer and issuer_id must both be set", u.ID)
		}
	}

	friends := make(map[[2]string]bool, len(d.Friendships))
	for _, f := range d.Friendships {
		if err := checkPair(ids, f[0], f[1]); err != nil {
			return fmt.Errorf("friendship %v: %w", f, err)
		}
		friends[pairKey(f[0], f[1])] = true
	}
	invited := make(map[[2]string]seedInvite, len(d.Invites))
	for _, inv := range d.Invites {
		if err := checkPair(ids, inv.From, inv.To); err != nil {
			return fmt.Errorf("invite %s -> %s: %w", inv.From, inv.To, err)
		}
		key := pairKey(inv.From, inv.To)
		if friends[key] {
			return fmt.Errorf("invite %s -> %s: users are already friends", inv.From, inv.To)
		}
		if prev, ok := invited[key]; ok && prev.From != inv.From {
			return fmt.Errorf("invite %s -> %s: reverse invite already listed", inv.From, inv.To)
		}
		invited[key] = inv
	}
	return nil
}

func checkPair(ids map[string]bool, a, b string) error {
	if a == b {
		return fmt.Errorf("self relation")
	}
	for _, id := range []string{a, b} {
		if !ids[id] {
			return fmt.Errorf("unknown user %q", id)
		}
	}
	return nil
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// seedStore is the part of the graph repository the seeder writes through
type seedStore interface {
	GetUser(ctx context.Context, id string) (*social.User, error)
	CreateUser(ctx context.Context, user social.User) error
	ImportFriendship(ctx context.Context, firstID, secondID string) error
	// ImportInvite reports false when the pair is already friends or
	// invited the other way
	ImportInvite(ctx context.Context, fromID, toID string) (bool, error)
}

type seeder struct {
	store     seedStore
	generator embedding.Generator
	hasher    social.PasswordHasher
	log       *zap.Logger
}

type seedStats struct {
	Created        int
	Skipped        int
	Friendships    int
	Invites        int
	SkippedInvites int
}

// run imports the dataset. Users that already exist are left untouched and
// invites are skipped for pairs that are already related, so the import can
// be repeated on a live graph.
func (s *seeder) run(ctx context.Context, d *dataset) (seedStats, error) {
	var stats seedStats
	for _, su := range d.Users {
		existing, err := s.store.GetUser(ctx, su.ID)
		if err != nil {
			return stats, fmt.Errorf("failed to look up user %s: %w", su.ID, err)
		}
		if existing != nil {
			stats.Skipped++
			continue
		}

		user, err := s.user(ctx, su)
		if err != nil {
			return stats, err
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			return stats, fmt.Errorf("failed to create user %s: %w", su.ID, err)
		}
		s.log.Debug("Seeded user", zap.String("user_id", su.ID))
		stats.Created++
	}

	for _, f := range d.Friendships {
		if err := s.store.ImportFriendship(ctx, f[0], f[1]); err != nil {
			return stats, fmt.Errorf("failed to import friendship %v: %w", f, err)
		}
		stats.Friendships++
	}
	for _, inv := range d.Invites {
		stored, err := s.store.ImportInvite(ctx, inv.From, inv.To)
		if err != nil {
			return stats, fmt.Errorf("failed to import invite %s -> %s: %w", inv.From, inv.To, err)
		}
		if !stored {
			s.log.Debug("Skipped invite between related users",
				zap.String("from", inv.From),
				zap.String("to", inv.To),
			)
			stats.SkippedInvites++
			continue
		}
		stats.Invites++
	}
	return stats, nil
}

func (s *seeder) user(ctx context.Context, su seedUser) (social.User, error) {
	names, err := embedding.NameEmbedding(ctx, s.generator, su.FirstName, su.LastName)
	if err != nil {
		return social.User{}, fmt.Errorf("failed to embed name of %s: %w", su.ID, err)
	}
	if !names.Success {
		return social.User{}, fmt.Errorf("user %s: names not in vocabulary: %v", su.ID, names.FieldErrors())
	}

	user := social.User{
		ID:             su.ID,
		FirstName:      su.FirstName,
		LastName:       su.LastName,
		Country:        su.Country,
		ProfilePicture: su.ProfilePicture,
		Mail:           su.Mail,
		NameEmbedding:  names.Embedding,
	}
	if su.Password != "" {
		hash, err := s.hasher.Hash(su.Password)
		if err != nil {
			return social.User{}, err
		}
		user.Identity = social.NativeIdentity{PasswordHash: hash}
	} else {
		user.Identity = social.ExternalIdentity{Issuer: su.Issuer, IssuerID: su.IssuerID}
	}
	return user, nil
}
