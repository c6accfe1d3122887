package social

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"mercury/backend/internal/embedding"
	apperrors "mercury/backend/pkg/errors"
	"mercury/backend/pkg/logger"
)

// Credential is what a new account authenticates with: a Password for
// native accounts or an ExternalIdentity for provider-owned accounts.
type Credential interface {
	credential()
}

// Password is a plaintext password supplied at registration
type Password string

func (Password) credential()         {}
func (ExternalIdentity) credential() {}

// UserDetails are the caller-editable fields of a new account
type UserDetails struct {
	FirstName      string
	LastName       string
	Country        string
	ProfilePicture string
	Mail           string
}

// UserUpdate is a partial profile update. Nil fields are left unchanged.
type UserUpdate struct {
	FirstName      *string
	LastName       *string
	Country        *string
	ProfilePicture *string
}

// PasswordHasher hashes native passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// BcryptHasher hashes with bcrypt at a fixed cost
type BcryptHasher struct {
	Cost int
}

// Hash implements PasswordHasher
func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Accounts manages the user lifecycle and keeps name embeddings current
type Accounts struct {
	store     AccountStore
	generator embedding.Generator
	hasher    PasswordHasher
	newID     func() string
	logger    *zap.Logger
}

// NewAccounts creates the account service
func NewAccounts(store AccountStore, generator embedding.Generator, hasher PasswordHasher) *Accounts {
	return &Accounts{
		store:     store,
		generator: generator,
		hasher:    hasher,
		newID:     uuid.NewString,
		logger:    logger.Named("accounts"),
	}
}

// CreateUser registers a new account.
//
// A native account conflicts with any account using the same mail. An
// external account conflicts with an account of the same mail and issuer;
// when that account's issuer id changed, the stored id is refreshed before
// the conflict is reported.
func (a *Accounts) CreateUser(ctx context.Context, details UserDetails, cred Credential) (Profile, error) {
	var issuer string
	switch c := cred.(type) {
	case Password:
		if c == "" {
			return Profile{}, apperrors.NewValidation(map[string]string{"password": "not provided"})
		}
	case ExternalIdentity:
		if c.Issuer == "" || c.IssuerID == "" {
			return Profile{}, apperrors.NewValidation(map[string]string{"issuer": "not provided"})
		}
		issuer = c.Issuer
	default:
		return Profile{}, fmt.Errorf("unsupported credential %T", cred)
	}
	if details.Mail == "" {
		return Profile{}, apperrors.NewValidation(map[string]string{"mail": "not provided"})
	}

	existing, err := a.store.FindUserByMail(ctx, details.Mail, issuer)
	if err != nil {
		return Profile{}, apperrors.NewStoreFailure("find user by mail", err)
	}
	if existing != nil {
		if ext, ok := cred.(ExternalIdentity); ok {
			if err := a.refreshIssuerID(ctx, *existing, ext); err != nil {
				return Profile{}, err
			}
		}
		return Profile{}, apperrors.NewConflict("id")
	}

	names, err := embedding.NameEmbedding(ctx, a.generator, details.FirstName, details.LastName)
	if err != nil {
		return Profile{}, err
	}
	if !names.Success {
		return Profile{}, apperrors.NewValidation(names.FieldErrors())
	}

	user := User{
		ID:             a.newID(),
		FirstName:      details.FirstName,
		LastName:       details.LastName,
		Country:        details.Country,
		ProfilePicture: details.ProfilePicture,
		Mail:           details.Mail,
		NameEmbedding:  names.Embedding,
	}
	switch c := cred.(type) {
	case Password:
		hash, err := a.hasher.Hash(string(c))
		if err != nil {
			return Profile{}, err
		}
		user.Identity = NativeIdentity{PasswordHash: hash}
	case ExternalIdentity:
		user.Identity = c
	}

	if err := a.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrMailTaken) {
			return Profile{}, apperrors.NewConflict("id")
		}
		return Profile{}, apperrors.NewStoreFailure("create user", err)
	}

	a.logger.Info("User created",
		zap.String("user_id", user.ID),
		zap.Bool("native", user.IsNative()),
	)
	return user.Profile(), nil
}

func (a *Accounts) refreshIssuerID(ctx context.Context, existing User, ext ExternalIdentity) error {
	stored, ok := existing.Identity.(ExternalIdentity)
	if !ok || stored.IssuerID == ext.IssuerID {
		return nil
	}
	existing.Identity = ExternalIdentity{Issuer: stored.Issuer, IssuerID: ext.IssuerID}
	if err := a.store.ReplaceUser(ctx, existing); err != nil {
		return apperrors.NewStoreFailure("refresh issuer id", err)
	}
	a.logger.Info("Issuer id refreshed", zap.String("user_id", existing.ID))
	return nil
}

// GetUser returns the profile of a user; found is false when absent
func (a *Accounts) GetUser(ctx context.Context, id string) (Profile, bool, error) {
	user, err := a.store.GetUser(ctx, id)
	if err != nil {
		return Profile{}, false, apperrors.NewStoreFailure("get user", err)
	}
	if user == nil {
		return Profile{}, false, nil
	}
	return user.Profile(), true, nil
}

// UpdateUser applies a partial update. The name embedding is recomputed from
// the resulting names; names that cannot be embedded reject the update.
func (a *Accounts) UpdateUser(ctx context.Context, id string, update UserUpdate) (Profile, bool, error) {
	user, err := a.store.GetUser(ctx, id)
	if err != nil {
		return Profile{}, false, apperrors.NewStoreFailure("get user", err)
	}
	if user == nil {
		return Profile{}, false, nil
	}

	namesChanged := false
	if update.FirstName != nil && *update.FirstName != user.FirstName {
		user.FirstName = *update.FirstName
		namesChanged = true
	}
	if update.LastName != nil && *update.LastName != user.LastName {
		user.LastName = *update.LastName
		namesChanged = true
	}
	if update.Country != nil {
		user.Country = *update.Country
	}
	if update.ProfilePicture != nil {
		user.ProfilePicture = *update.ProfilePicture
	}

	if namesChanged || len(user.NameEmbedding) == 0 {
		names, err := embedding.NameEmbedding(ctx, a.generator, user.FirstName, user.LastName)
		if err != nil {
			return Profile{}, true, err
		}
		if !names.Success {
			return Profile{}, true, apperrors.NewValidation(names.FieldErrors())
		}
		user.NameEmbedding = names.Embedding
	}

	if err := a.store.ReplaceUser(ctx, *user); err != nil {
		return Profile{}, true, apperrors.NewStoreFailure("update user", err)
	}

	a.logger.Info("User updated",
		zap.String("user_id", id),
		zap.Bool("names_changed", namesChanged),
	)
	return user.Profile(), true, nil
}

// DeleteUser removes a user together with every invite and friendship edge
func (a *Accounts) DeleteUser(ctx context.Context, id string) (bool, error) {
	deleted, err := a.store.DeleteUser(ctx, id)
	if err != nil {
		return false, apperrors.NewStoreFailure("delete user", err)
	}
	if deleted {
		a.logger.Info("User deleted", zap.String("user_id", id))
	}
	return deleted, nil
}

// CountUsers counts registered users, optionally within one country
func (a *Accounts) CountUsers(ctx context.Context, country string) (int64, error) {
	total, err := a.store.CountUsers(ctx, UserFilter{Country: country})
	if err != nil {
		return 0, apperrors.NewStoreFailure("count users", err)
	}
	return total, nil
}
