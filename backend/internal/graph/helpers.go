package graph

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"mercury/backend/internal/constants"
	"mercury/backend/internal/social"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0.0
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	b, _ := val.(bool)
	return b
}

func getStringFromMap(m map[string]any, key string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getFloat64SliceFromMap(m map[string]any, key string) []float64 {
	val, ok := m[key]
	if !ok || val == nil {
		return nil
	}
	switch list := val.(type) {
	case []float64:
		return list
	case []any:
		out := make([]float64, 0, len(list))
		for _, v := range list {
			switch f := v.(type) {
			case float64:
				out = append(out, f)
			case int64:
				out = append(out, float64(f))
			}
		}
		return out
	}
	return nil
}

// ============================================================================
// User Node Mapping
// ============================================================================

// Node property names of a user
const (
	propID             = "id"
	propFirstName      = "first_name"
	propLastName       = "last_name"
	propCountry        = "country"
	propProfilePicture = "profile_picture"
	propMail           = "mail"
	propPassword       = "password"
	propIssuer         = "issuer"
	propIssuerID       = "issuer_id"
)

// userProps flattens a user into node properties. Exactly one identity
// variant's keys are present.
func userProps(u social.User) map[string]any {
	props := map[string]any{
		propID:             u.ID,
		propFirstName:      u.FirstName,
		propLastName:       u.LastName,
		propCountry:        u.Country,
		propProfilePicture: u.ProfilePicture,
		propMail:           u.Mail,
	}
	if len(u.NameEmbedding) > 0 {
		props[constants.NameEmbeddingProperty] = u.NameEmbedding
	}
	switch id := u.Identity.(type) {
	case social.NativeIdentity:
		props[propPassword] = id.PasswordHash
	case social.ExternalIdentity:
		props[propIssuer] = id.Issuer
		props[propIssuerID] = id.IssuerID
	}
	return props
}

// userFromProps rebuilds a user from node properties. A node carrying both
// or neither identity payload is rejected.
func userFromProps(props map[string]any) (social.User, error) {
	u := social.User{
		ID:             getStringFromMap(props, propID),
		FirstName:      getStringFromMap(props, propFirstName),
		LastName:       getStringFromMap(props, propLastName),
		Country:        getStringFromMap(props, propCountry),
		ProfilePicture: getStringFromMap(props, propProfilePicture),
		Mail:           getStringFromMap(props, propMail),
		NameEmbedding:  getFloat64SliceFromMap(props, constants.NameEmbeddingProperty),
	}

	_, native := props[propPassword]
	_, external := props[propIssuer]
	switch {
	case native && external:
		return social.User{}, fmt.Errorf("user %s: node has both native and external identity", u.ID)
	case native:
		u.Identity = social.NativeIdentity{PasswordHash: getStringFromMap(props, propPassword)}
	case external:
		u.Identity = social.ExternalIdentity{
			Issuer:   getStringFromMap(props, propIssuer),
			IssuerID: getStringFromMap(props, propIssuerID),
		}
	default:
		return social.User{}, fmt.Errorf("user %s: node has no identity", u.ID)
	}
	return u, nil
}

// userFromRecord decodes the node stored under key
func userFromRecord(record *neo4j.Record, key string) (social.User, error) {
	val, ok := record.Get(key)
	if !ok {
		return social.User{}, fmt.Errorf("record has no %q column", key)
	}
	node, ok := val.(neo4j.Node)
	if !ok {
		return social.User{}, fmt.Errorf("column %q is %T, not a node", key, val)
	}
	return userFromProps(node.Props)
}

func usersFromRecords(records []*neo4j.Record, key string) ([]social.User, error) {
	users := make([]social.User, 0, len(records))
	for _, record := range records {
		u, err := userFromRecord(record, key)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
