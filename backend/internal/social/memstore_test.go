package social

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
)

// memStore is an in-memory Store used by the service tests. A single mutex
// stands in for the graph store's transaction locks.
type memStore struct {
	mu      sync.Mutex
	users   map[string]User
	invites map[[2]string]int // ordered (from, to) -> edge count
	friends map[[2]string]int // unordered, key sorted -> edge count

	failWith error
	calls    map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]User),
		invites: make(map[[2]string]int),
		friends: make(map[[2]string]int),
		calls:   make(map[string]int),
	}
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (s *memStore) addUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Identity == nil {
		u.Identity = NativeIdentity{PasswordHash: "hash"}
	}
	s.users[u.ID] = u
}

func (s *memStore) befriend(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends[pairKey(a, b)] = 1
}

func (s *memStore) invite(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[[2]string{from, to}] = 1
}

func (s *memStore) inviteCount(from, to string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invites[[2]string{from, to}]
}

func (s *memStore) friendCount(a, b string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.friends[pairKey(a, b)]
}

func (s *memStore) called(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *memStore) enter(op string) error {
	s.calls[op]++
	return s.failWith
}

// UserReader

func (s *memStore) UsersExist(_ context.Context, ids ...string) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UsersExist"); err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		_, out[id] = s.users[id]
	}
	return out, nil
}

// RelationStore

func (s *memStore) AreFriends(_ context.Context, a, b string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("AreFriends"); err != nil {
		return false, err
	}
	return s.friends[pairKey(a, b)] > 0, nil
}

func (s *memStore) InPairTx(_ context.Context, a, b string, fn func(tx PairTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InPairTx"); err != nil {
		return err
	}

	// Writes go to copies and are committed only when fn succeeds
	tx := &memTx{
		store:   s,
		first:   a,
		second:  b,
		invites: cloneEdges(s.invites),
		friends: cloneEdges(s.friends),
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.invites, s.friends = tx.invites, tx.friends
	return nil
}

func cloneEdges(m map[[2]string]int) map[[2]string]int {
	out := make(map[[2]string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type memTx struct {
	store         *memStore
	first, second string
	locked        bool
	invites       map[[2]string]int
	friends       map[[2]string]int
}

var errNotLocked = errors.New("pair not locked")

func (t *memTx) Lock(context.Context) (bool, bool, error) {
	t.locked = true
	_, first := t.store.users[t.first]
	_, second := t.store.users[t.second]
	return first, second, nil
}

func (t *memTx) AreFriends(context.Context) (bool, error) {
	if !t.locked {
		return false, errNotLocked
	}
	return t.friends[pairKey(t.first, t.second)] > 0, nil
}

func (t *memTx) HasInvite(_ context.Context, from, to string) (bool, error) {
	if !t.locked {
		return false, errNotLocked
	}
	return t.invites[[2]string{from, to}] > 0, nil
}

func (t *memTx) CreateInvite(_ context.Context, from, to string) error {
	if !t.locked {
		return errNotLocked
	}
	t.invites[[2]string{from, to}] = 1
	return nil
}

func (t *memTx) AcceptInvite(_ context.Context, from, to string) (bool, error) {
	if !t.locked {
		return false, errNotLocked
	}
	key := [2]string{from, to}
	if t.invites[key] == 0 {
		return false, nil
	}
	delete(t.invites, key)
	delete(t.invites, [2]string{to, from})
	t.friends[pairKey(from, to)] = 1
	return true, nil
}

func (t *memTx) DeleteInvites(context.Context) (bool, error) {
	if !t.locked {
		return false, errNotLocked
	}
	ab, ba := [2]string{t.first, t.second}, [2]string{t.second, t.first}
	found := t.invites[ab] > 0 || t.invites[ba] > 0
	delete(t.invites, ab)
	delete(t.invites, ba)
	return found, nil
}

func (t *memTx) DeleteFriendship(context.Context) (bool, error) {
	if !t.locked {
		return false, errNotLocked
	}
	key := pairKey(t.first, t.second)
	found := t.friends[key] > 0
	delete(t.friends, key)
	return found, nil
}

// ListingStore

func (s *memStore) related(view View, userID string) []User {
	seen := map[string]bool{}
	var out []User
	add := func(id string) {
		if id == userID || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, s.users[id])
	}

	switch view {
	case ViewFriends:
		for _, id := range s.friendIDs(userID) {
			add(id)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	case ViewFriendRequests:
		for k := range s.invites {
			if k[1] == userID {
				add(k[0])
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].LastName != out[j].LastName {
				return out[i].LastName < out[j].LastName
			}
			return out[i].FirstName < out[j].FirstName
		})
	case ViewFriendSuggestions:
		direct := map[string]bool{}
		for _, id := range s.friendIDs(userID) {
			direct[id] = true
		}
		for friend := range direct {
			for _, id := range s.friendIDs(friend) {
				if !direct[id] {
					add(id)
				}
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return out
}

func (s *memStore) friendIDs(userID string) []string {
	var ids []string
	for k := range s.friends {
		switch userID {
		case k[0]:
			ids = append(ids, k[1])
		case k[1]:
			ids = append(ids, k[0])
		}
	}
	return ids
}

func (s *memStore) ListRelated(_ context.Context, view View, userID string, skip, limit int64) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListRelated"); err != nil {
		return nil, err
	}
	return window(s.related(view, userID), Page{Index: skip / limit, Size: limit}), nil
}

func (s *memStore) CountRelated(_ context.Context, view View, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountRelated"); err != nil {
		return 0, err
	}
	return int64(len(s.related(view, userID))), nil
}

// SearchStore

func (s *memStore) filtered(filter UserFilter) []User {
	var out []User
	for _, u := range s.users {
		if filter.Matches(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) ListUsers(_ context.Context, filter UserFilter, skip, limit int64) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListUsers"); err != nil {
		return nil, err
	}
	return window(s.filtered(filter), Page{Index: skip / limit, Size: limit}), nil
}

func (s *memStore) CountUsers(_ context.Context, filter UserFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountUsers"); err != nil {
		return 0, err
	}
	return int64(len(s.filtered(filter))), nil
}

func (s *memStore) NearestUsers(_ context.Context, vector []float64, k int64) ([]ScoredUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("NearestUsers"); err != nil {
		return nil, err
	}
	var out []ScoredUser
	for _, u := range s.users {
		if len(u.NameEmbedding) != len(vector) {
			continue
		}
		out = append(out, ScoredUser{User: u, Score: cosine(vector, u.NameEmbedding)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].User.ID < out[j].User.ID
	})
	if int64(len(out)) > k {
		out = out[:k]
	}
	return out, nil
}

// cosine mirrors the index's similarity, mapped to [0, 1]
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return (1 + dot/(math.Sqrt(na)*math.Sqrt(nb))) / 2
}

// AccountStore

func (s *memStore) GetUser(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetUser"); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *memStore) FindUserByMail(_ context.Context, mail, issuer string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindUserByMail"); err != nil {
		return nil, err
	}
	return s.findByMail(mail, issuer), nil
}

func (s *memStore) findByMail(mail, issuer string) *User {
	for _, u := range s.users {
		if u.Mail != mail {
			continue
		}
		if issuer != "" {
			ext, ok := u.Identity.(ExternalIdentity)
			if !ok || ext.Issuer != issuer {
				continue
			}
		}
		found := u
		return &found
	}
	return nil
}

func (s *memStore) CreateUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateUser"); err != nil {
		return err
	}
	issuer := ""
	if ext, ok := u.Identity.(ExternalIdentity); ok {
		issuer = ext.Issuer
	}
	if u.Mail != "" && s.findByMail(u.Mail, issuer) != nil {
		return ErrMailTaken
	}
	s.users[u.ID] = u
	return nil
}

func (s *memStore) ReplaceUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ReplaceUser"); err != nil {
		return err
	}
	s.users[u.ID] = u
	return nil
}

func (s *memStore) DeleteUser(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteUser"); err != nil {
		return false, err
	}
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	for k := range s.invites {
		if k[0] == id || k[1] == id {
			delete(s.invites, k)
		}
	}
	for k := range s.friends {
		if k[0] == id || k[1] == id {
			delete(s.friends, k)
		}
	}
	return true, nil
}

var _ Store = (*memStore)(nil)
