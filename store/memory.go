package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/raushankrgupta/fitly/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps users in process memory. It round-trips every record
// through BSON so reads and writes behave like the MongoDB store.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]bson.M
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: map[primitive.ObjectID]bson.M{}}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, doc := range s.users {
		if doc[models.FieldEmail] == email {
			return decode(doc, false)
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.users[objID]
	if !ok {
		return nil, ErrNotFound
	}
	return decode(doc, true)
}

func (s *MemoryStore) Create(_ context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	doc, err := encode(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%w: duplicate _id", ErrDuplicate)
	}
	if err := s.checkUnique(user.ID, doc); err != nil {
		return err
	}
	s.users[user.ID] = doc
	return nil
}

func (s *MemoryStore) Update(_ context.Context, id string, changes *Changes) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[objID]; !ok {
		return nil, ErrNotFound
	}
	return s.apply(objID, changes)
}

func (s *MemoryStore) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time, changes *Changes) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, doc := range s.users {
		if doc[models.FieldResetPasswordToken] != tokenHash {
			continue
		}
		expires, ok := doc[models.FieldResetPasswordExpires].(primitive.DateTime)
		if !ok || !expires.Time().After(now) {
			continue
		}
		changes.Unset(models.FieldResetPasswordToken).Unset(models.FieldResetPasswordExpires)
		return s.apply(id, changes)
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context, page, limit int) ([]models.User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]models.User, 0, len(s.users))
	for _, doc := range s.users {
		u, err := decode(doc, true)
		if err != nil {
			return nil, 0, err
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return []models.User{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// apply must be called with the write lock held
func (s *MemoryStore) apply(id primitive.ObjectID, changes *Changes) (*models.User, error) {
	if changes.PasswordDirty() {
		return nil, ErrUnhashedPassword
	}

	// re-encode the assignments so the stored values match what the driver would write
	raw, err := bson.Marshal(changes.Fields())
	if err != nil {
		return nil, fmt.Errorf("failed to encode changes: %w", err)
	}
	var set bson.M
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("failed to encode changes: %w", err)
	}

	next := bson.M{}
	for k, v := range s.users[id] {
		next[k] = v
	}
	for k, v := range set {
		next[k] = v
	}
	for k, n := range changes.Increments() {
		switch cur := next[k].(type) {
		case int32:
			next[k] = int64(cur) + int64(n)
		case int64:
			next[k] = cur + int64(n)
		case float64:
			next[k] = cur + float64(n)
		case nil:
			next[k] = int64(n)
		default:
			return nil, fmt.Errorf("cannot increment non-numeric field %q", k)
		}
	}
	for _, k := range changes.Unsets() {
		delete(next, k)
	}
	next[models.FieldUpdatedAt] = primitive.NewDateTimeFromTime(time.Now())

	if err := s.checkUnique(id, next); err != nil {
		return nil, err
	}
	s.users[id] = next
	return decode(next, true)
}

// checkUnique must be called with the write lock held
func (s *MemoryStore) checkUnique(id primitive.ObjectID, doc bson.M) error {
	googleID, hasGoogleID := doc[models.FieldGoogleID]
	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if other[models.FieldEmail] == doc[models.FieldEmail] {
			return fmt.Errorf("%w: email", ErrDuplicate)
		}
		if hasGoogleID && other[models.FieldGoogleID] == googleID {
			return fmt.Errorf("%w: google_id", ErrDuplicate)
		}
	}
	return nil
}

func encode(user *models.User) (bson.M, error) {
	raw, err := bson.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	return doc, nil
}

func decode(doc bson.M, hideSecrets bool) (*models.User, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	var user models.User
	if err := bson.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	if hideSecrets {
		user.PasswordHash = ""
		user.ResetPasswordToken = ""
		user.ResetPasswordExpires = nil
	}
	return &user, nil
}
