// Package memstore is an in-process implementation of the repository
// interfaces. It backs `serve --in-memory` and the service and handler
// tests. Every operation is serialized by a mutex, so the two-sided
// assignment updates are atomic here.
package memstore

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/healthcare-portal/internal/models"
	"github.com/harentsoaR/healthcare-portal/internal/repository"
)

// New returns a Store whose repositories all live in memory.
func New() *repository.Store {
	return &repository.Store{
		Users:     NewUsers(),
		Goals:     NewGoals(),
		Reminders: NewReminders(),
		Tips:      NewTips(),
		Messages:  NewMessages(),
	}
}

// Users keeps user documents by id.
type Users struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func NewUsers() *Users {
	return &Users{users: make(map[primitive.ObjectID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.AssignedPatients = append([]primitive.ObjectID{}, u.AssignedPatients...)
	if u.AssignedProvider != nil {
		p := *u.AssignedProvider
		c.AssignedProvider = &p
	}
	return &c
}

func (s *Users) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.AssignedPatients == nil {
		user.AssignedPatients = []primitive.ObjectID{}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Users) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) GetMany(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, *cloneUser(u))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func matches(u *models.User, q repository.UserQuery) bool {
	if q.Role != "" && u.Role != q.Role {
		return false
	}
	if q.AssignedProvider != nil {
		if u.AssignedProvider == nil || *u.AssignedProvider != *q.AssignedProvider {
			return false
		}
	} else if q.HasProvider != nil && (u.AssignedProvider != nil) != *q.HasProvider {
		return false
	}
	if !q.CreatedSince.IsZero() && u.CreatedAt.Before(q.CreatedSince) {
		return false
	}
	return true
}

func sortNewestFirst(users []models.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
}

func (s *Users) List(_ context.Context, q repository.UserQuery) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.User, 0)
	for _, u := range s.users {
		if matches(u, q) {
			out = append(out, *cloneUser(u))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Users) Count(_ context.Context, q repository.UserQuery) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, u := range s.users {
		if matches(u, q) {
			n++
		}
	}
	return n, nil
}

func (s *Users) Update(_ context.Context, id primitive.ObjectID, upd repository.UserUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Email != nil && *upd.Email != u.Email {
		for _, other := range s.users {
			if other.Email == *upd.Email {
				return nil, repository.ErrDuplicate
			}
		}
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.BasicInfo != nil {
		u.BasicInfo = upd.BasicInfo
	}
	if upd.HealthInfo != nil {
		u.HealthInfo = upd.HealthInfo
	}
	if upd.ProviderInfo != nil {
		u.ProviderInfo = upd.ProviderInfo
	}
	if upd.ConsentGiven != nil {
		u.ConsentGiven = *upd.ConsentGiven
	}
	return cloneUser(u), nil
}

func (s *Users) SetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	return nil
}

func pull(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *Users) Assign(_ context.Context, patientID, providerID primitive.ObjectID, previous *primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient, ok := s.users[patientID]
	if !ok {
		return repository.ErrNotFound
	}
	provider, ok := s.users[providerID]
	if !ok {
		return repository.ErrNotFound
	}
	if previous != nil && *previous != providerID {
		if old, ok := s.users[*previous]; ok {
			old.AssignedPatients = pull(old.AssignedPatients, patientID)
		}
	}
	p := providerID
	patient.AssignedProvider = &p
	if !provider.HasPatient(patientID) {
		provider.AssignedPatients = append(provider.AssignedPatients, patientID)
	}
	return nil
}

func (s *Users) Unassign(_ context.Context, patientID, providerID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient, ok := s.users[patientID]
	if !ok {
		return repository.ErrNotFound
	}
	patient.AssignedProvider = nil
	if provider, ok := s.users[providerID]; ok {
		provider.AssignedPatients = pull(provider.AssignedPatients, patientID)
	}
	return nil
}

func (s *Users) DeleteProvider(_ context.Context, providerID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	provider, ok := s.users[providerID]
	if !ok || provider.Role != models.RoleProvider {
		return repository.ErrNotFound
	}
	for _, u := range s.users {
		if u.AssignedProvider != nil && *u.AssignedProvider == providerID {
			u.AssignedProvider = nil
		}
	}
	delete(s.users, providerID)
	return nil
}

// Put stores u as-is, bypassing every invariant. Tests use it to build
// inconsistent fixtures.
func (s *Users) Put(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = cloneUser(u)
}

type goalKey struct {
	user primitive.ObjectID
	day  int64
}

// Goals keeps one goal per user and day.
type Goals struct {
	mu    sync.Mutex
	goals map[goalKey]*models.Goal
}

func NewGoals() *Goals {
	return &Goals{goals: make(map[goalKey]*models.Goal)}
}

func key(userID primitive.ObjectID, day time.Time) goalKey {
	return goalKey{user: userID, day: day.UnixNano()}
}

func (s *Goals) FindByDay(_ context.Context, userID primitive.ObjectID, day time.Time) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.goals[key(userID, day)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (s *Goals) getOrCreate(userID primitive.ObjectID, day time.Time, targets models.GoalTargets) *models.Goal {
	k := key(userID, day)
	g, ok := s.goals[k]
	if !ok {
		g = &models.Goal{ID: primitive.NewObjectID(), User: userID, Date: day, Targets: targets}
		s.goals[k] = g
	}
	return g
}

func (s *Goals) GetOrCreate(_ context.Context, userID primitive.ObjectID, day time.Time, targets models.GoalTargets) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *s.getOrCreate(userID, day, targets)
	return &c, nil
}

func (s *Goals) UpdateMetrics(_ context.Context, userID primitive.ObjectID, day time.Time, m models.GoalMetrics, targets models.GoalTargets) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.getOrCreate(userID, day, targets)
	m.Apply(g)
	c := *g
	return &c, nil
}

func (s *Goals) History(_ context.Context, userID primitive.ObjectID, since time.Time) ([]models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Goal, 0)
	for _, g := range s.goals {
		if g.User == userID && !g.Date.Before(since) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// Reminders keeps reminders by id.
type Reminders struct {
	mu        sync.Mutex
	reminders map[primitive.ObjectID]*models.Reminder
}

func NewReminders() *Reminders {
	return &Reminders{reminders: make(map[primitive.ObjectID]*models.Reminder)}
}

func (s *Reminders) Create(_ context.Context, r *models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	c := *r
	s.reminders[r.ID] = &c
	return nil
}

func (s *Reminders) GetByID(_ context.Context, id primitive.ObjectID) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (s *Reminders) MarkCompleted(_ context.Context, id primitive.ObjectID, at time.Time) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reminders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !r.Completed {
		r.Completed = true
		t := at
		r.CompletedAt = &t
	}
	c := *r
	return &c, nil
}

func (s *Reminders) ListByUser(_ context.Context, userID primitive.ObjectID, q repository.ReminderQuery) ([]models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Reminder, 0)
	for _, r := range s.reminders {
		if r.User != userID {
			continue
		}
		if q.PendingOnly && r.Completed {
			continue
		}
		if !q.DueFrom.IsZero() && r.DueDate.Before(q.DueFrom) {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Reminders) CountOverdue(_ context.Context, userID primitive.ObjectID, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, r := range s.reminders {
		if r.User == userID && r.Overdue(now) {
			n++
		}
	}
	return n, nil
}

// Tips keeps the health tip collection.
type Tips struct {
	mu   sync.Mutex
	tips []models.HealthTip
}

func NewTips() *Tips {
	return &Tips{}
}

func (s *Tips) Random(_ context.Context) (*models.HealthTip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []models.HealthTip
	for _, t := range s.tips {
		if t.Active {
			active = append(active, t)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}
	tip := active[rand.Intn(len(active))]
	return &tip, nil
}

func (s *Tips) ReplaceAll(_ context.Context, tips []models.HealthTip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tips = make([]models.HealthTip, len(tips))
	copy(s.tips, tips)
	for i := range s.tips {
		if s.tips[i].ID.IsZero() {
			s.tips[i].ID = primitive.NewObjectID()
		}
	}
	return nil
}

type Messages struct {
	mu       sync.Mutex
	messages []models.Message
	// FailWith, when set, is returned by Create. Relay tests use it to
	// simulate storage outages.
	FailWith error
}

func NewMessages() *Messages {
	return &Messages{}
}

func (s *Messages) Create(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	s.messages = append(s.messages, *m)
	return nil
}

func (s *Messages) ListConversation(_ context.Context, id models.ConversationID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, 0)
	for _, m := range s.messages {
		if m.Conversation == id {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var (
	_ repository.UserRepository      = (*Users)(nil)
	_ repository.GoalRepository      = (*Goals)(nil)
	_ repository.ReminderRepository  = (*Reminders)(nil)
	_ repository.HealthTipRepository = (*Tips)(nil)
	_ repository.MessageRepository   = (*Messages)(nil)
)
