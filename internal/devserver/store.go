package devserver

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/fintrack/internal/common"
)

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Currency string `json:"currency"`

	passwordHash []byte
}

// Settings is the remotely stored preference subset, in wire form.
type Settings struct {
	Theme                string `json:"theme"`
	Language             string `json:"language"`
	DateFormat           string `json:"date_format"`
	BudgetAlertThreshold int    `json:"budget_alert_threshold"`
}

func defaultSettings() Settings {
	return Settings{Theme: "light", Language: "en", DateFormat: "DD/MM/YYYY", BudgetAlertThreshold: 80}
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

type Transaction struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	Amount   float64   `json:"amount"`
	Category string    `json:"category,omitempty"`
}

type refreshEntry struct {
	userID  string
	expires time.Time
}

// Store keeps all dev backend state in memory.
type Store struct {
	cost int

	mu           sync.RWMutex
	users        map[string]*User
	byEmail      map[string]string
	refresh      map[string]refreshEntry
	settings     map[string]Settings
	categories   map[string][]Category
	transactions map[string][]Transaction
}

// NewStore creates an empty store hashing passwords with the given bcrypt
// cost (bcrypt.DefaultCost when out of range).
func NewStore(cost int) *Store {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Store{
		cost:         cost,
		users:        make(map[string]*User),
		byEmail:      make(map[string]string),
		refresh:      make(map[string]refreshEntry),
		settings:     make(map[string]Settings),
		categories:   make(map[string][]Category),
		transactions: make(map[string][]Transaction),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers an account. Emails are unique, case-insensitively.
func (s *Store) CreateUser(name, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	u := &User{ID: uuid.NewString(), Name: name, Email: email, Currency: "USD", passwordHash: hash}
	s.users[u.ID] = u
	s.byEmail[email] = u.ID
	s.settings[u.ID] = defaultSettings()

	cp := *u
	return &cp, nil
}

// Authenticate returns the user when the password matches.
func (s *Store) Authenticate(email, password string) (*User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[normalizeEmail(email)]
	var u User
	if ok {
		u = *s.users[id]
	}
	s.mu.RUnlock()

	if !ok {
		return nil, common.ErrorUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}
	return &u, nil
}

func (s *Store) UserByID(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// SaveRefresh registers a refresh token id.
func (s *Store) SaveRefresh(jti, userID string, expires time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[jti] = refreshEntry{userID: userID, expires: expires}
}

// ConsumeRefresh removes jti and returns its owner. A token can be
// consumed once; reuse after rotation fails with common.ErrInvalidToken.
func (s *Store) ConsumeRefresh(jti string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.refresh[jti]
	if !ok {
		return "", common.ErrInvalidToken
	}
	delete(s.refresh, jti)

	if !now.Before(e.expires) {
		return "", common.ErrRefreshTokenExpired
	}
	return e.userID, nil
}

func (s *Store) RevokeRefresh(jti string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refresh, jti)
}

// RevokeAll drops every refresh token of the user.
func (s *Store) RevokeAll(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for jti, e := range s.refresh {
		if e.userID == userID {
			delete(s.refresh, jti)
			n++
		}
	}
	return n
}

func (s *Store) Settings(userID string) Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settings[userID]
	if !ok {
		return defaultSettings()
	}
	return st
}

// UpdateSettings applies fn to the user's settings and returns the result.
func (s *Store) UpdateSettings(userID string, fn func(*Settings)) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.settings[userID]
	if !ok {
		st = defaultSettings()
	}
	fn(&st)
	s.settings[userID] = st
	return st
}

func (s *Store) Categories(userID string) []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Category{}, s.categories[userID]...)
}

func (s *Store) CreateCategory(userID string, c Category) Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	s.categories[userID] = append(s.categories[userID], c)
	return c
}

// UpdateCategory applies fn to the category with id.
func (s *Store) UpdateCategory(userID, id string, fn func(*Category)) (Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats := s.categories[userID]
	i := slices.IndexFunc(cats, func(c Category) bool { return c.ID == id })
	if i < 0 {
		return Category{}, common.ErrorNotFound
	}
	fn(&cats[i])
	cats[i].ID = id
	return cats[i], nil
}

func (s *Store) DeleteCategory(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats := s.categories[userID]
	i := slices.IndexFunc(cats, func(c Category) bool { return c.ID == id })
	if i < 0 {
		return common.ErrorNotFound
	}
	s.categories[userID] = slices.Delete(cats, i, i+1)
	return nil
}

func (s *Store) AddTransactions(userID string, txs []Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range txs {
		txs[i].ID = uuid.NewString()
	}
	s.transactions[userID] = append(s.transactions[userID], txs...)
}

func (s *Store) Transactions(userID string) []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Transaction{}, s.transactions[userID]...)
}
