package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/contactkeep/contactkeep/internal/database"
)

var ErrNotFound = errors.New("contact not found")

// Repository handles contact data persistence. Every query is scoped to
// the owning user; a contact owned by someone else is indistinguishable
// from one that does not exist.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new contact owned by the given user
func (r *Repository) Create(ctx context.Context, userID int64, c *Contact) (*Contact, error) {
	dbContact := &database.Contact{
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Birthday:    c.Birthday,
		UserID:      userID,
	}

	_, err := r.db.NewInsert().
		Model(dbContact).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return mapDBContactToModel(dbContact), nil
}

// List returns the user's contacts with offset/limit pagination,
// ordered by id ascending for deterministic pages.
func (r *Repository) List(ctx context.Context, userID int64, skip, limit int) ([]*Contact, error) {
	var dbContacts []*database.Contact
	err := r.db.NewSelect().
		Model(&dbContacts).
		Where("user_id = ?", userID).
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return mapDBContactsToModels(dbContacts), nil
}

// GetByID retrieves a single contact owned by the given user
func (r *Repository) GetByID(ctx context.Context, userID, contactID int64) (*Contact, error) {
	dbContact := new(database.Contact)
	err := r.db.NewSelect().
		Model(dbContact).
		Where("user_id = ?", userID).
		Where("id = ?", contactID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return mapDBContactToModel(dbContact), nil
}

// Search returns the user's contacts whose first name, last name or
// email exactly equals the query. Exact match by design, not substring.
func (r *Repository) Search(ctx context.Context, userID int64, query string) ([]*Contact, error) {
	var dbContacts []*database.Contact
	err := r.db.NewSelect().
		Model(&dbContacts).
		Where("user_id = ?", userID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("first_name = ?", query).
				WhereOr("last_name = ?", query).
				WhereOr("email = ?", query)
		}).
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}

	return mapDBContactsToModels(dbContacts), nil
}

// ListByOwner returns all of the user's contacts, without pagination.
// Used by the birthday-window query, which filters in memory.
func (r *Repository) ListByOwner(ctx context.Context, userID int64) ([]*Contact, error) {
	var dbContacts []*database.Contact
	err := r.db.NewSelect().
		Model(&dbContacts).
		Where("user_id = ?", userID).
		Order("id ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return mapDBContactsToModels(dbContacts), nil
}

// Birthdays returns the user's contacts whose next birthday occurrence
// falls within [today, today+periodDays]. Evaluated per contact; the
// per-user contact count is small enough that no index support is needed.
func (r *Repository) Birthdays(ctx context.Context, userID int64, periodDays int, today time.Time) ([]*Contact, error) {
	contacts, err := r.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	upcoming := make([]*Contact, 0)
	for _, c := range contacts {
		if InWindow(today, c.Birthday.Month(), c.Birthday.Day(), periodDays) {
			upcoming = append(upcoming, c)
		}
	}

	return upcoming, nil
}

// Update replaces first/last name, email, phone number and birthday.
// Notes are untouched; they have their own operation.
func (r *Repository) Update(ctx context.Context, userID, contactID int64, c *Contact) (*Contact, error) {
	dbContact := new(database.Contact)
	err := r.db.NewUpdate().
		Model(dbContact).
		Set("first_name = ?", c.FirstName).
		Set("last_name = ?", c.LastName).
		Set("email = ?", c.Email).
		Set("phone_number = ?", c.PhoneNumber).
		Set("birthday = ?", c.Birthday).
		Where("user_id = ?", userID).
		Where("id = ?", contactID).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	return mapDBContactToModel(dbContact), nil
}

// ReplaceNotes replaces the whole notes list, not an append
func (r *Repository) ReplaceNotes(ctx context.Context, userID, contactID int64, notes []string) (*Contact, error) {
	dbContact := new(database.Contact)
	err := r.db.NewUpdate().
		Model(dbContact).
		Set("notes = ?", pgdialect.Array(notes)).
		Where("user_id = ?", userID).
		Where("id = ?", contactID).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to replace notes: %w", err)
	}

	return mapDBContactToModel(dbContact), nil
}

// Delete removes the contact and returns the deleted snapshot
func (r *Repository) Delete(ctx context.Context, userID, contactID int64) (*Contact, error) {
	dbContact := new(database.Contact)
	err := r.db.NewDelete().
		Model(dbContact).
		Where("user_id = ?", userID).
		Where("id = ?", contactID).
		Returning("*").
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete contact: %w", err)
	}

	return mapDBContactToModel(dbContact), nil
}

// mapDBContactToModel converts database model to domain model
func mapDBContactToModel(dbc *database.Contact) *Contact {
	return &Contact{
		ID:          dbc.ID,
		FirstName:   dbc.FirstName,
		LastName:    dbc.LastName,
		Email:       dbc.Email,
		PhoneNumber: dbc.PhoneNumber,
		Birthday:    dbc.Birthday,
		Notes:       dbc.Notes,
		UserID:      dbc.UserID,
	}
}

func mapDBContactsToModels(dbContacts []*database.Contact) []*Contact {
	contacts := make([]*Contact, 0, len(dbContacts))
	for _, dbc := range dbContacts {
		contacts = append(contacts, mapDBContactToModel(dbc))
	}
	return contacts
}
