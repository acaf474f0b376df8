package store

import (
	"context"
	"errors"
	"time"

	"github.com/campusnav/apiserver/types"
)

// Account document fields.
const (
	FieldEmail                = "email"
	FieldPassword             = "password"
	FieldStudentNumber        = "studentNumber"
	FieldUserType             = "userType"
	FieldIsVerified           = "isVerified"
	FieldLoginAttempts        = "loginAttempts"
	FieldAccountLocked        = "accountLocked"
	FieldLockUntil            = "lockUntil"
	FieldLastLogin            = "lastLogin"
	FieldCreatedAt            = "createdAt"
	FieldUpdatedAt            = "updatedAt"
	fieldHasCompletedTutorial = "hasCompletedTutorial"
)

// AccountRepository handles persistence for accounts in the users collection.
type AccountRepository struct {
	coll Collection
}

func NewAccountRepository(db Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(CollectionUsers)}
}

// ValidID reports whether id is a well-formed primary key.
func (r *AccountRepository) ValidID(id string) bool {
	return r.coll.ValidID(id)
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (types.Account, error) {
	if !r.coll.ValidID(id) {
		return types.Account{}, ErrNotFound
	}
	return r.findOne(ctx, ByID(id))
}

// GetByEmail looks up an account by its normalized email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	return r.findOne(ctx, Filter{Eq(FieldEmail, email)})
}

func (r *AccountRepository) GetByStudentNumber(ctx context.Context, studentNumber string) (types.Account, error) {
	return r.findOne(ctx, Filter{Eq(FieldStudentNumber, studentNumber)})
}

func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	id, err := r.coll.InsertOne(ctx, accountToDocument(account))
	if err != nil {
		return types.Account{}, err
	}
	account.ID = id
	return account, nil
}

// ClearLock resets a stale lock and the attempt counter.
func (r *AccountRepository) ClearLock(ctx context.Context, id string, now time.Time) (types.Account, error) {
	return r.update(ctx, ByID(id), Update{Set: map[string]any{
		FieldAccountLocked: false,
		FieldLockUntil:     nil,
		FieldLoginAttempts: 0,
		FieldUpdatedAt:     now,
	}})
}

// RecordFailure counts one failed verification. The increment only applies
// while the account is unlocked; the lock is then applied by a second
// conditional update once the counter reaches maxAttempts, so concurrent
// failures cannot lose increments or lock twice. The returned account
// reflects the state after both steps, and locked reports whether this
// call is the one that applied the lock.
func (r *AccountRepository) RecordFailure(ctx context.Context, id string, maxAttempts int, lockUntil, now time.Time) (account types.Account, locked bool, err error) {
	account, err = r.update(ctx,
		Filter{Eq(IDField, id), Ne(FieldAccountLocked, true)},
		Update{
			Inc: map[string]int64{FieldLoginAttempts: 1},
			Set: map[string]any{FieldUpdatedAt: now},
		},
	)
	if errors.Is(err, ErrNotFound) {
		// Locked by a concurrent request, or gone.
		account, err = r.GetByID(ctx, id)
		return account, false, err
	}
	if err != nil {
		return types.Account{}, false, err
	}
	if account.LoginAttempts < maxAttempts {
		return account, false, nil
	}

	account, err = r.update(ctx,
		Filter{
			Eq(IDField, id),
			Gte(FieldLoginAttempts, maxAttempts),
			Ne(FieldAccountLocked, true),
		},
		Update{Set: map[string]any{
			FieldAccountLocked: true,
			FieldLockUntil:     lockUntil,
			FieldUpdatedAt:     now,
		}},
	)
	if errors.Is(err, ErrNotFound) {
		account, err = r.GetByID(ctx, id)
		return account, false, err
	}
	if err != nil {
		return types.Account{}, false, err
	}
	return account, true, nil
}

// RecordSuccess stamps the login and clears all lockout state.
func (r *AccountRepository) RecordSuccess(ctx context.Context, id string, now time.Time) (types.Account, error) {
	return r.update(ctx, ByID(id), Update{Set: map[string]any{
		FieldLastLogin:     now,
		FieldLoginAttempts: 0,
		FieldAccountLocked: false,
		FieldLockUntil:     nil,
		FieldUpdatedAt:     now,
	}})
}

// AccountFilter narrows List. Zero values are ignored.
type AccountFilter struct {
	Email         string
	StudentNumber string
	UserType      string
	IsVerified    *bool
}

// List returns accounts newest first.
func (r *AccountRepository) List(ctx context.Context, filter AccountFilter, limit, offset int) ([]types.Account, error) {
	query := Filter{}
	if filter.Email != "" {
		query = append(query, Eq(FieldEmail, filter.Email))
	}
	if filter.StudentNumber != "" {
		query = append(query, Eq(FieldStudentNumber, filter.StudentNumber))
	}
	if filter.UserType != "" {
		query = append(query, Eq(FieldUserType, filter.UserType))
	}
	if filter.IsVerified != nil {
		query = append(query, Eq(FieldIsVerified, *filter.IsVerified))
	}

	docs, err := r.coll.Find(ctx, query, FindOptions{
		SortField: FieldCreatedAt,
		SortDesc:  true,
		Skip:      offset,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	accounts := make([]types.Account, 0, len(docs))
	for _, doc := range docs {
		accounts = append(accounts, accountFromDocument(doc))
	}
	return accounts, nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter Filter) (types.Account, error) {
	doc, err := r.coll.FindOne(ctx, filter)
	if err != nil {
		return types.Account{}, err
	}
	return accountFromDocument(doc), nil
}

func (r *AccountRepository) update(ctx context.Context, filter Filter, update Update) (types.Account, error) {
	doc, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return types.Account{}, err
	}
	return accountFromDocument(doc), nil
}

func accountToDocument(a types.Account) Document {
	doc := Document{
		"name":                    a.Name,
		FieldEmail:                a.Email,
		FieldPassword:             a.PasswordHash,
		FieldStudentNumber:        a.StudentNumber,
		"year":                    a.Year,
		"qualification":           a.Qualification,
		"department":              a.Department,
		FieldUserType:             a.UserType,
		FieldIsVerified:           a.IsVerified,
		fieldHasCompletedTutorial: a.HasCompletedTutorial,
		FieldLoginAttempts:        a.LoginAttempts,
		FieldAccountLocked:        a.AccountLocked,
		FieldLockUntil:            nil,
		FieldLastLogin:            nil,
		FieldCreatedAt:            a.CreatedAt,
		FieldUpdatedAt:            a.UpdatedAt,
	}
	if a.LockUntil != nil {
		doc[FieldLockUntil] = *a.LockUntil
	}
	if a.LastLogin != nil {
		doc[FieldLastLogin] = *a.LastLogin
	}
	return doc
}

func accountFromDocument(doc Document) types.Account {
	a := types.Account{
		ID:                   doc.ID(),
		Name:                 stringField(doc, "name"),
		Email:                stringField(doc, FieldEmail),
		PasswordHash:         stringField(doc, FieldPassword),
		StudentNumber:        stringField(doc, FieldStudentNumber),
		Year:                 stringField(doc, "year"),
		Qualification:        stringField(doc, "qualification"),
		Department:           stringField(doc, "department"),
		UserType:             stringField(doc, FieldUserType),
		IsVerified:           boolField(doc, FieldIsVerified),
		HasCompletedTutorial: boolField(doc, fieldHasCompletedTutorial),
		LoginAttempts:        intField(doc, FieldLoginAttempts),
		AccountLocked:        boolField(doc, FieldAccountLocked),
		LockUntil:            timePtrField(doc, FieldLockUntil),
		LastLogin:            timePtrField(doc, FieldLastLogin),
	}
	if t, ok := timeField(doc, FieldCreatedAt); ok {
		a.CreatedAt = t
	}
	if t, ok := timeField(doc, FieldUpdatedAt); ok {
		a.UpdatedAt = t
	}
	return a
}
