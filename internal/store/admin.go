package store

import (
	"context"

	"github.com/campusnav/apiserver/types"
)

// AdminRepository handles persistence for console administrators.
type AdminRepository struct {
	coll Collection
}

func NewAdminRepository(db Database) *AdminRepository {
	return &AdminRepository{coll: db.Collection(CollectionAdmins)}
}

func (r *AdminRepository) List(ctx context.Context) ([]types.Admin, error) {
	docs, err := r.coll.Find(ctx, Filter{}, FindOptions{})
	if err != nil {
		return nil, err
	}
	admins := make([]types.Admin, 0, len(docs))
	for _, doc := range docs {
		admins = append(admins, adminFromDocument(doc))
	}
	return admins, nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (types.Admin, error) {
	if !r.coll.ValidID(id) {
		return types.Admin{}, ErrNotFound
	}
	return r.findOne(ctx, ByID(id))
}

// GetByEmail matches the email case-insensitively.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (types.Admin, error) {
	return r.findOne(ctx, Filter{EqFold(FieldEmail, email)})
}

func (r *AdminRepository) Create(ctx context.Context, admin types.Admin) (types.Admin, error) {
	id, err := r.coll.InsertOne(ctx, Document{
		"name":         admin.Name,
		"surname":      admin.Surname,
		FieldEmail:     admin.Email,
		"department":   admin.Department,
		"role":         admin.Role,
		FieldPassword:  admin.PasswordHash,
		FieldCreatedAt: admin.CreatedAt,
	})
	if err != nil {
		return types.Admin{}, err
	}
	admin.ID = id
	return admin, nil
}

// Update applies the given field assignments. Keys are document field names.
func (r *AdminRepository) Update(ctx context.Context, id string, fields map[string]any) (types.Admin, error) {
	if !r.coll.ValidID(id) {
		return types.Admin{}, ErrNotFound
	}
	doc, err := r.coll.UpdateOne(ctx, ByID(id), Update{Set: fields})
	if err != nil {
		return types.Admin{}, err
	}
	return adminFromDocument(doc), nil
}

func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	if !r.coll.ValidID(id) {
		return ErrNotFound
	}
	return r.coll.DeleteOne(ctx, ByID(id))
}

func (r *AdminRepository) findOne(ctx context.Context, filter Filter) (types.Admin, error) {
	doc, err := r.coll.FindOne(ctx, filter)
	if err != nil {
		return types.Admin{}, err
	}
	return adminFromDocument(doc), nil
}

func adminFromDocument(doc Document) types.Admin {
	a := types.Admin{
		ID:           doc.ID(),
		Name:         stringField(doc, "name"),
		Surname:      stringField(doc, "surname"),
		Email:        stringField(doc, FieldEmail),
		Department:   stringField(doc, "department"),
		Role:         stringField(doc, "role"),
		PasswordHash: stringField(doc, FieldPassword),
	}
	if t, ok := timeField(doc, FieldCreatedAt); ok {
		a.CreatedAt = t
	}
	return a
}
