package services

import (
	"context"
	"strings"
	"time"

	"github.com/campusnav/apiserver/internal/store"
	"github.com/campusnav/apiserver/types"
)

const (
	defaultAdminDepartment = "Admin"
	defaultAdminRole       = "standard"
)

// AdminInput carries admin create and update fields. On update, empty
// fields are left unchanged.
type AdminInput struct {
	Name       string
	Surname    string
	Email      string
	Department string
	Role       string
	Password   string
}

// AdminService manages console administrators.
type AdminService struct {
	repo   *store.AdminRepository
	hasher PasswordHasher
	now    func() time.Time
}

func NewAdminService(repo *store.AdminRepository, hashCost int) *AdminService {
	return &AdminService{repo: repo, hasher: NewPasswordHasher(hashCost), now: time.Now}
}

func (s *AdminService) List(ctx context.Context) ([]types.Admin, error) {
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return admins, nil
}

func (s *AdminService) Get(ctx context.Context, id string) (types.Admin, error) {
	admin, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Admin{}, storeError(err)
	}
	return admin, nil
}

// GetByEmail matches case-insensitively.
func (s *AdminService) GetByEmail(ctx context.Context, email string) (types.Admin, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return types.Admin{}, invalidRequest("email is required")
	}
	admin, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return types.Admin{}, storeError(err)
	}
	return admin, nil
}

func (s *AdminService) Create(ctx context.Context, in AdminInput) (types.Admin, error) {
	in = in.trimmed()
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return types.Admin{}, invalidRequest("name, email and password are required")
	}
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return types.Admin{}, err
	}

	admin := types.Admin{
		Name:         in.Name,
		Surname:      in.Surname,
		Email:        NormalizeEmail(in.Email),
		Department:   in.Department,
		Role:         in.Role,
		PasswordHash: hashed,
		CreatedAt:    s.now(),
	}
	if admin.Department == "" {
		admin.Department = defaultAdminDepartment
	}
	if admin.Role == "" {
		admin.Role = defaultAdminRole
	}

	created, err := s.repo.Create(ctx, admin)
	if err != nil {
		return types.Admin{}, storeError(err)
	}
	return created, nil
}

// Update changes only the non-empty fields of in.
func (s *AdminService) Update(ctx context.Context, id string, in AdminInput) (types.Admin, error) {
	in = in.trimmed()
	fields := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	set("name", in.Name)
	set("surname", in.Surname)
	set(store.FieldEmail, NormalizeEmail(in.Email))
	set("department", in.Department)
	set("role", in.Role)
	if in.Password != "" {
		hashed, err := s.hasher.Hash(in.Password)
		if err != nil {
			return types.Admin{}, err
		}
		fields[store.FieldPassword] = hashed
	}
	if len(fields) == 0 {
		return types.Admin{}, invalidRequest("no fields to update")
	}

	admin, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return types.Admin{}, storeError(err)
	}
	return admin, nil
}

func (s *AdminService) Delete(ctx context.Context, id string) error {
	return storeError(s.repo.Delete(ctx, id))
}

func (in AdminInput) trimmed() AdminInput {
	return AdminInput{
		Name:       strings.TrimSpace(in.Name),
		Surname:    strings.TrimSpace(in.Surname),
		Email:      strings.TrimSpace(in.Email),
		Department: strings.TrimSpace(in.Department),
		Role:       strings.TrimSpace(in.Role),
		Password:   in.Password,
	}
}
