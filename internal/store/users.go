package store

import (
	"context"
	"time"

	"blogapi/internal/models"
)

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	return user, translate(err)
}

func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return user, translate(err)
}

func (s *GormStore) UpdateUser(ctx context.Context, user *models.User) error {
	res := s.db.WithContext(ctx).Model(user).Select("Name", "Email", "Password", "Role").Updates(user)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateToken(ctx context.Context, token *models.AccessToken) error {
	return translate(s.db.WithContext(ctx).Create(token).Error)
}

func (s *GormStore) GetToken(ctx context.Context, id string) (models.AccessToken, error) {
	var token models.AccessToken
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&token).Error
	return token, translate(err)
}

// RevokeToken is idempotent: an already revoked token keeps its first revocation time.
func (s *GormStore) RevokeToken(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.AccessToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	return translate(res.Error)
}

func (s *GormStore) TouchToken(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.AccessToken{}).
		Where("id = ?", id).
		Update("last_used_at", at)
	return translate(res.Error)
}
