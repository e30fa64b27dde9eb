package data

import (
	"context"
	"errors"
	"fmt"

	"cinescope/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

type userRepo struct {
	data *Data
	log  *log.Helper
}

// NewUserRepo creates a new user repository
func NewUserRepo(data *Data, logger log.Logger) biz.UserRepo {
	return &userRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *userRepo) CreateUser(ctx context.Context, user *biz.User) error {
	dbUser := &User{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		AvatarURL:    user.AvatarURL,
		JoinedAt:     user.JoinedAt,
	}
	if err := r.data.DB(ctx).Create(dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return biz.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepo) GetUser(ctx context.Context, id string) (*biz.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*biz.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var count int64
	err := r.data.DB(ctx).Model(&User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count > 0, nil
}

func (r *userRepo) UpdateUsername(ctx context.Context, id, username string) error {
	result := r.data.DB(ctx).Model(&User{}).Where("id = ?", id).Update("username", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return biz.ErrUsernameTaken
		}
		return fmt.Errorf("failed to update username: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return biz.ErrUserNotFound
	}
	return nil
}

func (r *userRepo) first(ctx context.Context, query string, arg any) (*biz.User, error) {
	var u User
	if err := r.data.DB(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &biz.User{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         biz.Role(u.Role),
		JoinedAt:     u.JoinedAt,
		AvatarURL:    u.AvatarURL,
	}, nil
}
