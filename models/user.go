package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/float_backend/config"
	"github.com/mmdatafocus/float_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Username  string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Email     *string   `gorm:"size:100;uniqueIndex" json:"email"`
	FullName  string    `gorm:"size:150;not null" json:"full_name"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;not null;default:owner" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" binding:"required"`
	Email    string   `json:"email" binding:"omitempty,email"`
	FullName string   `json:"full_name" binding:"required"`
	Password string   `json:"password" binding:"required,min=8"`
	Role     UserRole `json:"role" binding:"required,oneof=owner cashier"`
}

/*
caches:
	User:$id
*/

const userCacheTTL = 10 * time.Minute

func (user *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&user.ID)
	return nil
}

func (user User) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("User:" + user.ID)
}

func (user User) Active() bool {
	return user.IsActive != nil && *user.IsActive
}

// GetUser loads a user by id, served from redis when cached.
func GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject("User:"+id, &user)
	if err != nil {
		config.LogError(config.GetLogger(), "User", "GetUser", "redis read", id, err)
	}
	if exists {
		return &user, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("User")
		}
		return nil, err
	}
	if err := config.SetRedisObject("User:"+id, &user, userCacheTTL); err != nil {
		config.LogError(config.GetLogger(), "User", "GetUser", "redis write", id, err)
	}
	return &user, nil
}

// CreateUser stores a user with a bcrypt-hashed password.
func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := User{
		Username: strings.TrimSpace(input.Username),
		FullName: strings.TrimSpace(input.FullName),
		Password: hashed,
		Role:     input.Role,
		IsActive: utils.NewTrue(),
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		user.Email = &email
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewValidation("username or email already taken", map[string]string{"username": "unique"})
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByUsername bypasses the cache.
func FindUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := config.GetDB().WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFound("User")
		}
		return nil, err
	}
	return &user, nil
}

type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login checks the credentials and issues a bearer token. Unknown users and
// wrong passwords get the same error.
func Login(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	user, err := FindUserByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if utils.IsAppErrorCode(err, utils.CodeNotFound) {
			return nil, utils.NewUnauthorized("invalid username or password")
		}
		return nil, err
	}
	if !utils.PasswordMatches(user.Password, input.Password) {
		return nil, utils.NewUnauthorized("invalid username or password")
	}
	if !user.Active() {
		return nil, utils.NewUnauthorized("user is inactive")
	}
	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}
