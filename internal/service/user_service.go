package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/alfredoT7/io2-back/internal/auth"
	"github.com/alfredoT7/io2-back/internal/config"
	"github.com/alfredoT7/io2-back/internal/datamodels/user"
)

// bcryptCost 密码哈希强度
const bcryptCost = 12

// UserService 用户注册、登录、资料维护
type UserService struct {
	users  user.Repository
	jwtCfg *config.JWTConfig
}

// NewUserService 创建用户服务
func NewUserService(users user.Repository, jwtCfg *config.JWTConfig) *UserService {
	return &UserService{users: users, jwtCfg: jwtCfg}
}

// RegisterInput 注册请求
type RegisterInput struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register 注册新用户，返回用户和登录令牌。
// 规则全部通过才落库：姓名、手机号、邮箱、密码长度、角色，
// 买家必须填收货地址。
func (s *UserService) Register(ctx context.Context, in *RegisterInput) (*user.User, string, error) {
	var errs []string

	name := strings.TrimSpace(in.FullName)
	if len(name) < 2 {
		errs = append(errs, "full name must have at least 2 characters")
	}
	if !user.ValidPhone(in.Phone) {
		errs = append(errs, "phone must be a valid mobile number (8 digits starting with 6, 7 or 8)")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !user.ValidEmail(email) {
		errs = append(errs, "email is not valid")
	}
	if len(in.Password) < 6 {
		errs = append(errs, "password must have at least 6 characters")
	}
	if !user.ValidRole(in.Role) {
		errs = append(errs, "role must be buyer or seller")
	}
	if in.Role == user.RoleBuyer && strings.TrimSpace(in.Address) == "" {
		errs = append(errs, "address is required for buyers")
	}
	if len(errs) > 0 {
		return nil, "", &ValidationError{Errors: errs}
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, "", ErrEmailTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		GetMonitor().RecordDBError()
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, "", err
	}

	u := &user.User{
		FullName: name,
		Phone:    user.NormalizePhone(in.Phone),
		Email:    email,
		Address:  strings.TrimSpace(in.Address),
		Password: string(hash),
		Role:     in.Role,
		Active:   true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册同一邮箱时靠唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrEmailTaken
		}
		GetMonitor().RecordDBError()
		return nil, "", err
	}

	token, err := auth.GenerateToken(s.jwtCfg, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login 邮箱密码登录。账号不存在、已停用或密码不符，
// 一律返回同一个错误，不泄露具体原因。
func (s *UserService) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		GetMonitor().RecordDBError()
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	u.LastLoginAt = &now
	if err := s.users.Update(ctx, u); err != nil {
		GetMonitor().RecordDBError()
		return nil, "", err
	}

	token, err := auth.GenerateToken(s.jwtCfg, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Profile 查询用户资料
func (s *UserService) Profile(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFound("user", id)
		}
		GetMonitor().RecordDBError()
		return nil, err
	}
	if !u.Active {
		return nil, NewNotFound("user", id)
	}
	return u, nil
}

// UpdateProfileInput 资料更新请求，零值字段不更新
type UpdateProfileInput struct {
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// UpdateProfile 更新用户资料。地址只对买家生效，邮箱和角色不可改。
func (s *UserService) UpdateProfile(ctx context.Context, id int64, in *UpdateProfileInput) (*user.User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	var errs []string
	if in.FullName != "" {
		name := strings.TrimSpace(in.FullName)
		if len(name) < 2 {
			errs = append(errs, "full name must have at least 2 characters")
		} else {
			u.FullName = name
		}
	}
	if in.Phone != "" {
		if !user.ValidPhone(in.Phone) {
			errs = append(errs, "phone must be a valid mobile number (8 digits starting with 6, 7 or 8)")
		} else {
			u.Phone = user.NormalizePhone(in.Phone)
		}
	}
	if in.Address != "" {
		if !u.IsBuyer() {
			errs = append(errs, "only buyers have a shipping address")
		} else {
			u.Address = strings.TrimSpace(in.Address)
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	if err := s.users.Update(ctx, u); err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return u, nil
}

// List 按角色列出激活用户，role 为空时返回全部
func (s *UserService) List(ctx context.Context, role string) ([]*user.User, error) {
	if role != "" && !user.ValidRole(role) {
		return nil, &ValidationError{Errors: []string{"role must be buyer or seller"}}
	}
	list, err := s.users.List(ctx, role)
	if err != nil {
		GetMonitor().RecordDBError()
		return nil, err
	}
	return list, nil
}
