package user

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// 用户角色
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// ValidRole 角色是否合法
func ValidRole(role string) bool {
	return role == RoleBuyer || role == RoleSeller
}

// User 用户模型。账号不做物理删除，停用通过 Active 标记。
type User struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	FullName    string     `gorm:"size:100;not null" json:"full_name"`
	Phone       string     `gorm:"size:16;not null" json:"phone"` // 已规范化的手机号
	Email       string     `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Address     string     `gorm:"size:200" json:"address,omitempty"` // 仅买家必填
	Password    string     `gorm:"size:72;not null" json:"-"`         // bcrypt 哈希
	Role        string     `gorm:"size:16;index;not null" json:"role"`
	Active      bool       `gorm:"index;default:true" json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsBuyer 是否买家
func (u *User) IsBuyer() bool { return u.Role == RoleBuyer }

// IsSeller 是否卖家
func (u *User) IsSeller() bool { return u.Role == RoleSeller }

var (
	phoneSeparators = regexp.MustCompile(`[\s\-()+]`)
	localPhone      = regexp.MustCompile(`^[678]\d{7}$`)
	countryPhone    = regexp.MustCompile(`^591[678]\d{7}$`)
)

// NormalizePhone 清洗手机号：去掉空格/横线/括号/加号，保留裸数字
func NormalizePhone(raw string) string {
	return phoneSeparators.ReplaceAllString(raw, "")
}

// ValidPhone 校验玻利维亚手机号：8 位、6/7/8 开头，可带 591 国家码
func ValidPhone(raw string) bool {
	clean := NormalizePhone(raw)
	return localPhone.MatchString(clean) || countryPhone.MatchString(clean)
}

var emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// ValidEmail 校验邮箱格式
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// Repository 用户仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByEmail 只返回激活账号，邮箱不区分大小写
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	// List 返回激活账号，role 为空时不过滤
	List(ctx context.Context, role string) ([]*User, error)
}
