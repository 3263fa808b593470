package service

import (
	"errors"
	"fmt"
	"strings"
)

// 错误分级：校验/引用缺失/对账失败在持久化之前返回，
// 路由层据此映射 HTTP 状态码。
var (
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken 邮箱已注册
	ErrEmailTaken = errors.New("email already registered")
	// ErrDuplicateOrderNumber 订单号冲突（并发分配撞号），可重试
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	// ErrForbidden 没有操作权限
	ErrForbidden = errors.New("forbidden")
)

// NotFoundError 引用的资源不存在或已停用
type NotFoundError struct {
	Resource string
	Ref      string
}

func (e *NotFoundError) Error() string {
	if e.Ref == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Ref)
}

// NewNotFound 构造 NotFoundError
func NewNotFound(resource string, ref ...any) *NotFoundError {
	e := &NotFoundError{Resource: resource}
	if len(ref) > 0 {
		e.Ref = fmt.Sprint(ref[0])
	}
	return e
}

// ValidationError 入参未通过规则校验，Errors 逐条列出问题
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// ReconciliationError 客户端提交的金额与服务端核算不一致
type ReconciliationError struct {
	Reason string
}

func (e *ReconciliationError) Error() string {
	return "reconciliation failed: " + e.Reason
}
