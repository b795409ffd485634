package domain

import "time"

// Role определяет уровень доступа пользователя.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleAdmin  Role = "ADMIN"
)

// Admin сообщает, является ли роль административной.
func (r Role) Admin() bool {
	return r == RoleAdmin
}

// User — учётная запись покупателя или администратора.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity — разрешённая личность вызывающего: кто и с какой ролью.
// Выдаётся identity-провайдером после проверки токена.
type Identity struct {
	UserID string
	Role   Role
}

// CanManageOrder проверяет право на изменение заказа: владелец или админ.
func (i Identity) CanManageOrder(ownerID string) bool {
	return i.UserID == ownerID || i.Role.Admin()
}
