package models

type UserRole string // Роль пользователя

const (
	RoleUser     UserRole = "USER"     // Клиент, подающий заявки
	RoleOperator UserRole = "OPERATOR" // Оператор техники
	RoleManager  UserRole = "MANAGER"  // Менеджер, ведущий заявки
	RoleAdmin    UserRole = "ADMIN"    // Администратор и системные операции
)

// Valid сообщает, является ли роль одной из известных.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleOperator, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User представляет модель пользователя платформы.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}
