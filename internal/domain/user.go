package domain

import "time"

// User — внутренний пользователь сервиса. Создаётся при первом успешном
// разрешении внешнего identity-токена; ID неизменяем после создания.
type User struct {
	ID int64
	// ExternalID — идентификатор из внешнего identity-провайдера.
	ExternalID string
	Email      string
	FullName   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidateInvariants проверяет обязательные поля пользователя.
func (u *User) ValidateInvariants() []error {
	var errs []error

	if u.ExternalID == "" {
		errs = append(errs, ErrExternalIDRequired)
	}

	return errs
}
