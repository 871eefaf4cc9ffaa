package memory

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// userRepositoryInMemory — простая in-memory реализация UserRepository.
type userRepositoryInMemory struct {
	mu         sync.RWMutex
	users      map[int64]domain.User
	byExternal map[string]int64
	nextID     int64
}

// NewUserRepository возвращает in-memory репозиторий пользователей.
func NewUserRepository() domain.UserRepository {
	return &userRepositoryInMemory{
		users:      make(map[int64]domain.User),
		byExternal: make(map[string]int64),
	}
}

// Create сохраняет нового пользователя; внешний идентификатор уникален.
func (r *userRepositoryInMemory) Create(user domain.User) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byExternal[user.ExternalID]; exists {
		return domain.User{}, domain.ErrUserExists
	}

	r.nextID++
	now := time.Now().UTC()
	user.ID = r.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	r.byExternal[user.ExternalID] = user.ID
	return user, nil
}

// GetByID возвращает пользователя или ErrUserNotFound.
func (r *userRepositoryInMemory) GetByID(id int64) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// GetByExternalID ищет пользователя по внешнему идентификатору.
func (r *userRepositoryInMemory) GetByExternalID(externalID string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byExternal[externalID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return r.users[id], nil
}

// Update перезаписывает отображаемые поля; ID и ExternalID неизменяемы.
func (r *userRepositoryInMemory) Update(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}

	current.Email = user.Email
	current.FullName = user.FullName
	current.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = current
	return nil
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
