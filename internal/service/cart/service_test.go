package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/catalog"
	"github.com/vladislavdragonenkov/cartsvc/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, domain.CartRepository, *catalog.MockLookup) {
	t.Helper()

	carts := memory.NewCartRepository()
	lookup := catalog.NewMockLookup()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewServiceWithoutMetrics(carts, lookup, logger), carts, lookup
}

func TestCreateCartValidatesUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.CreateCart(0); !errors.Is(err, domain.ErrUserIDRequired) {
		t.Fatalf("ожидали ErrUserIDRequired, получили %v", err)
	}
}

func TestCreateCartDuplicate(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.CreateCart(1); err != nil {
		t.Fatalf("первая корзина должна создаться: %v", err)
	}
	if _, err := svc.CreateCart(1); !errors.Is(err, domain.ErrCartExists) {
		t.Fatalf("ожидали ErrCartExists, получили %v", err)
	}
}

func TestAddItemRejectsInvalidQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)

	cart, err := svc.CreateCart(1)
	if err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}

	for _, quantity := range []int32{0, -3} {
		if _, _, err := svc.AddItem(cart.ID, 10, quantity); !errors.Is(err, domain.ErrQuantityInvalid) {
			t.Fatalf("quantity=%d: ожидали ErrQuantityInvalid, получили %v", quantity, err)
		}
	}
}

func TestAddItemMergesQuantities(t *testing.T) {
	svc, _, _ := newTestService(t)

	cart, err := svc.CreateCart(1)
	if err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}

	first, merged, err := svc.AddItem(cart.ID, 10, 2)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if merged {
		t.Fatal("первое добавление не должно быть слиянием")
	}
	if first.Quantity != 2 || first.Version != 0 {
		t.Fatalf("неожиданная позиция после вставки: %+v", first)
	}

	second, merged, err := svc.AddItem(cart.ID, 10, 3)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !merged {
		t.Fatal("повторное добавление того же товара должно слиться")
	}
	if second.ID != first.ID {
		t.Fatalf("слияние должно переиспользовать позицию %d, получили %d", first.ID, second.ID)
	}
	if second.Quantity != 5 {
		t.Fatalf("ожидали количество 5, получили %d", second.Quantity)
	}
	if second.Version != first.Version+1 {
		t.Fatalf("слияние должно инкрементировать версию: %d -> %d", first.Version, second.Version)
	}
}

func TestAddItemUnknownCart(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, _, err := svc.AddItem(999, 10, 1); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("ожидали ErrCartNotFound, получили %v", err)
	}
}

func TestSetItemQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)

	cart, _ := svc.CreateCart(1)
	item, _, err := svc.AddItem(cart.ID, 10, 2)
	if err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}

	updated, err := svc.SetItemQuantity(item.ID, 7)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if updated.Quantity != 7 {
		t.Fatalf("ожидали количество 7, получили %d", updated.Quantity)
	}

	if _, err := svc.SetItemQuantity(item.ID, 0); !errors.Is(err, domain.ErrQuantityInvalid) {
		t.Fatalf("нулевое количество должно отвергаться, получили %v", err)
	}
	if _, err := svc.SetItemQuantity(999, 3); !errors.Is(err, domain.ErrCartItemNotFound) {
		t.Fatalf("ожидали ErrCartItemNotFound, получили %v", err)
	}
}

func TestRemoveItemTwice(t *testing.T) {
	svc, _, _ := newTestService(t)

	cart, _ := svc.CreateCart(1)
	item, _, err := svc.AddItem(cart.ID, 10, 2)
	if err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}

	if err := svc.RemoveItem(item.ID); err != nil {
		t.Fatalf("первое удаление должно пройти: %v", err)
	}
	if err := svc.RemoveItem(item.ID); !errors.Is(err, domain.ErrCartItemNotFound) {
		t.Fatalf("повторное удаление должно дать ErrCartItemNotFound, получили %v", err)
	}
}

func TestGetCartView(t *testing.T) {
	svc, _, lookup := newTestService(t)
	lookup.Add(domain.Product{ID: 10, Name: "Olive Oil", PriceMinor: 899})

	cart, _ := svc.CreateCart(1)
	if _, _, err := svc.AddItem(cart.ID, 10, 2); err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}
	// Товар 11 в каталоге отсутствует.
	if _, _, err := svc.AddItem(cart.ID, 11, 1); err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}

	view, err := svc.GetCart(context.Background(), 1)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("ожидали 2 позиции, получили %d", len(view.Items))
	}
	if view.Items[0].ProductName != "Olive Oil" || view.Items[0].PriceMinor != 899 {
		t.Fatalf("неожиданная первая позиция: %+v", view.Items[0])
	}
	if view.Items[1].ProductName != "" || view.Items[1].PriceMinor != 0 {
		t.Fatalf("выпавший из каталога товар должен отдаваться пустым: %+v", view.Items[1])
	}
}

func TestGetCartCatalogTransportFailure(t *testing.T) {
	svc, _, lookup := newTestService(t)

	cart, _ := svc.CreateCart(1)
	if _, _, err := svc.AddItem(cart.ID, 10, 1); err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}
	lookup.Err = errors.New("catalog down")

	if _, err := svc.GetCart(context.Background(), 1); err == nil {
		t.Fatal("сбой каталога должен всплыть ошибкой")
	}
}

func TestGetCartUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.GetCart(context.Background(), 404); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("ожидали ErrCartNotFound, получили %v", err)
	}
}

// conflictingRepo подсовывает конфликт версии первым N апдейтам.
type conflictingRepo struct {
	domain.CartRepository
	conflicts int
	updates   int
}

func (r *conflictingRepo) UpdateItem(item domain.CartItem) (domain.CartItem, error) {
	r.updates++
	if r.updates <= r.conflicts {
		return domain.CartItem{}, domain.ErrItemVersionConflict
	}
	return r.CartRepository.UpdateItem(item)
}

func newConflictingService(t *testing.T, conflicts int) (*Service, *conflictingRepo, domain.CartItem) {
	t.Helper()

	inner := memory.NewCartRepository()
	if _, err := inner.CreateCart(1); err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}
	item, err := inner.InsertItem(domain.CartItem{CartID: 1, ProductID: 10, Quantity: 2})
	if err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}

	repo := &conflictingRepo{CartRepository: inner, conflicts: conflicts}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewServiceWithoutMetrics(repo, catalog.NewMockLookup(), logger), repo, item
}

func TestMutateItemRetriesOnce(t *testing.T) {
	svc, repo, item := newConflictingService(t, 1)

	updated, err := svc.SetItemQuantity(item.ID, 9)
	if err != nil {
		t.Fatalf("одиночный конфликт должен разрешиться повтором: %v", err)
	}
	if updated.Quantity != 9 {
		t.Fatalf("ожидали количество 9, получили %d", updated.Quantity)
	}
	if repo.updates != 2 {
		t.Fatalf("ожидали ровно 2 попытки записи, получили %d", repo.updates)
	}
}

func TestMutateItemSurfacesConflictAfterRetry(t *testing.T) {
	svc, repo, item := newConflictingService(t, 10)

	if _, err := svc.SetItemQuantity(item.ID, 9); !errors.Is(err, domain.ErrItemVersionConflict) {
		t.Fatalf("исчерпанный бюджет retry должен всплыть конфликтом, получили %v", err)
	}
	if repo.updates != 2 {
		t.Fatalf("ожидали ровно 2 попытки записи, получили %d", repo.updates)
	}
}

func TestConcurrentSetItemQuantity(t *testing.T) {
	svc, carts, _ := newTestService(t)

	cart, _ := svc.CreateCart(1)
	item, _, err := svc.AddItem(cart.ID, 10, 1)
	if err != nil {
		t.Fatalf("подготовка не удалась: %v", err)
	}

	const writers = 2
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SetItemQuantity(item.ID, int32(10+i))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil && !errors.Is(err, domain.ErrItemVersionConflict) {
			t.Fatalf("writer %d: неожиданная ошибка %v", i, err)
		}
	}

	final, err := carts.GetItem(item.ID)
	if err != nil {
		t.Fatalf("позиция должна остаться: %v", err)
	}
	if final.Quantity != 10 && final.Quantity != 11 {
		t.Fatalf("итоговое количество должно принадлежать одному из писателей, получили %d", final.Quantity)
	}
	if final.Version < 1 {
		t.Fatalf("версия должна вырасти после записи, получили %d", final.Version)
	}
}

func TestConcurrentAddSameProductMerges(t *testing.T) {
	svc, carts, _ := newTestService(t)

	cart, _ := svc.CreateCart(1)

	const writers = 4
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.AddItem(cart.ID, 10, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, domain.ErrItemVersionConflict) {
			t.Fatalf("writer %d: неожиданная ошибка %v", i, err)
		}
	}
	if succeeded == 0 {
		t.Fatal("хотя бы одно добавление должно пройти")
	}

	items, err := carts.ListItems(cart.ID)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("все добавления должны слиться в одну позицию, получили %d", len(items))
	}
	if items[0].Quantity != int32(succeeded) {
		t.Fatalf("количество %d не совпадает с числом успешных добавлений %d", items[0].Quantity, succeeded)
	}
}
