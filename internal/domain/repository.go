package domain

import "context"

// OrderRepository описывает требования к хранилищу заказов.
// Шаги отслеживания сохраняются и читаются вместе с заказом через кодек шагов.
type OrderRepository interface {
	// Insert сохраняет заказ и все его шаги атомарно. Возвращает заказ с
	// назначенными хранилищем временами шагов. Если код отслеживания занят — ErrTrackingCodeTaken.
	Insert(ctx context.Context, order Order) (Order, error)
	// Update заменяет поля заказа и полностью пересоздаёт набор шагов
	// (delete-then-reinsert). Исходные времена шагов при этом теряются.
	Update(ctx context.Context, order Order) error
	// Delete удаляет заказ вместе со всеми шагами или возвращает ErrOrderNotFound.
	Delete(ctx context.Context, orderID string) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(ctx context.Context, orderID string) (Order, error)
	// FindByOwner возвращает заказы пользователя, новые первыми.
	FindByOwner(ctx context.Context, userID string) ([]Order, error)
	// FindByTrackingCode ищет заказ по коду без учёта регистра.
	// Отсутствие заказа — не ошибка: found=false.
	FindByTrackingCode(ctx context.Context, code string) (order Order, found bool, err error)
}
