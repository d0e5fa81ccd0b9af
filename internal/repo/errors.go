package repo

import (
	"context"
	"errors"
	"fmt"
)

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState — операция невозможна в текущем состоянии.
	ErrInvalidState = errors.New("invalid state")

	// ErrStoreUnavailable — хранилище недоступно (сеть, таймаут, отказ БД).
	// Scheduler прерывает текущую фазу и ждёт следующего тика.
	ErrStoreUnavailable = errors.New("content store unavailable")
)

// unavailable оборачивает ошибку драйвера так, чтобы по ней срабатывал
// errors.Is(err, ErrStoreUnavailable), а исходная причина сохранялась.
// Отмена контекста вызывающим не считается отказом хранилища.
func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
