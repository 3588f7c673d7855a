// Package locker сериализует обработку сообщений одного разговора.
package locker

import (
	"context"
	"errors"
)

// ErrNotHeld - блокировка уже истекла или принадлежит другому владельцу.
var ErrNotHeld = errors.New("lock is not held")

// Unlock освобождает блокировку. Повторный вызов ничего не делает.
type Unlock func()

// Locker выдает эксклюзивную блокировку по ключу.
// Lock ждет освобождения, пока не отменен ctx.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}
