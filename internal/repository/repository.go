package repository

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrOwnerConflict - пользователь уже владеет другой командой (нарушение уникальности)
	ErrOwnerConflict = errors.New("owner already has a team")
)

// TxFunc получает репозитории, привязанные к одной транзакции
type TxFunc func(ctx context.Context, teams TeamRepository, users UserRepository) error

// Transactor выполняет fn как одну логическую единицу: либо все изменения фиксируются, либо ни одно
type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}
