package database

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type txKey struct{}

type hooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

func (h *commitHooks) add(fns ...func(ctx context.Context)) {
	h.mu.Lock()
	h.fns = append(h.fns, fns...)
	h.mu.Unlock()
}

// WithTx returns a context that carries tx, so stores called with it join the
// same transaction instead of opening their own.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Conn returns the transaction carried by ctx, or db when there is none.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// Transaction runs fn in a transaction. Called inside another transaction it
// nests through a savepoint, and its commit hooks move to the parent.
func Transaction(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	parent, _ := ctx.Value(hooksKey{}).(*commitHooks)
	hooks := &commitHooks{}
	err := Conn(ctx, db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(WithTx(ctx, tx), hooksKey{}, hooks))
	})
	if err != nil {
		return err
	}
	if parent != nil {
		parent.add(hooks.fns...)
		return nil
	}
	hookCtx := Detach(ctx)
	for _, f := range hooks.fns {
		f(hookCtx)
	}
	return nil
}

// AfterCommit defers fn until the outermost transaction carried by ctx
// commits. fn is dropped if that transaction rolls back, and runs
// immediately when ctx carries no transaction. The ctx handed to fn carries
// no transaction, so stores called from fn use the plain connection.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	if h, ok := ctx.Value(hooksKey{}).(*commitHooks); ok {
		h.add(fn)
		return
	}
	fn(Detach(ctx))
}

type detached struct {
	context.Context
}

func (d detached) Value(key any) any {
	switch key.(type) {
	case txKey, hooksKey:
		return nil
	}
	return d.Context.Value(key)
}

// Detach returns ctx without its transaction and commit hooks. Deadlines,
// cancellation and other values are kept.
func Detach(ctx context.Context) context.Context {
	if ctx.Value(txKey{}) == nil && ctx.Value(hooksKey{}) == nil {
		return ctx
	}
	return detached{ctx}
}

// Transactor adapts Transaction to services that only need a unit of work.
type Transactor struct {
	DB *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{DB: db}
}

func (t *Transactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return Transaction(ctx, t.DB, fn)
}
