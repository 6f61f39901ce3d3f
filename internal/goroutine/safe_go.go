package goroutine

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/logger"
)

func recoverPanic(name string) {
	if r := recover(); r != nil {
		logger.WithComponent("goroutine").WithFields(logrus.Fields{
			"task":  name,
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("panic в фоновой задаче")
	}
}

// SafeGo запускает горутину с обработкой panic.
func SafeGo(name string, fn func()) {
	go func() {
		defer recoverPanic(name)
		fn()
	}()
}

// Group запускает фоновые задачи и позволяет дождаться их при остановке.
type Group struct {
	wg sync.WaitGroup
}

// Go запускает fn с контекстом, не зависящим от отмены родителя: задача переживает HTTP-запрос.
func (g *Group) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	g.wg.Add(1)
	bg := context.WithoutCancel(ctx)
	go func() {
		defer g.wg.Done()
		defer recoverPanic(name)
		fn(bg)
	}()
}

func (g *Group) Wait() {
	g.wg.Wait()
}
