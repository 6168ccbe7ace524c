package host

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Toasts collects user-visible error messages. The headless host logs them
// instead of drawing a toast.
type Toasts struct {
	mu       sync.Mutex
	messages []string
	logger   *slog.Logger
}

func NewToasts(logger *slog.Logger) *Toasts {
	if logger == nil {
		logger = slog.Default()
	}
	return &Toasts{logger: logger}
}

func (t *Toasts) ReportError(ctx context.Context, message string) {
	t.mu.Lock()
	t.messages = append(t.messages, message)
	t.mu.Unlock()

	t.logger.WarnContext(ctx, "user error toast", "message", message)
}

// Messages returns every reported message, oldest first.
func (t *Toasts) Messages() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.messages)
}
