package watcher

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jpagh/docassemblecli3/internal/dacli/ignore"
	"github.com/jpagh/docassemblecli3/internal/log"
)

// DefaultDebounce is the settle window applied when none is configured
const DefaultDebounce = 3 * time.Second

// restartExts are file extensions whose change requires a server restart
var restartExts = []string{".py"}

// Notifier receives the install-needed signal for a settled batch
type Notifier interface {
	Notify(restartRequired bool)
}

// Batcher coalesces raw filesystem events into install-needed signals.
// Events are filtered through the ignore matcher and accumulated over a
// sliding debounce window: each accepted event restarts the window, and
// only a full window of silence flushes the batch. The flush carries a
// single restart flag, the OR over every accumulated event's
// classification.
type Batcher struct {
	root     string
	debounce time.Duration
	matcher  *ignore.Matcher
	notifier Notifier
}

// NewBatcher creates a batcher for events under root
func NewBatcher(root string, debounce time.Duration, matcher *ignore.Matcher, notifier Notifier) *Batcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Batcher{
		root:     root,
		debounce: debounce,
		matcher:  matcher,
		notifier: notifier,
	}
}

// Run consumes events until the channel closes or ctx is cancelled.
// Timer expiry and event arrival are both inputs of one select loop, so
// the state machine stays strictly serialized. A pending batch is
// flushed exactly once on shutdown.
func (b *Batcher) Run(ctx context.Context, events <-chan Event) {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = newPendingBatch()
	)

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}
	resetTimer := func() {
		stopTimer()
		timer = time.NewTimer(b.debounce)
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			stopTimer()
			b.flush(pending)
			return

		case ev, ok := <-events:
			if !ok {
				stopTimer()
				b.flush(pending)
				return
			}
			if !b.accept(ev) {
				continue
			}
			pending.add(ev)
			resetTimer()

		case <-timerC:
			timerC = nil
			timer = nil
			b.flush(pending)
			pending = newPendingBatch()
		}
	}
}

// accept filters one raw event through the ignore rules
func (b *Batcher) accept(ev Event) bool {
	if ev.IsDir {
		// Directory events (creation, attribute touches) never carry
		// content worth installing; file events inside will follow
		return false
	}
	rel, err := filepath.Rel(b.root, ev.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	if b.matcher != nil && b.matcher.Matches(rel, ev.IsDir) {
		log.DebugH2("Ignoring %s (%s)", rel, ev.Kind)
		return false
	}
	return true
}

// flush emits the install-needed signal for a non-empty batch
func (b *Batcher) flush(pending *pendingBatch) {
	if pending.empty() {
		return
	}
	for _, path := range pending.paths(b.root) {
		log.InfoH2("%s", path)
	}
	b.notifier.Notify(pending.restart)
}

// pendingBatch is the debounce accumulator
type pendingBatch struct {
	files   map[string]bool
	restart bool
}

func newPendingBatch() *pendingBatch {
	return &pendingBatch{files: make(map[string]bool)}
}

func (p *pendingBatch) add(ev Event) {
	p.files[ev.Path] = true
	if restartWorthy(ev.Path) {
		p.restart = true
	}
}

func (p *pendingBatch) empty() bool {
	return len(p.files) == 0
}

func (p *pendingBatch) paths(root string) []string {
	out := make([]string, 0, len(p.files))
	for path := range p.files {
		if rel, err := filepath.Rel(root, path); err == nil {
			path = rel
		}
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// restartWorthy reports whether a change to path requires a server
// restart to take effect
func restartWorthy(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range restartExts {
		if ext == e {
			return true
		}
	}
	return false
}
