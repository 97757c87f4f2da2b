package theater

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/chiedza-labs/resurrect/agent"
)

// Pacing bounds the two randomized delays applied before each scripted
// commit: a thinking pause before the typing indicator, then a typing pause
// before the message lands.
type Pacing struct {
	ThinkMin time.Duration
	ThinkMax time.Duration
	TypeMin  time.Duration
	TypeMax  time.Duration
}

// DefaultPacing is the stage-demo rhythm.
var DefaultPacing = Pacing{
	ThinkMin: 600 * time.Millisecond,
	ThinkMax: 1400 * time.Millisecond,
	TypeMin:  900 * time.Millisecond,
	TypeMax:  2200 * time.Millisecond,
}

func (p Pacing) orDefault() Pacing {
	if p == (Pacing{}) {
		return DefaultPacing
	}
	return p
}

// Player replays a fixed script one message at a time, with a randomized
// "thinking" pause before the typing indicator and a randomized "typing"
// pause before the message commits. Every pending timer is torn down on
// Stop or context cancellation: once stopped, no further commits happen.
type Player struct {
	script []Message

	// Pacing overrides DefaultPacing when set before Start.
	Pacing Pacing

	// OnTyping fires when a role starts "typing", before the commit delay.
	OnTyping func(agent.Type)
	// OnMessage fires for every committed message, in script order.
	OnMessage func(Message)
	// OnProgress fires after each commit with committed/total*100.
	OnProgress func(float64)
	// OnDone fires after the final message commits.
	OnDone func()

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	done    chan struct{}
}

// NewPlayer builds a player over a copy of script.
func NewPlayer(script []Message) *Player {
	s := make([]Message, len(script))
	copy(s, script)
	return &Player{script: s}
}

// Start begins playback. It returns immediately; commits arrive on the
// player's callbacks from a single background goroutine. Starting an
// already-started player is a no-op.
func (p *Player) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil || p.stopped {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.play(ctx)
}

// Stop cancels playback and waits for the playback goroutine to exit, so
// callers are guaranteed zero commits after Stop returns.
func (p *Player) Stop() {
	p.mu.Lock()
	p.stopped = true
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Done reports playback completion; the channel closes whether playback
// finished naturally or was stopped.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.done
}

func (p *Player) play(ctx context.Context) {
	defer close(p.done)
	pacing := p.Pacing.orDefault()
	total := len(p.script)
	for i, msg := range p.script {
		if !sleep(ctx, jitter(pacing.ThinkMin, pacing.ThinkMax)) {
			return
		}
		if p.OnTyping != nil {
			p.OnTyping(msg.Agent)
		}
		if !sleep(ctx, jitter(pacing.TypeMin, pacing.TypeMax)) {
			return
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = time.Now()
		}
		if p.OnMessage != nil {
			p.OnMessage(msg)
		}
		if p.OnProgress != nil {
			p.OnProgress(float64(i+1) / float64(total) * 100)
		}
	}
	if p.OnDone != nil {
		p.OnDone()
	}
}

// sleep waits for d or until ctx is cancelled, reporting whether the full
// delay elapsed. The timer is stopped on cancellation so nothing leaks.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}
