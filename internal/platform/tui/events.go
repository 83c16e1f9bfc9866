package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/neostack/internal/multiplayer"
)

// sessionEventMsg carries one session event into the Bubble Tea loop.
type sessionEventMsg struct {
	evt multiplayer.Event
}

var bridgedKinds = []multiplayer.EventKind{
	multiplayer.EventRoomCreated,
	multiplayer.EventRoomJoined,
	multiplayer.EventError,
	multiplayer.EventPlayerJoined,
	multiplayer.EventGameStart,
	multiplayer.EventOpponentState,
	multiplayer.EventOpponentLeft,
}

// eventBridge queues session events for the program. Listeners run on the
// channel's delivery goroutine, so they never block: a full queue drops.
type eventBridge struct {
	ch   chan multiplayer.Event
	done chan struct{}
	offs []func()
	once sync.Once
}

func bridgeEvents(s *multiplayer.Session) *eventBridge {
	b := &eventBridge{
		ch:   make(chan multiplayer.Event, 128),
		done: make(chan struct{}),
	}
	for _, k := range bridgedKinds {
		b.offs = append(b.offs, s.On(k, b.push))
	}
	return b
}

func (b *eventBridge) push(evt multiplayer.Event) {
	select {
	case b.ch <- evt:
	case <-b.done:
	default:
	}
}

// wait returns a command that delivers the next event.
func (b *eventBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case evt := <-b.ch:
			return sessionEventMsg{evt: evt}
		case <-b.done:
			return nil
		}
	}
}

// close unregisters the listeners and releases a pending wait.
func (b *eventBridge) close() {
	b.once.Do(func() {
		for _, off := range b.offs {
			off()
		}
		close(b.done)
	})
}
