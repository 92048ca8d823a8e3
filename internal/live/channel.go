// Package live maintains the invalidation channel: a read-only websocket feed
// of change notifications used to prompt refreshes. Events are advisory; no
// floor-plan data ever arrives on this channel.
package live

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/planwise/floorsync/internal/api"
	"github.com/planwise/floorsync/internal/errors"
	"github.com/planwise/floorsync/internal/models"
)

// State is the lifecycle of a subscription. There is no reconnecting state:
// once the transport drops, the subscription is finished and the owner decides
// whether to open a new one.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateOpen         State = "open"
)

// EventType identifies what changed on the server.
type EventType string

const (
	// EventBookingChanged signals a booking was created, updated or
	// cancelled for a room on the subscribed plan.
	EventBookingChanged EventType = "BOOKING_CHANGED"

	// EventFloorPlanChanged signals the plan layout was committed by some
	// client, advancing the version token.
	EventFloorPlanChanged EventType = "FLOOR_PLAN_CHANGED"

	// EventFloorPlanRestored signals the plan was rolled back to a backup.
	EventFloorPlanRestored EventType = "FLOOR_PLAN_RESTORED"
)

// Event is one invalidation notification. It carries no plan data, only what
// changed and where; consumers refetch through the sync engine.
type Event struct {
	Type        EventType   `json:"event"`
	FloorPlanID models.UUID `json:"floor_plan_id,omitempty"`
	CompanyID   models.UUID `json:"company_id,omitempty"`
}

// Handler receives events in arrival order, one at a time.
type Handler func(Event)

// Subscription is a single-use connection to one feed. Create with
// SubscribeCompany or SubscribePlan; finish with Unsubscribe.
type Subscription struct {
	logger *zap.Logger

	// handlerMu is held for the duration of every handler call, so that
	// Unsubscribe cannot return while a dispatch is still running.
	handlerMu sync.Mutex
	handler   Handler

	mu           sync.Mutex
	state        State
	conn         *websocket.Conn
	unsubscribed bool
	err          error

	// events buffers notifications in arrival order so a slow handler never
	// stalls the read loop.
	events chan Event
	done   chan struct{}
}

// SubscribeCompany opens the company-wide admin feed, which carries change
// notifications for every plan in the caller's company.
func SubscribeCompany(wsBaseURL string, tokens api.TokenSource, handshakeTimeout time.Duration, handler Handler, logger *zap.Logger) *Subscription {
	return subscribe(wsBaseURL+"/ws/admin/live-feed/company", tokens, handshakeTimeout, handler, logger)
}

// SubscribePlan opens the per-plan feed for the given role.
func SubscribePlan(wsBaseURL, role string, planID models.UUID, tokens api.TokenSource, handshakeTimeout time.Duration, handler Handler, logger *zap.Logger) *Subscription {
	return subscribe(wsBaseURL+"/ws/live-feed/"+role+"/"+planID.String(), tokens, handshakeTimeout, handler, logger)
}

func subscribe(feedURL string, tokens api.TokenSource, handshakeTimeout time.Duration, handler Handler, logger *zap.Logger) *Subscription {
	s := &Subscription{
		logger:  logger,
		handler: handler,
		state:   StateConnecting,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}

	token, ok := tokens.Token()
	if !ok {
		s.terminate(errors.New(errors.ErrNotAuthenticated, "cannot subscribe without a session token"))
		return s
	}

	go s.run(feedURL+"?token="+url.QueryEscape(token), handshakeTimeout)
	return s
}

// run dials the feed and pumps events until the transport drops or the owner
// unsubscribes.
func (s *Subscription) run(feedURL string, handshakeTimeout time.Duration) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(feedURL, nil)
	if err != nil {
		s.logger.Warn("Live feed handshake failed", zap.Error(err))
		s.terminate(errors.Wrap(errors.ErrHandshakeFailed, "live feed handshake failed", err))
		return
	}

	s.mu.Lock()
	if s.unsubscribed {
		// Unsubscribed mid-handshake. Nothing was dispatched and nothing
		// will be.
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	go s.dispatchLoop()
	s.readPump(conn)
}

// readPump reads events in arrival order and hands them to the dispatch
// loop. A read error of any kind ends the subscription.
func (s *Subscription) readPump(conn *websocket.Conn) {
	defer close(s.events)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("Live feed dropped", zap.Error(err))
			}
			s.terminate(errors.Wrap(errors.ErrChannelClosed, "live feed closed", err))
			return
		}

		var event Event
		if err := event.unmarshal(message); err != nil {
			s.logger.Debug("Ignoring malformed live event", zap.Error(err))
			continue
		}
		s.events <- event
	}
}

// dispatchLoop delivers buffered events one at a time, preserving arrival
// order even when the handler is slow.
func (s *Subscription) dispatchLoop() {
	for event := range s.events {
		s.dispatch(event)
	}
}

func (e *Event) unmarshal(message []byte) error {
	if err := json.Unmarshal(message, e); err != nil {
		return err
	}
	if e.Type == "" {
		return errors.New(errors.ErrInvalid, "live event has no type")
	}
	return nil
}

func (s *Subscription) dispatch(event Event) {
	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()
	if s.handler != nil {
		s.handler(event)
	}
}

// terminate moves the subscription to its final disconnected state. Safe to
// call more than once; the first caller wins.
func (s *Subscription) terminate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisconnected {
		return
	}
	s.state = StateDisconnected
	s.err = err
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	close(s.done)
}

// Unsubscribe tears the subscription down. The handler is detached before the
// transport is touched, and any in-flight dispatch completes first, so by the
// time this returns the handler will never be invoked again.
func (s *Subscription) Unsubscribe() {
	s.handlerMu.Lock()
	s.handler = nil
	s.handlerMu.Unlock()

	s.mu.Lock()
	s.unsubscribed = true
	s.mu.Unlock()

	s.terminate(nil)
}

// State returns the current lifecycle state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error, or nil while running or after a clean
// unsubscribe.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the subscription reaches its final state.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
