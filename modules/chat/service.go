package chat

import (
	"context"
	"fmt"
	"sort"
	"time"

	domain "github.com/example/preschool-chat/domain/chat"
)

// Limits holds the per-room capacities applied on append.
type Limits struct {
	Room   int
	Direct int
	Staff  int
}

// DefaultLimits returns the standard capacities: 50 for named rooms and
// announcements, 100 for direct and staff rooms.
func DefaultLimits() Limits {
	return Limits{
		Room:   domain.DefaultRoomCapacity,
		Direct: domain.DefaultDirectCapacity,
		Staff:  domain.DefaultStaffCapacity,
	}
}

// Service routes sends and fetches over a RoomStore.
type Service struct {
	store  *RoomStore
	fanout *Fanout
	ids    *IDGenerator
	limits Limits
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLimits overrides the room capacities.
func WithLimits(l Limits) ServiceOption {
	return func(s *Service) {
		s.limits = l
	}
}

// WithClock overrides the clock used for timestamps and ids.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a chat service over store.
func NewService(store *RoomStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		limits: DefaultLimits(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fanout = NewFanout(store)
	s.ids = NewIDGenerator(s.now)
	return s
}

// Send validates req and stores the message according to its kind.
// Nothing is stored when validation fails.
func (s *Service) Send(_ context.Context, req SendRequest) (*Delivery, error) {
	if err := ValidateMessage(req.Text); err != nil {
		return nil, err
	}
	if err := ValidateAuthor(req.AuthorID, req.AuthorName); err != nil {
		return nil, err
	}
	kind, err := domain.ParseKind(string(req.Kind))
	if err != nil {
		return nil, err
	}

	msg := domain.Message{
		Text:   req.Text,
		Author: domain.Author{ID: req.AuthorID, Name: req.AuthorName},
		Kind:   kind,
		Urgent: req.Urgent,
	}

	switch kind {
	case domain.KindDirect:
		key, err := domain.DirectRoomKey(req.AuthorID, req.TargetID)
		if err != nil {
			return nil, err
		}
		msg.TargetID = req.TargetID
		return s.storeIn(msg, key)

	case domain.KindAnnouncement:
		return s.storeIn(msg, domain.RoomAnnouncements)

	case domain.KindEmergency:
		msg.Urgent = true
		return s.broadcast(msg)

	case domain.KindStaff:
		room := req.Room
		if room == "" {
			room = domain.RoomStaffGeneral
		}
		if !domain.IsStaffRoom(room) {
			return nil, &domain.ValidationError{Field: "room", Reason: "staff messages go to staff rooms"}
		}
		return s.storeIn(msg, room)

	default:
		room := req.Room
		if room == "" {
			room = domain.RoomGeneral
		}
		if err := ValidateRoomName(room); err != nil {
			return nil, err
		}
		if domain.IsStaffRoom(room) {
			return nil, &domain.ValidationError{Field: "room", Reason: "staff rooms only take staff messages"}
		}
		return s.storeIn(msg, room)
	}
}

// Broadcast sends an emergency message to every staff room.
func (s *Service) Broadcast(ctx context.Context, req BroadcastRequest) (*Delivery, error) {
	return s.Send(ctx, SendRequest{
		Text:       req.Text,
		AuthorID:   req.AuthorID,
		AuthorName: req.AuthorName,
		Kind:       domain.KindEmergency,
	})
}

// FetchRoom returns the messages of a named room in insertion order.
// Unknown rooms yield an empty list.
func (s *Service) FetchRoom(_ context.Context, room string) ([]domain.Message, error) {
	if room == "" {
		return nil, &domain.ValidationError{Field: "room", Reason: "room is required"}
	}
	return s.store.List(room), nil
}

// FetchDirect returns the conversation between a and b, oldest first.
// The result does not depend on argument order.
func (s *Service) FetchDirect(_ context.Context, a, b string) ([]domain.Message, error) {
	key, err := domain.DirectRoomKey(a, b)
	if err != nil {
		return nil, err
	}
	messages := s.store.List(key)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// Stats returns the size of every room.
func (s *Service) Stats() []RoomStats {
	return s.store.Rooms()
}

// capacityFor returns the cap of room. It depends on the room alone, so
// every kind of send trims a room the same way.
func (s *Service) capacityFor(room string) int {
	switch {
	case domain.IsDirectRoom(room):
		return s.limits.Direct
	case domain.IsStaffRoom(room):
		return s.limits.Staff
	default:
		return s.limits.Room
	}
}

func (s *Service) stamp(msg domain.Message) domain.Message {
	now := s.now()
	msg.CreatedAt = now.UTC()
	msg.ID = s.ids.NextAt(now)
	return msg
}

func (s *Service) storeIn(msg domain.Message, room string) (*Delivery, error) {
	msg = s.stamp(msg).InRoom(room)
	if err := s.store.Append(room, msg, s.capacityFor(room)); err != nil {
		return nil, &domain.InternalError{Op: "append " + room, Err: err}
	}
	return &Delivery{Message: msg, Rooms: []string{room}}, nil
}

func (s *Service) broadcast(msg domain.Message) (*Delivery, error) {
	rooms := domain.StaffRooms()
	stored, err := s.fanout.Broadcast(s.stamp(msg), rooms, s.limits.Staff)
	if len(stored) == 0 {
		return nil, &domain.InternalError{Op: "broadcast", Err: fmt.Errorf("no room accepted the message: %w", err)}
	}

	delivery := &Delivery{Message: stored[0], Rooms: make([]string, 0, len(stored))}
	written := make(map[string]bool, len(stored))
	for _, m := range stored {
		delivery.Rooms = append(delivery.Rooms, m.Room)
		written[m.Room] = true
	}
	for _, room := range rooms {
		if !written[room] {
			delivery.Failed = append(delivery.Failed, room)
		}
	}
	return delivery, nil
}
