package chat

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	domain "github.com/example/preschool-chat/domain/chat"
)

func newTestService(t *testing.T) (*Service, *RoomStore) {
	t.Helper()
	store := NewRoomStore()
	return NewService(store), store
}

func totalMessages(store *RoomStore) int {
	total := 0
	for _, r := range store.Rooms() {
		total += r.Count
	}
	return total
}

func TestService_SendToClassRoom(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	delivery, err := service.Send(ctx, SendRequest{
		Text:       "running late",
		AuthorID:   "22001",
		AuthorName: "Tanaka",
		Kind:       domain.KindNormal,
		Room:       "class1",
	})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if delivery.Message.Room != "class1" {
		t.Errorf("Send() room = %q, want class1", delivery.Message.Room)
	}

	messages, err := service.FetchRoom(ctx, "class1")
	if err != nil {
		t.Fatalf("FetchRoom() unexpected error: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("FetchRoom() returned %d messages, want 1", len(messages))
	}
	got := messages[0]
	if got.Text != "running late" {
		t.Errorf("Text = %q, want %q", got.Text, "running late")
	}
	if got.Author != (domain.Author{ID: "22001", Name: "Tanaka"}) {
		t.Errorf("Author = %+v", got.Author)
	}
	if got.ID == 0 || got.CreatedAt.IsZero() {
		t.Errorf("message not stamped: %+v", got)
	}
	if got.Urgent {
		t.Error("normal message should not be urgent")
	}
}

func TestService_SendDefaultsRoom(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		kind     domain.Kind
		wantRoom string
	}{
		{name: "empty kind goes to general", kind: "", wantRoom: domain.RoomGeneral},
		{name: "normal goes to general", kind: domain.KindNormal, wantRoom: domain.RoomGeneral},
		{name: "staff goes to staff-general", kind: domain.KindStaff, wantRoom: domain.RoomStaffGeneral},
		{name: "announcement ignores room", kind: domain.KindAnnouncement, wantRoom: domain.RoomAnnouncements},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newTestService(t)
			delivery, err := service.Send(ctx, SendRequest{
				Text: "hello", AuthorID: "admin001", AuthorName: "Principal", Kind: tt.kind,
			})
			if err != nil {
				t.Fatalf("Send() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(delivery.Rooms, []string{tt.wantRoom}) {
				t.Errorf("Rooms = %v, want [%s]", delivery.Rooms, tt.wantRoom)
			}
			if n := store.Len(tt.wantRoom); n != 1 {
				t.Errorf("room %s holds %d messages, want 1", tt.wantRoom, n)
			}
		})
	}
}

func TestService_DirectIsCommutative(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	_, err := service.Send(ctx, SendRequest{
		Text: "Can we talk about pickup?", AuthorID: "22001", AuthorName: "Tanaka",
		Kind: domain.KindDirect, TargetID: "admin003",
	})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	ab, err := service.FetchDirect(ctx, "22001", "admin003")
	if err != nil {
		t.Fatalf("FetchDirect(a, b) unexpected error: %v", err)
	}
	ba, err := service.FetchDirect(ctx, "admin003", "22001")
	if err != nil {
		t.Fatalf("FetchDirect(b, a) unexpected error: %v", err)
	}

	if len(ab) != 1 {
		t.Fatalf("FetchDirect() returned %d messages, want 1", len(ab))
	}
	if !reflect.DeepEqual(ab, ba) {
		t.Errorf("FetchDirect not commutative:\n%+v\n%+v", ab, ba)
	}
	if ab[0].TargetID != "admin003" {
		t.Errorf("TargetID = %q, want admin003", ab[0].TargetID)
	}
	if len(store.Rooms()) != 1 {
		t.Errorf("direct send created %d rooms, want 1", len(store.Rooms()))
	}
}

func TestService_DirectConversationMergesBothSides(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	service := NewService(NewRoomStore(), WithClock(clock))

	sends := []SendRequest{
		{Text: "Hello", AuthorID: "22001", AuthorName: "Tanaka", Kind: domain.KindDirect, TargetID: "admin003"},
		{Text: "Good morning", AuthorID: "admin003", AuthorName: "Lion class teacher", Kind: domain.KindDirect, TargetID: "22001"},
		{Text: "Thanks", AuthorID: "22001", AuthorName: "Tanaka", Kind: domain.KindDirect, TargetID: "admin003"},
	}
	for _, req := range sends {
		if _, err := service.Send(ctx, req); err != nil {
			t.Fatalf("Send(%q) unexpected error: %v", req.Text, err)
		}
	}

	got, err := service.FetchDirect(ctx, "admin003", "22001")
	if err != nil {
		t.Fatalf("FetchDirect() unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("FetchDirect() returned %d messages, want 3", len(got))
	}
	for i, want := range []string{"Hello", "Good morning", "Thanks"} {
		if got[i].Text != want {
			t.Errorf("got[%d].Text = %q, want %q", i, got[i].Text, want)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.Before(got[i-1].CreatedAt) {
			t.Errorf("messages not sorted by time at %d", i)
		}
	}
}

func TestService_EmergencyFansOutToStaffRooms(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	delivery, err := service.Broadcast(ctx, BroadcastRequest{
		Text: "Evacuate to the playground", AuthorID: "admin001", AuthorName: "Principal",
	})
	if err != nil {
		t.Fatalf("Broadcast() unexpected error: %v", err)
	}

	staffRooms := domain.StaffRooms()
	if !reflect.DeepEqual(delivery.Rooms, staffRooms) {
		t.Errorf("Rooms = %v, want %v", delivery.Rooms, staffRooms)
	}
	if len(delivery.Failed) != 0 {
		t.Errorf("Failed = %v, want none", delivery.Failed)
	}

	seenRooms := make(map[string]bool)
	for _, room := range staffRooms {
		messages := store.List(room)
		if len(messages) != 1 {
			t.Fatalf("room %s holds %d messages, want 1", room, len(messages))
		}
		m := messages[0]
		if m.Text != "Evacuate to the playground" || m.Author.ID != "admin001" {
			t.Errorf("room %s copy = %+v", room, m)
		}
		if !m.Urgent {
			t.Errorf("room %s copy is not urgent", room)
		}
		if m.Kind != domain.KindEmergency {
			t.Errorf("room %s kind = %q, want emergency", room, m.Kind)
		}
		seenRooms[m.Room] = true
	}
	if len(seenRooms) != len(staffRooms) {
		t.Errorf("copies carry %d distinct rooms, want %d", len(seenRooms), len(staffRooms))
	}
	if totalMessages(store) != len(staffRooms) {
		t.Errorf("store holds %d messages, want %d", totalMessages(store), len(staffRooms))
	}
}

func TestService_EmergencyKindViaSend(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	delivery, err := service.Send(ctx, SendRequest{
		Text: "Gas leak", AuthorID: "admin002", AuthorName: "Head teacher",
		Kind: domain.KindEmergency, Room: "class1",
	})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if len(delivery.Rooms) != 5 {
		t.Errorf("Rooms = %v, want the 5 staff rooms", delivery.Rooms)
	}
	if n := store.Len("class1"); n != 0 {
		t.Errorf("emergency leaked into class1: %d messages", n)
	}
}

func TestService_AnnouncementUrgency(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	plain, err := service.Send(ctx, SendRequest{
		Text: "Sports day on Friday", AuthorID: "admin001", AuthorName: "Principal",
		Kind: domain.KindAnnouncement,
	})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if plain.Message.Urgent {
		t.Error("announcement urgent by default, want false")
	}

	urgent, err := service.Send(ctx, SendRequest{
		Text: "School closed today", AuthorID: "admin001", AuthorName: "Principal",
		Kind: domain.KindAnnouncement, Urgent: true,
	})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if !urgent.Message.Urgent {
		t.Error("urgent flag dropped from announcement")
	}

	messages, _ := service.FetchRoom(ctx, domain.RoomAnnouncements)
	if len(messages) != 2 {
		t.Errorf("announcements holds %d messages, want 2", len(messages))
	}
}

func TestService_ValidationLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		req       SendRequest
		wantField string
	}{
		{
			name:      "missing text",
			req:       SendRequest{AuthorID: "22001", AuthorName: "Tanaka", Room: "class1"},
			wantField: "text",
		},
		{
			name:      "blank text",
			req:       SendRequest{Text: "   ", AuthorID: "22001", AuthorName: "Tanaka"},
			wantField: "text",
		},
		{
			name:      "missing author id",
			req:       SendRequest{Text: "hi", AuthorName: "Tanaka", Room: "class1"},
			wantField: "authorId",
		},
		{
			name:      "missing author name",
			req:       SendRequest{Text: "hi", AuthorID: "22001"},
			wantField: "authorName",
		},
		{
			name:      "unknown kind",
			req:       SendRequest{Text: "hi", AuthorID: "22001", AuthorName: "Tanaka", Kind: "shout"},
			wantField: "kind",
		},
		{
			name:      "direct without target",
			req:       SendRequest{Text: "hi", AuthorID: "22001", AuthorName: "Tanaka", Kind: domain.KindDirect},
			wantField: "targetId",
		},
		{
			name:      "direct room used as named room",
			req:       SendRequest{Text: "hi", AuthorID: "22001", AuthorName: "Tanaka", Room: "direct:a:b"},
			wantField: "room",
		},
		{
			name:      "staff kind outside staff rooms",
			req:       SendRequest{Text: "hi", AuthorID: "admin002", AuthorName: "Head Teacher", Kind: domain.KindStaff, Room: "class1"},
			wantField: "room",
		},
		{
			name:      "normal kind into a staff room",
			req:       SendRequest{Text: "hi", AuthorID: "22001", AuthorName: "Tanaka", Room: domain.RoomStaffGeneral},
			wantField: "room",
		},
		{
			name:      "emergency without text",
			req:       SendRequest{AuthorID: "admin001", AuthorName: "Principal", Kind: domain.KindEmergency},
			wantField: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newTestService(t)

			delivery, err := service.Send(ctx, tt.req)
			if err == nil {
				t.Fatalf("Send() expected error, got delivery %+v", delivery)
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Send() error = %T (%v), want *ValidationError", err, err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", ve.Field, tt.wantField)
			}
			if n := totalMessages(store); n != 0 {
				t.Errorf("store mutated on failed send: %d messages", n)
			}
		})
	}
}

func TestService_DuplicateSendsAreDistinct(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	service := NewService(NewRoomStore(), WithClock(func() time.Time { return fixed }))

	req := SendRequest{Text: "same", AuthorID: "22001", AuthorName: "Tanaka", Room: "class2"}
	first, err := service.Send(ctx, req)
	if err != nil {
		t.Fatalf("first Send() unexpected error: %v", err)
	}
	second, err := service.Send(ctx, req)
	if err != nil {
		t.Fatalf("second Send() unexpected error: %v", err)
	}

	if first.Message.ID == second.Message.ID {
		t.Errorf("duplicate sends share id %d", first.Message.ID)
	}
	messages, _ := service.FetchRoom(ctx, "class2")
	if len(messages) != 2 {
		t.Errorf("FetchRoom() returned %d messages, want 2", len(messages))
	}
}

func TestService_CapacityPerKind(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewRoomStore(), WithLimits(Limits{Room: 3, Direct: 2, Staff: 4}))

	for i := 0; i < 6; i++ {
		_, _ = service.Send(ctx, SendRequest{Text: "room", AuthorID: "u1", AuthorName: "U", Room: "class3"})
		_, _ = service.Send(ctx, SendRequest{Text: "dm", AuthorID: "u1", AuthorName: "U", Kind: domain.KindDirect, TargetID: "u2"})
		_, _ = service.Send(ctx, SendRequest{Text: "staff", AuthorID: "u1", AuthorName: "U", Kind: domain.KindStaff})
	}

	if got, _ := service.FetchRoom(ctx, "class3"); len(got) != 3 {
		t.Errorf("class3 holds %d, want 3", len(got))
	}
	if got, _ := service.FetchDirect(ctx, "u2", "u1"); len(got) != 2 {
		t.Errorf("direct holds %d, want 2", len(got))
	}
	if got, _ := service.FetchRoom(ctx, domain.RoomStaffGeneral); len(got) != 4 {
		t.Errorf("staff-general holds %d, want 4", len(got))
	}
}

func TestService_CapacityFollowsRoom(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewRoomStore(), WithLimits(Limits{Room: 3, Direct: 5, Staff: 5}))

	// Staff room filled by staff sends, then hit by an emergency fan-out.
	for i := 0; i < 5; i++ {
		if _, err := service.Send(ctx, SendRequest{Text: "staff", AuthorID: "admin002", AuthorName: "Head Teacher", Kind: domain.KindStaff}); err != nil {
			t.Fatalf("staff Send() unexpected error: %v", err)
		}
	}
	if _, err := service.Broadcast(ctx, BroadcastRequest{Text: "fire drill", AuthorID: "admin001", AuthorName: "Principal"}); err != nil {
		t.Fatalf("Broadcast() unexpected error: %v", err)
	}
	got, _ := service.FetchRoom(ctx, domain.RoomStaffGeneral)
	if len(got) != 5 {
		t.Errorf("staff-general holds %d, want 5", len(got))
	}
	if last := got[len(got)-1]; last.Text != "fire drill" {
		t.Errorf("last staff-general message = %q, want the emergency", last.Text)
	}

	// Rejected sends of another kind must not trim the staff room.
	if _, err := service.Send(ctx, SendRequest{Text: "hi", AuthorID: "22001", AuthorName: "Tanaka", Room: domain.RoomStaffGeneral}); err == nil {
		t.Fatal("normal Send() into staff-general should fail")
	}
	if n := len(mustFetch(t, service, domain.RoomStaffGeneral)); n != 5 {
		t.Errorf("staff-general holds %d after rejected send, want 5", n)
	}

	// Announcements and class rooms share the named room cap.
	for i := 0; i < 6; i++ {
		_, _ = service.Send(ctx, SendRequest{Text: "notice", AuthorID: "admin001", AuthorName: "Principal", Kind: domain.KindAnnouncement})
		_, _ = service.Send(ctx, SendRequest{Text: "note", AuthorID: "admin001", AuthorName: "Principal", Room: domain.RoomAnnouncements})
	}
	if n := len(mustFetch(t, service, domain.RoomAnnouncements)); n != 3 {
		t.Errorf("announcements holds %d, want 3", n)
	}
}

func mustFetch(t *testing.T, service *Service, room string) []domain.Message {
	t.Helper()
	messages, err := service.FetchRoom(context.Background(), room)
	if err != nil {
		t.Fatalf("FetchRoom(%q) unexpected error: %v", room, err)
	}
	return messages
}

func TestService_IDMatchesCreatedAt(t *testing.T) {
	ctx := context.Background()
	// The clock advances on every read, so two reads per message would
	// give an id that differs from createdAt.
	tick := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	service := NewService(NewRoomStore(), WithClock(clock))

	for i := 0; i < 3; i++ {
		delivery, err := service.Send(ctx, SendRequest{Text: "hi", AuthorID: "22001", AuthorName: "Tanaka"})
		if err != nil {
			t.Fatalf("Send() unexpected error: %v", err)
		}
		msg := delivery.Message
		if msg.ID != msg.CreatedAt.UnixMilli() {
			t.Errorf("ID = %d, want createdAt millis %d", msg.ID, msg.CreatedAt.UnixMilli())
		}
	}
}

func TestService_FetchRoom(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	messages, err := service.FetchRoom(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("FetchRoom() unexpected error: %v", err)
	}
	if messages == nil || len(messages) != 0 {
		t.Errorf("FetchRoom(unknown) = %v, want empty slice", messages)
	}

	_, err = service.FetchRoom(ctx, "")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("FetchRoom(\"\") error = %v, want *ValidationError", err)
	}
}

func TestService_FetchDirectValidation(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	tests := []struct {
		name string
		a, b string
	}{
		{name: "missing first", a: "", b: "admin003"},
		{name: "missing second", a: "22001", b: ""},
		{name: "separator in id", a: "22:001", b: "admin003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.FetchDirect(ctx, tt.a, tt.b)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("FetchDirect() error = %v, want *ValidationError", err)
			}
		})
	}
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, _ = service.Send(ctx, SendRequest{Text: "a", AuthorID: "u1", AuthorName: "U", Room: "class1"})
	_, _ = service.Send(ctx, SendRequest{Text: "b", AuthorID: "u1", AuthorName: "U", Room: "class1"})
	_, _ = service.Send(ctx, SendRequest{Text: "c", AuthorID: "u1", AuthorName: "U"})

	want := []RoomStats{{Room: "class1", Count: 2}, {Room: "general", Count: 1}}
	if got := service.Stats(); !reflect.DeepEqual(got, want) {
		t.Errorf("Stats() = %v, want %v", got, want)
	}
}
