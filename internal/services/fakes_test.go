package services

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeTransport struct {
	mu     sync.Mutex
	calls  [][]PushMessage
	failOn map[int]error
	reject map[string]string
}

func (f *fakeTransport) Send(_ context.Context, messages []PushMessage) ([]Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := len(f.calls)
	f.calls = append(f.calls, append([]PushMessage(nil), messages...))
	if err := f.failOn[call]; err != nil {
		return nil, err
	}

	tickets := make([]Ticket, 0, len(messages))
	for _, m := range messages {
		if reason, ok := f.reject[m.To]; ok {
			tickets = append(tickets, Ticket{Status: "error", Message: reason, Details: map[string]interface{}{"error": reason}})
			continue
		}
		tickets = append(tickets, Ticket{Status: TicketStatusOK, ID: "ticket-" + m.To})
	}
	return tickets, nil
}

func (f *fakeTransport) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var to []string
	for _, call := range f.calls {
		for _, m := range call {
			to = append(to, m.To)
		}
	}
	return to
}

// flakyDirectory fails member lookups for chosen groups and delegates the rest
type flakyDirectory struct {
	RecipientDirectory
	failGroups map[string]bool
	panicGroup string
}

func (f *flakyDirectory) GroupMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	if groupID == f.panicGroup {
		panic("member index corrupted")
	}
	if f.failGroups[groupID] {
		return nil, errors.New("member lookup timed out")
	}
	return f.RecipientDirectory.GroupMemberIDs(ctx, groupID)
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]bool
	failing map[string]error
	deletes []string
}

func (f *fakeStorage) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, path)
	if err := f.failing[path]; err != nil {
		return err
	}
	if !f.objects[path] {
		return ErrObjectNotFound
	}
	delete(f.objects, path)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }
