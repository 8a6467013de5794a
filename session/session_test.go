package session

import (
	"context"
	"testing"
	"time"

	"github.com/coursecast/coursecast/authz"
	"github.com/coursecast/coursecast/config"
	"github.com/coursecast/coursecast/media/audio"
	"github.com/coursecast/coursecast/media/video"
	"github.com/pion/webrtc/v3"
)

type fakeEncoder struct {
	flushed bool
	flushErr error
}

func (f *fakeEncoder) WriteVideo(video.Frame) error { return nil }
func (f *fakeEncoder) WriteAudio(audio.Frame) error { return nil }
func (f *fakeEncoder) FlushAndClose(context.Context) error {
	f.flushed = true
	return f.flushErr
}

type fakeStore struct {
	recorded []string
}

func (f *fakeStore) RecordVideo(filename, divisionID string, at time.Time) (string, error) {
	f.recorded = append(f.recorded, filename)
	return "video-1", nil
}

type fixedAuthorizer struct{ allow bool }

func (f fixedAuthorizer) MayRecord(authz.Principal, string) bool { return f.allow }
func (f fixedAuthorizer) MayView(authz.Principal, string) bool   { return f.allow }

func TestBeginRejectsUnauthorizedPrincipal(t *testing.T) {
	mgr := New(NewRegistry(), fixedAuthorizer{allow: false}, &fakeStore{}, config.Default())

	_, _, err := mgr.Begin(context.Background(), authz.Principal{ID: "u1", Role: authz.RoleStudent}, "div1", "v=0")

	serr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if serr.Kind != Authorization {
		t.Fatalf("expected Authorization, got %v", serr.Kind)
	}
}

func TestEndOnUnknownSessionReturnsNotFound(t *testing.T) {
	mgr := New(NewRegistry(), fixedAuthorizer{allow: true}, &fakeStore{}, config.Default())

	err := mgr.End(context.Background(), "does-not-exist")

	serr, ok := err.(*Error)
	if !ok || serr.Kind != NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestEndIsNotRepeatable(t *testing.T) {
	registry := NewRegistry()
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("NewPeerConnection: %v", err)
	}
	enc := &fakeEncoder{}
	st := &fakeStore{}
	s := newSession("sess1", "div1", pc, config.Default(), enc)
	s.outputPath = "sess1.mkv"
	registry.insert(s)

	mgr := New(registry, fixedAuthorizer{allow: true}, st, config.Default())

	if err := mgr.End(context.Background(), "sess1"); err != nil {
		t.Fatalf("first End: %v", err)
	}
	if !enc.flushed {
		t.Fatalf("expected encoder to be flushed")
	}
	if len(st.recorded) != 1 || st.recorded[0] != "sess1.mkv" {
		t.Fatalf("expected metadata recorded once, got %v", st.recorded)
	}
	if got := s.State(); got != Closed {
		t.Fatalf("expected Closed, got %v", got)
	}

	err = mgr.End(context.Background(), "sess1")
	serr, ok := err.(*Error)
	if !ok || serr.Kind != NotFound {
		t.Fatalf("expected second End to return NotFound, got %v", err)
	}
}

func TestStateStringCoversEveryValue(t *testing.T) {
	cases := map[State]string{
		Negotiating: "negotiating",
		Recording:   "recording",
		Stopping:    "stopping",
		Closed:      "closed",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestRegisteredStateIsTrueUntilClosed(t *testing.T) {
	for _, s := range []State{Negotiating, Recording, Stopping} {
		if !s.registered() {
			t.Errorf("%v should be registered", s)
		}
	}
	if Closed.registered() {
		t.Errorf("Closed should not be registered")
	}
}
