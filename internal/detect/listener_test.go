package detect

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SafeHerAPI/internal/logger"
)

type fakeStream struct {
	mu       sync.Mutex
	started  int
	stopped  int
	startErr error

	onResult func(text string, final bool)
	onError  func(kind string)
	onEnd    func()
}

func (f *fakeStream) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	return nil
}

func (f *fakeStream) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
}

func (f *fakeStream) SetHandlers(onResult func(string, bool), onError func(string), onEnd func()) {
	f.onResult = onResult
	f.onError = onError
	f.onEnd = onEnd
}

func (f *fakeStream) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started
}

type fakePrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{values: make(map[string]string)}
}

func (p *fakePrefs) Get(ctx context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[key], nil
}

func (p *fakePrefs) Set(ctx context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	return nil
}

func (p *fakePrefs) get(key string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[key]
}

type scheduledCall struct {
	delay time.Duration
	fn    func()
}

// testListener builds a listener with captured timers and a manual
// clock.
func testListener(t *testing.T, stream *fakeStream, prefs *fakePrefs) (*Listener, *[]scheduledCall, *time.Time) {
	t.Helper()

	var fragments []string
	l := NewListener(stream, prefs, ListenerConfig{
		EndBackoff:   3 * time.Second,
		ErrorBackoff: 5 * time.Second,
		Cooldown:     10 * time.Second,
	}, logger.Discard(), func(text string) {
		fragments = append(fragments, text)
	})

	calls := &[]scheduledCall{}
	clock := time.Now()
	clockPtr := &clock

	l.now = func() time.Time { return *clockPtr }
	l.after = func(d time.Duration, fn func()) *time.Timer {
		*calls = append(*calls, scheduledCall{delay: d, fn: fn})
		return time.AfterFunc(time.Hour, func() {})
	}
	return l, calls, clockPtr
}

func TestStartHonorsOptOut(t *testing.T) {
	stream := &fakeStream{}
	prefs := newFakePrefs()
	prefs.values[PrefVoiceDetection] = "false"

	l, _, _ := testListener(t, stream, prefs)

	if err := l.Start(context.Background()); !errors.Is(err, ErrDetectionDisabled) {
		t.Fatalf("Start = %v, want ErrDetectionDisabled", err)
	}
	if stream.startCount() != 0 {
		t.Error("stream was started despite opt-out")
	}
}

func TestStartUnsupportedPassesThrough(t *testing.T) {
	stream := &fakeStream{startErr: ErrUnsupported}
	l, _, _ := testListener(t, stream, newFakePrefs())

	if err := l.Start(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Start = %v, want ErrUnsupported", err)
	}
	if l.State() != StateStopped {
		t.Errorf("state = %v, want stopped", l.State())
	}
}

func TestFinalFragmentsForwardedInOrder(t *testing.T) {
	stream := &fakeStream{}
	prefs := newFakePrefs()

	var got []string
	l := NewListener(stream, prefs, ListenerConfig{}, logger.Discard(), func(text string) {
		got = append(got, text)
	})
	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	stream.onResult("first", true)
	stream.onResult("interim noise", false)
	stream.onResult("second", true)

	want := []string{"first", "second"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPermissionDeniedPersistsOptOutAndNeverRestarts(t *testing.T) {
	for _, kind := range []string{ErrorNotAllowed, ErrorServiceNotAllowed} {
		stream := &fakeStream{}
		prefs := newFakePrefs()
		l, calls, _ := testListener(t, stream, prefs)

		if err := l.Start(context.Background()); err != nil {
			t.Fatal(err)
		}

		stream.onError(kind)

		if got := prefs.get(PrefVoiceDetection); got != "false" {
			t.Errorf("kind %s: persisted pref = %q, want false", kind, got)
		}
		if len(*calls) != 0 {
			t.Errorf("kind %s: restart scheduled after permission denial", kind)
		}

		// A later stream end must not resurrect it either.
		stream.onEnd()
		if len(*calls) != 0 {
			t.Errorf("kind %s: restart scheduled after end while suppressed", kind)
		}
	}
}

func TestRestartAfterNaturalEnd(t *testing.T) {
	stream := &fakeStream{}
	l, calls, _ := testListener(t, stream, newFakePrefs())

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	stream.onEnd()

	if len(*calls) != 1 {
		t.Fatalf("scheduled %d restarts, want 1", len(*calls))
	}
	if (*calls)[0].delay != 3*time.Second {
		t.Errorf("restart delay = %v, want 3s", (*calls)[0].delay)
	}

	(*calls)[0].fn()
	if stream.startCount() != 2 {
		t.Errorf("stream started %d times, want 2", stream.startCount())
	}
}

func TestRecoverableErrorUsesErrorBackoff(t *testing.T) {
	stream := &fakeStream{}
	l, calls, _ := testListener(t, stream, newFakePrefs())

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	stream.onError("network")

	if len(*calls) != 1 {
		t.Fatalf("scheduled %d restarts, want 1", len(*calls))
	}
	if (*calls)[0].delay != 5*time.Second {
		t.Errorf("restart delay = %v, want 5s", (*calls)[0].delay)
	}
}

func TestNoRestartWhileHidden(t *testing.T) {
	stream := &fakeStream{}
	l, calls, _ := testListener(t, stream, newFakePrefs())

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	l.SetVisible(false)
	stream.onEnd()

	if len(*calls) != 0 {
		t.Error("restart scheduled while page hidden")
	}
}

func TestStopCancelsAutoRestart(t *testing.T) {
	stream := &fakeStream{}
	l, calls, _ := testListener(t, stream, newFakePrefs())

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	l.Stop()
	stream.onEnd()

	if len(*calls) != 0 {
		t.Error("restart scheduled after explicit Stop")
	}
}

func TestCooldownSuppressesFragmentsThenResumes(t *testing.T) {
	stream := &fakeStream{}
	prefs := newFakePrefs()

	var got []string
	l := NewListener(stream, prefs, ListenerConfig{Cooldown: 10 * time.Second}, logger.Discard(), func(text string) {
		got = append(got, text)
	})

	calls := []scheduledCall{}
	clock := time.Now()
	l.now = func() time.Time { return clock }
	l.after = func(d time.Duration, fn func()) *time.Timer {
		calls = append(calls, scheduledCall{delay: d, fn: fn})
		return time.AfterFunc(time.Hour, func() {})
	}

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	l.Pause()

	stream.onResult("help help help", true)
	if len(got) != 0 {
		t.Fatalf("fragment delivered during cooldown: %v", got)
	}

	if len(calls) != 1 || calls[0].delay != 10*time.Second {
		t.Fatalf("resume not scheduled for the cooldown window: %+v", calls)
	}

	// Window elapses, the resume timer fires, listening resumes.
	clock = clock.Add(11 * time.Second)
	calls[0].fn()

	if stream.startCount() != 2 {
		t.Fatalf("stream started %d times, want 2 after resume", stream.startCount())
	}

	stream.onResult("still here", true)
	if len(got) != 1 || got[0] != "still here" {
		t.Errorf("fragment after cooldown = %v, want [still here]", got)
	}
}
