package alert

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
)

type fakePositioner struct {
	pos *Position
	err error
}

func (f *fakePositioner) CurrentPosition(ctx context.Context) (*Position, error) {
	return f.pos, f.err
}

type fakeGeocoder struct {
	addr string
	err  error
}

func (f *fakeGeocoder) ResolveAddress(ctx context.Context, lat, lng float64) (string, error) {
	return f.addr, f.err
}

type fakeOpener struct {
	blockPopups bool
	opened      []string
	navigated   []string
}

func (f *fakeOpener) Open(uri string) error {
	if f.blockPopups {
		return ErrPopupBlocked
	}
	f.opened = append(f.opened, uri)
	return nil
}

func (f *fakeOpener) Navigate(uri string) {
	f.navigated = append(f.navigated, uri)
}

type fakeContacts struct {
	contacts []models.Contact
	err      error
}

func (f *fakeContacts) List(ctx context.Context) ([]models.Contact, error) {
	return f.contacts, f.err
}

type fakeRecorder struct {
	records []*models.AlertRecord
	err     error
}

func (f *fakeRecorder) Create(ctx context.Context, record *models.AlertRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func testConfig() DispatcherConfig {
	return DispatcherConfig{
		PositionTimeout:    time.Second,
		EmergencyNumbers:   []string{"911"},
		CountryCallingCode: "254",
		MapsBaseURL:        "https://www.google.com/maps",
	}
}

func dispatchSession() *Session {
	s := NewSession(SessionConfig{
		SentDisplayWindow: time.Minute,
		CancelClearDelay:  time.Minute,
		TriggerCooldown:   10 * time.Second,
	}, logger.Discard(), nil)
	s.TriggerSOS(models.TriggerSOSButton)
	return s
}

func TestDispatchWithPosition(t *testing.T) {
	positioner := &fakePositioner{pos: &Position{Latitude: -1.2921, Longitude: 36.8219}}
	geocoder := &fakeGeocoder{addr: "Nairobi CBD"}
	opener := &fakeOpener{}
	contacts := &fakeContacts{contacts: []models.Contact{
		{ID: "c1", Name: "Amina", Phone: "+254712345678"},
		{ID: "c2", Name: "Grace", Phone: "0798765432"},
	}}
	recorder := &fakeRecorder{}

	d := NewDispatcher(positioner, geocoder, opener, contacts, recorder, testConfig(), logger.Discard())
	session := dispatchSession()

	outcome, err := d.Dispatch(context.Background(), session, models.TriggerSOSButton)
	if err != nil {
		t.Fatal(err)
	}

	if !outcome.HadLocation || !outcome.HadAddress || outcome.ContactsNotified != 2 {
		t.Errorf("outcome = %+v", outcome)
	}

	// One sms per emergency number, whatsapp + sms per contact.
	if len(opener.opened) != 1+2*2 {
		t.Fatalf("opened %d channels, want 5: %v", len(opener.opened), opener.opened)
	}

	if len(recorder.records) != 1 {
		t.Fatalf("persisted %d records, want 1", len(recorder.records))
	}
	record := recorder.records[0]
	if record.Latitude == nil || *record.Latitude != -1.2921 {
		t.Errorf("record latitude = %v", record.Latitude)
	}
	if record.Address == nil || *record.Address != "Nairobi CBD" {
		t.Errorf("record address = %v", record.Address)
	}
	if !strings.Contains(record.Message, "Emergency Alert! I need help!") {
		t.Errorf("message missing preamble: %q", record.Message)
	}
	if !strings.Contains(record.Message, "https://www.google.com/maps?q=-1.2921,36.8219") {
		t.Errorf("message missing maps link: %q", record.Message)
	}

	if session.State() != StateSent {
		t.Errorf("session state = %v, want Sent", session.State())
	}
}

func TestDispatchWithoutPositionStillAlerts(t *testing.T) {
	positioner := &fakePositioner{err: errors.New("gps timeout")}
	opener := &fakeOpener{}
	contacts := &fakeContacts{contacts: []models.Contact{{ID: "c1", Name: "Amina", Phone: "+254712345678"}}}
	recorder := &fakeRecorder{}

	d := NewDispatcher(positioner, &fakeGeocoder{}, opener, contacts, recorder, testConfig(), logger.Discard())

	outcome, err := d.Dispatch(context.Background(), dispatchSession(), models.TriggerVoiceKeyword)
	if err != nil {
		t.Fatal(err)
	}

	if outcome.HadLocation || outcome.HadAddress {
		t.Errorf("outcome claims a location: %+v", outcome)
	}
	if outcome.ContactsNotified != 1 {
		t.Errorf("contacts notified = %d, want 1", outcome.ContactsNotified)
	}

	record := recorder.records[0]
	if record.Latitude != nil || record.Longitude != nil || record.Address != nil {
		t.Errorf("record carries coordinates without a fix: %+v", record)
	}
	if strings.Contains(record.Message, "Location:") {
		t.Errorf("message has a location line without a fix: %q", record.Message)
	}
	if len(opener.opened) != 3 {
		t.Errorf("opened %d channels, want 3", len(opener.opened))
	}
}

func TestDispatchZeroContactsDialsEmergencyNumbers(t *testing.T) {
	opener := &fakeOpener{}
	recorder := &fakeRecorder{}

	d := NewDispatcher(&fakePositioner{err: errors.New("denied")}, &fakeGeocoder{}, opener, &fakeContacts{}, recorder, testConfig(), logger.Discard())

	outcome, err := d.Dispatch(context.Background(), dispatchSession(), models.TriggerSOSButton)
	if err != nil {
		t.Fatal(err)
	}

	if outcome.ContactsNotified != 0 {
		t.Errorf("contacts notified = %d, want 0", outcome.ContactsNotified)
	}
	if len(opener.opened) != 1 || !strings.HasPrefix(opener.opened[0], "sms:911") {
		t.Errorf("emergency number not dialed: %v", opener.opened)
	}
	if len(recorder.records) != 1 {
		t.Errorf("persisted %d records, want 1", len(recorder.records))
	}
}

func TestDispatchCancelledBeforeFanOut(t *testing.T) {
	opener := &fakeOpener{}
	recorder := &fakeRecorder{}

	d := NewDispatcher(&fakePositioner{pos: &Position{Latitude: 1, Longitude: 2}}, &fakeGeocoder{}, opener, &fakeContacts{}, recorder, testConfig(), logger.Discard())

	session := dispatchSession()
	session.Cancel()

	_, err := d.Dispatch(context.Background(), session, models.TriggerSOSButton)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Dispatch = %v, want ErrCancelled", err)
	}

	if len(opener.opened) != 0 || len(opener.navigated) != 0 {
		t.Error("channels opened for a cancelled alert")
	}
	if len(recorder.records) != 0 {
		t.Error("record persisted for a cancelled alert")
	}
}

func TestPopupBlockedFallsBackToNavigation(t *testing.T) {
	opener := &fakeOpener{blockPopups: true}
	recorder := &fakeRecorder{}
	contacts := &fakeContacts{contacts: []models.Contact{{ID: "c1", Name: "Amina", Phone: "+254712345678"}}}

	d := NewDispatcher(&fakePositioner{err: errors.New("denied")}, &fakeGeocoder{}, opener, contacts, recorder, testConfig(), logger.Discard())

	if _, err := d.Dispatch(context.Background(), dispatchSession(), models.TriggerSOSButton); err != nil {
		t.Fatal(err)
	}

	if len(opener.opened) != 0 {
		t.Errorf("popups opened despite blocking: %v", opener.opened)
	}
	if len(opener.navigated) != 3 {
		t.Errorf("navigated %d channels, want 3: %v", len(opener.navigated), opener.navigated)
	}
}

func TestWhatsAppLinkCountryCode(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, nil, nil, testConfig(), logger.Discard())

	withPrefix := d.whatsappLink("+254712345678", "hi")
	if !strings.HasPrefix(withPrefix, "https://wa.me/254712345678?") {
		t.Errorf("prefixed number link = %q", withPrefix)
	}

	national := d.whatsappLink("0712 345 678", "hi")
	if !strings.HasPrefix(national, "https://wa.me/2540712345678?") {
		t.Errorf("national number link = %q", national)
	}
}
