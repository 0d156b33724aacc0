package alert

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
)

// ErrPopupBlocked is returned by a LinkOpener whose popup was blocked;
// the dispatcher falls back to same-tab navigation for that channel.
var ErrPopupBlocked = errors.New("popup blocked")

// ErrCancelled means the session was cancelled before fan-out started.
// No channel was opened and no record was written.
var ErrCancelled = errors.New("alert cancelled before fan-out")

// Position is one location fix.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
}

// Positioner resolves the current position. Implementations must honor
// the context deadline; the dispatcher proceeds without a position when
// resolution fails or times out.
type Positioner interface {
	CurrentPosition(ctx context.Context) (*Position, error)
}

// Geocoder turns coordinates into a human-readable address. Best
// effort: a failure never blocks the dispatch.
type Geocoder interface {
	ResolveAddress(ctx context.Context, lat, lng float64) (string, error)
}

// LinkOpener delivers one alert channel (an sms: or wa.me URI). Open
// returns ErrPopupBlocked when the preferred delivery was blocked;
// Navigate is the same-tab fallback and is best effort.
type LinkOpener interface {
	Open(uri string) error
	Navigate(uri string)
}

// ContactSource lists the emergency contacts to notify.
type ContactSource interface {
	List(ctx context.Context) ([]models.Contact, error)
}

// Recorder persists the alert trace.
type Recorder interface {
	Create(ctx context.Context, record *models.AlertRecord) error
}

type DispatcherConfig struct {
	// PositionTimeout bounds location resolution. On expiry the alert
	// goes out without coordinates.
	PositionTimeout time.Duration
	// EmergencyNumbers are always dialed, even with zero contacts.
	EmergencyNumbers []string
	// CountryCallingCode (digits, no '+') is prepended to contact
	// numbers that carry no country prefix, for WhatsApp links.
	CountryCallingCode string
	// MapsBaseURL is the map link base, e.g. https://www.google.com/maps.
	MapsBaseURL string
}

// Outcome summarizes one completed dispatch.
type Outcome struct {
	ContactsNotified int  `json:"contacts_notified"`
	HadLocation      bool `json:"had_location"`
	HadAddress       bool `json:"had_address"`
}

// Dispatcher runs the alert fan-out: resolve position, build the
// message, open one channel per emergency number and two per contact,
// persist exactly one AlertRecord, and complete the session.
type Dispatcher struct {
	positioner Positioner
	geocoder   Geocoder
	opener     LinkOpener
	contacts   ContactSource
	records    Recorder
	cfg        DispatcherConfig
	log        *logger.Logger
}

func NewDispatcher(positioner Positioner, geocoder Geocoder, opener LinkOpener, contacts ContactSource, records Recorder, cfg DispatcherConfig, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		positioner: positioner,
		geocoder:   geocoder,
		opener:     opener,
		contacts:   contacts,
		records:    records,
		cfg:        cfg,
		log:        log,
	}
}

// Dispatch fans out the alert for a session in AwaitingLocation. A
// missing position never aborts: the alert goes out without a location
// line and the record keeps nil coordinates. Cancellation is honored up
// to BeginFanOut; after that the dispatch runs to completion.
func (d *Dispatcher) Dispatch(ctx context.Context, session *Session, trigger string) (*Outcome, error) {
	var lat, lng *float64
	var address *string

	pctx, cancel := context.WithTimeout(ctx, d.cfg.PositionTimeout)
	pos, err := d.positioner.CurrentPosition(pctx)
	cancel()
	if err != nil {
		d.log.Warn("Could not resolve position, alerting without location: %v", err)
	} else if pos != nil {
		lat, lng = &pos.Latitude, &pos.Longitude
		if d.geocoder != nil {
			if a, err := d.geocoder.ResolveAddress(ctx, pos.Latitude, pos.Longitude); err != nil {
				d.log.Debug("Reverse geocoding failed: %v", err)
			} else if a != "" {
				address = &a
			}
		}
	}

	if !session.BeginFanOut() {
		d.log.Info("Dispatch aborted, session cancelled during location resolution")
		return nil, ErrCancelled
	}

	message := d.buildMessage(lat, lng, address)

	contacts, err := d.contacts.List(ctx)
	if err != nil {
		d.log.Error("Could not load emergency contacts: %v", err)
		contacts = nil
	}
	if len(contacts) == 0 {
		d.log.Warn("No emergency contacts configured, dialing emergency numbers only")
	}

	for _, number := range d.cfg.EmergencyNumbers {
		d.open(d.smsLink(number, message))
	}
	for _, c := range contacts {
		d.open(d.whatsappLink(c.Phone, message))
		d.open(d.smsLink(c.Phone, message))
	}

	record := &models.AlertRecord{
		Latitude:         lat,
		Longitude:        lng,
		Address:          address,
		TriggeredBy:      trigger,
		Message:          message,
		ContactsNotified: len(contacts),
	}
	if err := d.records.Create(ctx, record); err != nil {
		// The alert already went out; a failed trace is logged, not fatal.
		d.log.Error("Could not persist alert record: %v", err)
	}

	session.Complete()

	return &Outcome{
		ContactsNotified: len(contacts),
		HadLocation:      lat != nil,
		HadAddress:       address != nil,
	}, nil
}

// buildMessage assembles the alert text. Without coordinates the
// location lines are omitted entirely.
func (d *Dispatcher) buildMessage(lat, lng *float64, address *string) string {
	var b strings.Builder
	b.WriteString("Emergency Alert! I need help!")

	if lat != nil && lng != nil {
		coords := formatCoord(*lat) + "," + formatCoord(*lng)
		b.WriteString("\nLocation: ")
		if address != nil {
			b.WriteString(*address)
		} else {
			b.WriteString(formatCoord(*lat) + ", " + formatCoord(*lng))
		}
		b.WriteString("\nGoogle Maps: ")
		b.WriteString(fmt.Sprintf("%s?q=%s", d.cfg.MapsBaseURL, coords))
	}

	return b.String()
}

func (d *Dispatcher) smsLink(number, message string) string {
	return "sms:" + models.NormalizePhone(number) + "?body=" + url.QueryEscape(message)
}

// whatsappLink builds a wa.me deep link. WhatsApp numbers are digits
// only with a country prefix; a bare national number gets the
// configured calling code.
func (d *Dispatcher) whatsappLink(number, message string) string {
	normalized := models.NormalizePhone(number)
	digits := strings.TrimPrefix(normalized, "+")
	if !strings.HasPrefix(normalized, "+") {
		digits = d.cfg.CountryCallingCode + digits
	}
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(message)
}

// open delivers one channel, falling back to same-tab navigation when
// the popup was blocked. Channel failures never abort the fan-out.
func (d *Dispatcher) open(uri string) {
	err := d.opener.Open(uri)
	if err == nil {
		return
	}
	if errors.Is(err, ErrPopupBlocked) {
		d.log.Debug("Popup blocked, falling back to direct navigation")
		d.opener.Navigate(uri)
		return
	}
	d.log.Error("Could not open alert channel: %v", err)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
