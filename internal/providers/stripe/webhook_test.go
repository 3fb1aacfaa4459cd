package stripe

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

const testSecret = "whsec_test_secret"

func completedEventPayload(sessionID, userID, credits string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": %q, "payment_status": "paid", "metadata": {"userId": %q, "credits": %q}}}
	}`, sessionID, userID, credits))
}

func TestVerifySignatureRoundTrip(t *testing.T) {
	payload := completedEventPayload("cs_1", "u1", "50")
	header := SignPayload(payload, testSecret, time.Now())
	if err := VerifySignature(payload, header, testSecret, DefaultTolerance); err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
}

func TestVerifySignatureWrongSecret(t *testing.T) {
	payload := completedEventPayload("cs_1", "u1", "50")
	header := SignPayload(payload, "whsec_other", time.Now())
	if err := VerifySignature(payload, header, testSecret, DefaultTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureTamperedPayload(t *testing.T) {
	payload := completedEventPayload("cs_1", "u1", "50")
	header := SignPayload(payload, testSecret, time.Now())
	tampered := completedEventPayload("cs_1", "u1", "5000")
	if err := VerifySignature(tampered, header, testSecret, DefaultTolerance); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifySignatureStaleTimestamp(t *testing.T) {
	payload := completedEventPayload("cs_1", "u1", "50")
	header := SignPayload(payload, testSecret, time.Now().Add(-time.Hour))
	if err := VerifySignature(payload, header, testSecret, DefaultTolerance); !errors.Is(err, ErrToleranceExceeded) {
		t.Fatalf("expected ErrToleranceExceeded, got %v", err)
	}
}

func TestVerifySignatureMalformedHeader(t *testing.T) {
	payload := completedEventPayload("cs_1", "u1", "50")
	for _, header := range []string{"", "v1=deadbeef", "t=notanumber,v1=deadbeef", "t=123"} {
		if err := VerifySignature(payload, header, testSecret, DefaultTolerance); err == nil {
			t.Fatalf("header %q accepted", header)
		}
	}
}

func TestConstructEvent(t *testing.T) {
	payload := completedEventPayload("cs_1", "u1", "50")
	header := SignPayload(payload, testSecret, time.Now())

	event, err := ConstructEvent(payload, header, testSecret, DefaultTolerance)
	if err != nil {
		t.Fatalf("ConstructEvent: %v", err)
	}
	if event.Type != EventCheckoutCompleted {
		t.Fatalf("unexpected event type %q", event.Type)
	}

	session, err := event.Session()
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if session.ID != "cs_1" || !session.Paid() {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.Metadata["userId"] != "u1" || session.Metadata["credits"] != "50" {
		t.Fatalf("unexpected metadata: %+v", session.Metadata)
	}
}

func TestVerifySignatureAcceptsAnyValidV1Entry(t *testing.T) {
	payload := completedEventPayload("cs_1", "u1", "50")
	valid := SignPayload(payload, testSecret, time.Now())
	// Stripe sends multiple v1 entries during secret rotation.
	header := valid + ",v1=0000000000000000000000000000000000000000000000000000000000000000"
	if err := VerifySignature(payload, header, testSecret, DefaultTolerance); err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
}
