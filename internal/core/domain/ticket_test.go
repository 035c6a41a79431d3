package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lorrc/ticket-stream-backend/internal/core/errors"
)

func TestNewTicket(t *testing.T) {
	imageURL := "https://cdn.example.com/shot.png"
	ticket, err := NewTicket(42, "printer on fire", "closed", &imageURL)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ticket.OwnerID)
	assert.Equal(t, "printer on fire", ticket.Body)
	assert.Equal(t, StateClosed, ticket.State)
	assert.Equal(t, &imageURL, ticket.ImageURL)
}

func TestNewTicket_DefaultsUnknownState(t *testing.T) {
	ticket, err := NewTicket(42, "body", "archived", nil)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, ticket.State)

	ticket, err = NewTicket(42, "body", "", nil)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, ticket.State)
}

func TestNewTicket_Validation(t *testing.T) {
	_, err := NewTicket(0, "body", "open", nil)
	assert.ErrorIs(t, err, apperrors.ErrOwnerRequired)

	_, err = NewTicket(-5, "body", "open", nil)
	assert.ErrorIs(t, err, apperrors.ErrOwnerRequired)

	_, err = NewTicket(1, "   ", "open", nil)
	assert.ErrorIs(t, err, apperrors.ErrBodyRequired)
}

func TestParseState(t *testing.T) {
	state, err := ParseState("open")
	require.NoError(t, err)
	assert.Equal(t, StateOpen, state)

	state, err = ParseState("closed")
	require.NoError(t, err)
	assert.Equal(t, StateClosed, state)

	_, err = ParseState("archived")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestChangeEvent_WireFormat(t *testing.T) {
	imageURL := "https://cdn.example.com/shot.png"
	ticket := &Ticket{
		ID:        7,
		OwnerID:   42,
		Body:      "printer on fire",
		ImageURL:  &imageURL,
		State:     StateOpen,
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 8, 30, 12, 5, 0, 0, time.UTC),
	}

	payload, err := json.Marshal(NewChangeEvent(OpUpdate, ticket))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"operation": "update",
		"record": {
			"id": 7,
			"ownerId": 42,
			"body": "printer on fire",
			"imageUrl": "https://cdn.example.com/shot.png",
			"state": "open",
			"createdAt": "2026-08-30T12:00:00Z",
			"updatedAt": "2026-08-30T12:05:00Z"
		}
	}`, string(payload))
}

func TestTicketSnapshot_TimesAreUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	ticket := &Ticket{
		ID:        1,
		OwnerID:   2,
		Body:      "b",
		State:     StateOpen,
		CreatedAt: time.Date(2026, 8, 30, 9, 0, 0, 0, loc),
		UpdatedAt: time.Date(2026, 8, 30, 9, 0, 0, 0, loc),
	}

	snapshot := NewTicketSnapshot(ticket)
	assert.Equal(t, "2026-08-30T12:00:00Z", snapshot.CreatedAt)
	assert.Equal(t, "2026-08-30T12:00:00Z", snapshot.UpdatedAt)
}
