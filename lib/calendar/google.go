// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/bureau-foundation/gather/lib/event"
)

// GoogleConfig holds the Google Calendar backend settings.
type GoogleConfig struct {
	// CredentialsFile is the OAuth client credentials JSON (the file
	// downloaded from the Google Cloud console).
	CredentialsFile string `yaml:"credentials_file"`

	// TokenFile is the stored OAuth token for the bot's account,
	// produced by a one-time interactive auth flow.
	TokenFile string `yaml:"token_file"`

	// CalendarID is the target calendar ("primary" or a calendar's
	// email-style ID).
	CalendarID string `yaml:"calendar_id"`

	// Timezone is the IANA zone event dates and times are read in.
	// Defaults to UTC.
	Timezone string `yaml:"timezone"`
}

// GoogleBridge is a Bridge backed by the Google Calendar API.
type GoogleBridge struct {
	service    *gcal.Service
	calendarID string
	loc        *time.Location
	logger     *slog.Logger
}

// NewGoogle builds a GoogleBridge from stored OAuth credentials.
// Returns ErrConfigMissing when the config is incomplete, so the
// caller can fall back to Disabled() and keep the bot running.
func NewGoogle(ctx context.Context, logger *slog.Logger, cfg GoogleConfig) (*GoogleBridge, error) {
	if cfg.CredentialsFile == "" || cfg.TokenFile == "" || cfg.CalendarID == "" {
		return nil, ErrConfigMissing
	}

	credentials, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("calendar: reading credentials: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(credentials, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("calendar: parsing credentials: %w", err)
	}

	token, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("calendar: loading token: %w", err)
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("calendar: invalid timezone %q: %w", cfg.Timezone, err)
		}
	}

	service, err := gcal.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("calendar: creating service: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &GoogleBridge{
		service:    service,
		calendarID: cfg.CalendarID,
		loc:        loc,
		logger:     logger,
	}, nil
}

// tokenFromFile loads a stored OAuth token.
func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return token, nil
}

// entry converts the event record to a Google Calendar event body.
func (b *GoogleBridge) entry(ev *event.Event) (*gcal.Event, error) {
	start, end, err := eventTimes(ev, b.loc)
	if err != nil {
		return nil, err
	}
	return &gcal.Event{
		Summary:     ev.Name,
		Description: ev.Description,
		Location:    ev.Place,
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}, nil
}

// Create inserts a calendar entry for the event.
func (b *GoogleBridge) Create(ctx context.Context, ev *event.Event, id event.ThreadID) (event.CalendarRef, error) {
	body, err := b.entry(ev)
	if err != nil {
		return event.CalendarRef{}, err
	}
	inserted, err := b.service.Events.Insert(b.calendarID, body).Context(ctx).Do()
	if err != nil {
		return event.CalendarRef{}, fmt.Errorf("calendar: insert for %s: %w", id, err)
	}
	b.logger.Info("calendar entry created",
		"thread", id.Key(),
		"calendar_event_id", inserted.Id,
	)
	return event.CalendarRef{ID: inserted.Id, Link: inserted.HtmlLink}, nil
}

// Update pushes the event's current state to its existing entry. A
// call for an event with no stored reference is a no-op; the entry
// will be created when the user asks for it.
func (b *GoogleBridge) Update(ctx context.Context, ev *event.Event, id event.ThreadID) error {
	if ev.Calendar == nil {
		return nil
	}
	body, err := b.entry(ev)
	if err != nil {
		return err
	}
	if _, err := b.service.Events.Update(b.calendarID, ev.Calendar.ID, body).Context(ctx).Do(); err != nil {
		return fmt.Errorf("calendar: update %s for %s: %w", ev.Calendar.ID, id, err)
	}
	b.logger.Info("calendar entry updated",
		"thread", id.Key(),
		"calendar_event_id", ev.Calendar.ID,
	)
	return nil
}
