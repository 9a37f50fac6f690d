package aidb

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// recentContacts is how many contacts the dashboard lists.
const recentContacts = 5

// DashboardStats is the summary shown on the dashboard screen.
type DashboardStats struct {
	TotalContacts   int
	TotalEvents     int
	TotalRecordings int
	Transcribed     int
	RecentContacts  []Contact
	PlannedEvents   []Event
	TopLocations    []LocationCount
	TopCompanies    []CompanyCount
}

// DashboardStats fans out to the suggestion, contact, event and audio
// endpoints. Any failing request fails the whole summary.
func (c *Client) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var (
		suggestions QuerySuggestions
		contacts    []Contact
		events      []Event
		recordings  []AudioRecording
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		suggestions, err = c.Query.Suggestions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = c.Contacts.List(gctx, ContactFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		events, err = c.Events.List(gctx, EventFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		recordings, err = c.Audio.List(gctx, AudioFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{
		TotalContacts:   suggestions.TotalContacts,
		TotalEvents:     len(events),
		TotalRecordings: len(recordings),
		TopLocations:    suggestions.Stats.TopLocations,
		TopCompanies:    suggestions.Stats.TopCompanies,
	}
	if stats.TotalContacts == 0 {
		stats.TotalContacts = len(contacts)
	}
	for _, r := range recordings {
		if r.HasTranscription {
			stats.Transcribed++
		}
	}

	recent := append([]Contact(nil), contacts...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].ParsedCreatedAt().After(recent[j].ParsedCreatedAt())
	})
	if len(recent) > recentContacts {
		recent = recent[:recentContacts]
	}
	stats.RecentContacts = recent

	for _, e := range events {
		if e.Status == EventPlanned {
			stats.PlannedEvents = append(stats.PlannedEvents, e)
		}
	}
	return stats, nil
}
