package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/listops"
	"github.com/padbhq/padb/internal/viewstate"
)

// audioScreen lists recordings, uploads new ones and runs the
// transcribe then extract pipeline per recording.
type audioScreen struct {
	base
	list      viewstate.Fetch[[]aidb.AudioRecording]
	detail    viewstate.Fetch[aidb.AudioRecording]
	detailID  int64
	pipeline  *viewstate.Pipeline[int64]
	deletes   *viewstate.Actions[int64]
	selected  int
	path      textinput.Model
	uploading bool // path input open
	sending   bool // upload in flight
	confirm   int64
	notice    string
}

type recordingsMsg struct {
	ticket     viewstate.Ticket
	recordings []aidb.AudioRecording
	err        error
}

type recordingMsg struct {
	ticket    viewstate.Ticket
	recording aidb.AudioRecording
	err       error
}

type uploadedMsg struct {
	result aidb.UploadResult
	err    error
}

type processedMsg struct {
	id     int64
	result aidb.ProcessResult
	err    error
}

type recordingDeletedMsg struct {
	id  int64
	err error
}

func newAudioScreen(b base) *audioScreen {
	in := textinput.New()
	in.Prompt = "File: "
	in.Placeholder = "~/recordings/meeting.m4a"
	return &audioScreen{
		base:     b,
		path:     in,
		pipeline: viewstate.NewPipeline(viewstate.NewActions[int64]()),
		deletes:  viewstate.NewActions[int64](),
	}
}

func (s *audioScreen) route() Route    { return RouteAudio }
func (s *audioScreen) capturing() bool { return s.uploading }
func (s *audioScreen) init() tea.Cmd   { return s.load() }

func (s *audioScreen) hints() []keyHint {
	if s.uploading {
		return []keyHint{{"enter", "Upload"}, {"esc", "Cancel"}}
	}
	return []keyHint{{"j/k", "Navigate"}, {"enter", "Details"}, {"u", "Upload"}, {"p", "Process"}, {"d", "Delete"}, {"r", "Refresh"}}
}

func (s *audioScreen) load() tea.Cmd {
	ticket := s.list.Begin()
	filter := aidb.AudioFilter{Limit: s.env.prefs.PageSize}
	audio := s.env.client.Audio
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		list, err := audio.List(ctx, filter)
		return recordingsMsg{ticket: ticket, recordings: list, err: err}, err
	})
}

func (s *audioScreen) loadDetail(id int64) tea.Cmd {
	s.detailID = id
	ticket := s.detail.Begin()
	audio := s.env.client.Audio
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		r, err := audio.Get(ctx, id)
		return recordingMsg{ticket: ticket, recording: r, err: err}, err
	})
}

func (s *audioScreen) current() (aidb.AudioRecording, bool) {
	list, ok := s.list.Value()
	if !ok || s.selected < 0 || s.selected >= len(list) {
		return aidb.AudioRecording{}, false
	}
	return list[s.selected], true
}

func (s *audioScreen) update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case recordingsMsg:
		if s.list.Resolve(msg.ticket, msg.recordings, msg.err) {
			s.selected = 0
		}
	case recordingMsg:
		s.detail.Resolve(msg.ticket, msg.recording, msg.err)
	case uploadedMsg:
		return s, s.uploaded(msg)
	case processedMsg:
		s.processed(msg)
	case recordingDeletedMsg:
		if msg.err != nil {
			s.deletes.Fail(msg.id, msg.err)
			s.notice = "Delete failed: " + errorText(msg.err)
			return s, nil
		}
		s.deletes.Done(msg.id)
		s.pipeline.Actions().Prune(msg.id)
		s.list.Mutate(func(list []aidb.AudioRecording) []aidb.AudioRecording {
			return listops.RemoveByID(list, msg.id)
		})
		if list, _ := s.list.Value(); s.selected >= len(list) && s.selected > 0 {
			s.selected--
		}
		if s.detailID == msg.id {
			s.closeDetail()
		}
		s.notice = "Recording deleted"
	case tea.KeyMsg:
		if s.uploading {
			return s, s.updatePath(msg)
		}
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *audioScreen) uploaded(msg uploadedMsg) tea.Cmd {
	s.sending = false
	if msg.err != nil {
		s.notice = "Upload failed: " + errorText(msg.err)
		return nil
	}
	rec := msg.result.Recording(nil)
	s.list.Mutate(func(list []aidb.AudioRecording) []aidb.AudioRecording {
		return listops.InsertFront(list, rec)
	})
	s.selected = 0
	s.notice = fmt.Sprintf("Uploaded %s, processing", rec.FileName)
	return s.process(rec.ID)
}

func (s *audioScreen) processed(msg processedMsg) {
	if msg.err != nil {
		s.notice = errorText(msg.err)
		log.Warn().Str("component", "audio").Int64("recording_id", msg.id).Err(msg.err).Msg("process recording failed")
		return
	}
	now := time.Now().UTC().Format("2006-01-02T15:04:05")
	s.list.Mutate(func(list []aidb.AudioRecording) []aidb.AudioRecording {
		return listops.ReplaceByID(list, msg.id, func(r aidb.AudioRecording) aidb.AudioRecording {
			r.HasTranscription = true
			r.ProcessedAt = now
			if msg.result.Extraction.ContactID != nil {
				r.ContactID = msg.result.Extraction.ContactID
			}
			return r
		})
	})
	s.notice = "Recording processed"
	if id := msg.result.Extraction.ContactID; id != nil {
		s.notice = fmt.Sprintf("Recording processed, contact #%d updated", *id)
	}
	if s.detailID == msg.id {
		s.detail.Mutate(func(r aidb.AudioRecording) aidb.AudioRecording {
			r.HasTranscription = true
			r.Transcription = msg.result.Transcription.Transcription
			r.ProcessedAt = now
			r.ContactID = msg.result.Extraction.ContactID
			return r
		})
	}
}

func (s *audioScreen) updatePath(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.uploading = false
		s.path.Blur()
		return nil
	case "enter":
		path := strings.TrimSpace(s.path.Value())
		if path == "" {
			return nil
		}
		if err := aidb.ValidateAudioFileName(filepath.Base(path)); err != nil {
			s.notice = errorText(err)
			if ve, ok := aidb.AsValidation(err); ok {
				s.notice = ve.Fields["file"]
			}
			return nil
		}
		s.uploading = false
		s.path.Blur()
		return s.upload(path)
	}
	var cmd tea.Cmd
	s.path, cmd = s.path.Update(msg)
	return cmd
}

func (s *audioScreen) upload(path string) tea.Cmd {
	if s.sending {
		return nil
	}
	s.sending = true
	s.notice = "Uploading " + filepath.Base(path) + "..."
	audio := s.env.client.Audio
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		res, err := audio.UploadFile(ctx, path, nil)
		return uploadedMsg{result: res, err: err}, err
	})
}

// process starts the transcribe then extract pipeline for id. A second
// trigger while the first is running does nothing.
func (s *audioScreen) process(id int64) tea.Cmd {
	var result aidb.ProcessResult
	run, ok := s.pipeline.Begin(id, s.env.client.Audio.ProcessSteps(id, &result)...)
	if !ok {
		return nil
	}
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		err := run(ctx)
		return processedMsg{id: id, result: result, err: err}, err
	})
}

func (s *audioScreen) remove(id int64) tea.Cmd {
	if !s.deletes.Start(id, "delete") {
		return nil
	}
	audio := s.env.client.Audio
	return s.call(func(ctx context.Context) (tea.Msg, error) {
		err := audio.Delete(ctx, id)
		return recordingDeletedMsg{id: id, err: err}, err
	})
}

func (s *audioScreen) closeDetail() {
	s.detailID = 0
	s.detail.Reset()
}

func (s *audioScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := s.env.keys
	if s.confirm != 0 {
		id := s.confirm
		s.confirm = 0
		s.notice = ""
		if msg.String() == "y" {
			return s.remove(id)
		}
		return nil
	}
	list, _ := s.list.Value()
	switch {
	case key.Matches(msg, keys.Back):
		if s.detailID != 0 {
			s.closeDetail()
		}
	case key.Matches(msg, keys.Refresh):
		return s.load()
	case key.Matches(msg, keys.Upload):
		s.uploading = true
		s.path.SetValue("")
		return s.path.Focus()
	case key.Matches(msg, keys.Open):
		if r, ok := s.current(); ok {
			return s.loadDetail(r.ID)
		}
	case key.Matches(msg, keys.Process):
		if r, ok := s.current(); ok {
			return s.process(r.ID)
		}
	case key.Matches(msg, keys.Delete):
		if r, ok := s.current(); ok {
			s.confirm = r.ID
			s.notice = fmt.Sprintf("Delete %s? y/n", r.FileName)
		}
	default:
		s.selected = moveSelection(s.selected, len(list), msg.String())
	}
	return nil
}

// statusLabel describes a recording's processing state for the table.
func (s *audioScreen) statusLabel(r aidb.AudioRecording) (string, string) {
	st := s.pipeline.Actions().Get(r.ID)
	switch st.Phase {
	case viewstate.InProgress:
		return st.Step + "...", "processing"
	case viewstate.Failed:
		return "failed", "failed"
	}
	if r.HasTranscription {
		return "transcribed", "transcribed"
	}
	return "pending", "pending"
}

func (s *audioScreen) view(f frame) string {
	var b strings.Builder
	if s.uploading {
		b.WriteString(s.path.View())
		b.WriteString("\n")
		b.WriteString(f.styles.FaintText.Render("Formats: " + strings.Join(aidb.AudioExtensions, " ")))
		b.WriteString("\n\n")
	}

	snap := s.list.Snapshot()
	if out, ok := stateView(f, snap, "recordings", ""); ok {
		b.WriteString(out)
		return b.String()
	}
	list := snap.Value
	if len(list) == 0 {
		b.WriteString(emptyView(f, "No recordings", "u to upload an audio file"))
		if s.notice != "" {
			b.WriteString("\n\n")
			b.WriteString(f.styles.WarningText.Render(s.notice))
		}
		return b.String()
	}

	height := f.height - 6
	if s.detailID != 0 {
		height = height / 2
	}
	b.WriteString(f.styles.MutedText.Bold(true).Render(
		fmt.Sprintf("%-34s %-9s %-8s %-14s %s", "File", "Contact", "Length", "Status", "Uploaded")))
	b.WriteString("\n")
	start, end := scrollWindow(len(list), s.selected, height)
	for i := start; i < end; i++ {
		r := list[i]
		contact := "-"
		if r.ContactID != nil {
			contact = fmt.Sprintf("#%d", *r.ContactID)
		}
		label, status := s.statusLabel(r)
		row := fmt.Sprintf("%-34s %-9s %-8s ", truncateMiddle(r.FileName, 34), contact, formatSeconds(r.DurationSeconds))
		statusCell := f.styles.StatusStyle(status).Render(padRight(label, 14))
		if i == s.selected {
			b.WriteString(listRow(f, row+padRight(label, 14)+" "+formatDate(r.ParsedCreatedAt()), true))
		} else {
			b.WriteString(f.styles.Text.Render(row) + statusCell + " " + f.styles.Text.Render(formatDate(r.ParsedCreatedAt())))
		}
		b.WriteString("\n")
	}
	b.WriteString(f.styles.FaintText.Render(fmt.Sprintf("%d recordings", len(list))))
	if s.sending {
		b.WriteString("  " + f.spinner)
	}
	if s.notice != "" {
		b.WriteString("  ")
		b.WriteString(f.styles.WarningText.Render(s.notice))
	}

	if s.detailID != 0 {
		b.WriteString("\n\n")
		b.WriteString(s.detailView(f))
	}
	return b.String()
}

func (s *audioScreen) detailView(f frame) string {
	snap := s.detail.Snapshot()
	if out, ok := stateView(f, snap, "recording", "Recording not found"); ok {
		return out
	}
	r := snap.Value
	st := f.styles
	var b strings.Builder
	b.WriteString(st.AccentText.Bold(true).Render(r.FileName))
	b.WriteString("\n")
	b.WriteString(st.MutedText.Render(padRight("Path", 11)) + st.Text.Render(dash(r.FilePath)) + "\n")
	b.WriteString(st.MutedText.Render(padRight("Processed", 11)) + st.Text.Render(formatDate(r.ParsedProcessedAt())) + "\n")
	b.WriteString("\n")
	if r.Transcription == "" {
		b.WriteString(st.FaintText.Render("Not transcribed yet. p to process."))
		return b.String()
	}
	lines := max(f.height/2-8, 3)
	text := lipgloss.NewStyle().Width(max(f.width-6, 20)).Render(r.Transcription)
	b.WriteString(st.Text.Render(fitLines(text, lines)))
	return b.String()
}
