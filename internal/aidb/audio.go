package aidb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/padbhq/padb/internal/viewstate"
)

// AudioAPI wraps the /audio resource.
type AudioAPI struct{ c *Client }

// Pipeline step names reported by ProcessSteps.
const (
	StepTranscribe = "transcribe"
	StepExtract    = "extract"
)

// AudioFilter narrows GET /audio.
type AudioFilter struct {
	ContactID int64
	Skip      int
	Limit     int
}

func (f AudioFilter) values() url.Values {
	q := pageValues(f.Skip, f.Limit)
	if f.ContactID > 0 {
		q.Set("contact_id", strconv.FormatInt(f.ContactID, 10))
	}
	return q
}

// List returns recordings in server order. List entries never carry the
// transcription text; use Get for that.
func (api *AudioAPI) List(ctx context.Context, filter AudioFilter) ([]AudioRecording, error) {
	var out []AudioRecording
	err := api.c.do(ctx, request{
		op:     "list recordings",
		method: http.MethodGet,
		route:  "/audio",
		path:   "/audio/",
		query:  filter.values(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one recording including transcription and file path.
func (api *AudioAPI) Get(ctx context.Context, id int64) (AudioRecording, error) {
	var out AudioRecording
	err := api.c.do(ctx, request{
		op:       "get recording",
		method:   http.MethodGet,
		route:    "/audio/{id}",
		path:     fmt.Sprintf("/audio/%d", id),
		resource: "recording",
		id:       id,
	}, &out)
	if err != nil {
		return AudioRecording{}, err
	}
	out.HasTranscription = out.HasTranscription || out.Transcription != ""
	return out, nil
}

// Upload streams an audio file as multipart/form-data. contactID is optional.
func (api *AudioAPI) Upload(ctx context.Context, fileName string, r io.Reader, contactID *int64) (UploadResult, error) {
	if err := ValidateAudioFileName(fileName); err != nil {
		return UploadResult{}, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(fileName))
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload recording: create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return UploadResult{}, fmt.Errorf("upload recording: read %s: %w", fileName, err)
	}
	if contactID != nil {
		if err := mw.WriteField("contact_id", strconv.FormatInt(*contactID, 10)); err != nil {
			return UploadResult{}, fmt.Errorf("upload recording: write contact_id: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("upload recording: close form: %w", err)
	}

	var out UploadResult
	err = api.c.do(ctx, request{
		op:          "upload recording",
		method:      http.MethodPost,
		route:       "/audio/upload",
		path:        "/audio/upload",
		raw:         &buf,
		contentType: mw.FormDataContentType(),
	}, &out)
	return out, err
}

// UploadFile opens path and uploads it.
func (api *AudioAPI) UploadFile(ctx context.Context, path string, contactID *int64) (UploadResult, error) {
	if err := ValidateAudioFileName(path); err != nil {
		return UploadResult{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("open recording %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return api.Upload(ctx, filepath.Base(path), f, contactID)
}

// Transcribe runs speech-to-text on a recording.
func (api *AudioAPI) Transcribe(ctx context.Context, id int64) (TranscriptionResult, error) {
	var out TranscriptionResult
	err := api.c.do(ctx, request{
		op:       "transcribe recording",
		method:   http.MethodPost,
		route:    "/audio/transcribe/{id}",
		path:     fmt.Sprintf("/audio/transcribe/%d", id),
		resource: "recording",
		id:       id,
	}, &out)
	return out, err
}

// Extract turns a transcription into contact data. The backend creates or
// links a contact and reports its id.
func (api *AudioAPI) Extract(ctx context.Context, id int64) (ExtractionResult, error) {
	var out ExtractionResult
	err := api.c.do(ctx, request{
		op:       "extract recording",
		method:   http.MethodPost,
		route:    "/audio/extract/{id}",
		path:     fmt.Sprintf("/audio/extract/%d", id),
		resource: "recording",
		id:       id,
	}, &out)
	return out, err
}

// Delete removes a recording and its file.
func (api *AudioAPI) Delete(ctx context.Context, id int64) error {
	return api.c.do(ctx, request{
		op:       "delete recording",
		method:   http.MethodDelete,
		route:    "/audio/{id}",
		path:     fmt.Sprintf("/audio/%d", id),
		resource: "recording",
		id:       id,
	}, nil)
}

// ProcessResult collects the outputs of the transcribe and extract steps.
type ProcessResult struct {
	Transcription TranscriptionResult
	Extraction    ExtractionResult
}

// ProcessSteps returns the transcribe then extract pipeline for one
// recording. Results are written into out as each step completes.
func (api *AudioAPI) ProcessSteps(id int64, out *ProcessResult) []viewstate.Step {
	return []viewstate.Step{
		{Name: StepTranscribe, Run: func(ctx context.Context) error {
			res, err := api.Transcribe(ctx, id)
			if err != nil {
				return err
			}
			out.Transcription = res
			return nil
		}},
		{Name: StepExtract, Run: func(ctx context.Context) error {
			res, err := api.Extract(ctx, id)
			if err != nil {
				return err
			}
			out.Extraction = res
			return nil
		}},
	}
}

// Process transcribes then extracts. Extraction is never attempted when
// transcription fails; the returned *viewstate.StepError names the step.
func (api *AudioAPI) Process(ctx context.Context, id int64) (ProcessResult, error) {
	var out ProcessResult
	err := viewstate.RunSteps(ctx, nil, api.ProcessSteps(id, &out)...)
	return out, err
}
