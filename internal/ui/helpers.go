package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/padbhq/padb/internal/aidb"
	"github.com/padbhq/padb/internal/viewstate"
)

// errorText turns an API error into a one-line message for the user.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	var (
		ne *aidb.NetworkError
		se *aidb.HTTPStatusError
		de *aidb.DecodeError
		st *viewstate.StepError
	)
	switch {
	case errors.As(err, &st):
		return fmt.Sprintf("%s failed: %s", titleCase(st.Step), errorText(st.Err))
	case aidb.IsNotFound(err):
		var nf *aidb.NotFoundError
		if errors.As(err, &nf) && nf.Resource != "" {
			return fmt.Sprintf("%s not found", titleCase(nf.Resource))
		}
		return "Not found"
	case errors.As(err, &se):
		if d := se.Detail(); d != "" {
			return d
		}
		return fmt.Sprintf("Request failed (HTTP %d)", se.Status)
	case errors.As(err, &ne):
		return "Cannot reach the API: " + ne.Err.Error()
	case errors.As(err, &de):
		return "Unexpected response from the API"
	default:
		return err.Error()
	}
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// formatDate renders a backend timestamp for tables.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func formatSeconds(sec *float64) string {
	if sec == nil {
		return "-"
	}
	d := time.Duration(*sec * float64(time.Second))
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// moveSelection applies a list navigation key to sel for a list of n rows.
func moveSelection(sel, n int, k string) int {
	if n == 0 {
		return 0
	}
	switch k {
	case "j", "down":
		if sel < n-1 {
			sel++
		}
	case "k", "up":
		if sel > 0 {
			sel--
		}
	case "g", "home":
		sel = 0
	case "G", "end":
		sel = n - 1
	}
	if sel >= n {
		sel = n - 1
	}
	return sel
}
