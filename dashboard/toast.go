package dashboard

import "time"

// ShowToast appends a notification
func (d *Dashboard) ShowToast(st *State, message string, severity Severity) {
	if severity == "" {
		severity = SeverityInfo
	}
	st.Toasts = append(st.Toasts, Toast{Message: message, Severity: severity, Created: d.now()})
}

// ActiveToasts hands the unexpired notifications to the page, each with the
// time it has left, and removes them from the session. The page script
// takes them off screen when their time runs out.
func (d *Dashboard) ActiveToasts(st *State) []ActiveToast {
	now := d.now()
	out := make([]ActiveToast, 0, len(st.Toasts))
	for _, t := range st.Toasts {
		left := d.toastTTL - now.Sub(t.Created)
		if left <= 0 {
			continue
		}
		out = append(out, ActiveToast{Toast: t, Remaining: left})
	}
	st.Toasts = nil
	return out
}

// ActiveToast is a toast still on screen
type ActiveToast struct {
	Toast
	Remaining time.Duration
}

// RemainingMillis is used by the page script to schedule removal.
func (a ActiveToast) RemainingMillis() int64 {
	return a.Remaining.Milliseconds()
}
