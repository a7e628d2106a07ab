package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

type Kind string

const (
	KindReserved    Kind = "reserved"
	KindRescheduled Kind = "rescheduled"
	KindAccepted    Kind = "accepted"
	KindCancelled   Kind = "cancelled"
)

// SessionNotice carries what every session email shows.
type SessionNotice struct {
	Recipient string
	Counter   string
	SessionID int64
	StartsAt  time.Time
	Amount    string
	Link      string
}

var subjects = map[Kind]string{
	KindReserved:    "Your coaching session is reserved",
	KindRescheduled: "Your coaching session was rescheduled",
	KindAccepted:    "Your coach accepted the session",
	KindCancelled:   "Your coaching session was cancelled",
}

var bodies = template.Must(template.New("session").Parse(`
{{define "reserved"}}<p>Hi {{.Recipient}},</p>
<p>Session #{{.SessionID}} with {{.Counter}} is reserved for {{.StartsAt.Format "Mon, 02 Jan 2006 15:04 MST"}}.</p>
{{if .Amount}}<p>Amount paid: {{.Amount}}</p>{{end}}{{end}}
{{define "rescheduled"}}<p>Hi {{.Recipient}},</p>
<p>Session #{{.SessionID}} with {{.Counter}} now starts {{.StartsAt.Format "Mon, 02 Jan 2006 15:04 MST"}}.</p>{{end}}
{{define "accepted"}}<p>Hi {{.Recipient}},</p>
<p>{{.Counter}} accepted session #{{.SessionID}} on {{.StartsAt.Format "Mon, 02 Jan 2006 15:04 MST"}}.</p>
<p>Join here: <a href="{{.Link}}">{{.Link}}</a></p>{{end}}
{{define "cancelled"}}<p>Hi {{.Recipient}},</p>
<p>Session #{{.SessionID}} with {{.Counter}} on {{.StartsAt.Format "Mon, 02 Jan 2006 15:04 MST"}} was cancelled.</p>{{end}}
`))

// Render returns the subject and HTML body for a notice.
func Render(kind Kind, notice SessionNotice) (string, string, error) {
	subject, ok := subjects[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notice kind %q", kind)
	}
	var buf bytes.Buffer
	if err := bodies.ExecuteTemplate(&buf, string(kind), notice); err != nil {
		return "", "", fmt.Errorf("render %s notice: %w", kind, err)
	}
	return subject, buf.String(), nil
}
