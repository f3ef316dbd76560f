package usecase

import (
	"bytes"
	"html/template"
	texttemplate "text/template"

	"github.com/shandysiswandi/gotp/internal/audit/entity"
	"github.com/shandysiswandi/gotp/internal/pkg/mail"
)

const alertSubject = "A new authenticator was added to your account"

var (
	alertText = texttemplate.Must(texttemplate.New("text").Parse(`Hi {{.Username}},

An authenticator named "{{.DeviceName}}" was registered for your account at {{.When}}.

If this was not you, contact your administrator right away.
`))

	alertHTML = template.Must(template.New("html").Parse(`<p>Hi {{.Username}},</p>
<p>An authenticator named <strong>{{.DeviceName}}</strong> was registered for your account at {{.When}}.</p>
<p>If this was not you, contact your administrator right away.</p>
`))
)

type alertData struct {
	Username   string
	DeviceName string
	When       string
}

func (s *Usecase) newDeviceMessage(rcpt *entity.Recipient, ev entity.Event) (mail.Message, error) {
	data := alertData{
		Username:   rcpt.Username,
		DeviceName: ev.DeviceName,
		When:       ev.OccurredAt.UTC().Format("2006-01-02 15:04 MST"),
	}

	var text, html bytes.Buffer
	if err := alertText.Execute(&text, data); err != nil {
		return mail.Message{}, err
	}
	if err := alertHTML.Execute(&html, data); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:       []string{rcpt.Email},
		Subject:  s.getString("modules.audit.alert_subject", alertSubject),
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
