package emailsvc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
)

func exportMessage(t *testing.T) *core.EmailMessage {
	t.Helper()
	msg := &core.EmailMessage{
		To:          []mail.Address{{Name: "Registrar", Address: "registrar@campus.test"}},
		Subject:     "Students export",
		TextContent: "Attached: 2 students.",
	}
	require.NoError(t, msg.Attach(strings.NewReader("xlsx bytes"), "students.xlsx", "application/vnd.ms-excel"))
	return msg
}

func testConfig() *core.Config {
	return &core.Config{AppName: "Campus", DefaultFromEmail: "Campus <noreply@campus.test>"}
}

func TestConsoleService(t *testing.T) {
	var out bytes.Buffer
	svc := NewConsoleService(testConfig(), &out)

	empty := &core.EmailMessage{Subject: "no recipients", TextContent: "x"}
	require.NoError(t, svc.SendMessages(exportMessage(t), empty))

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Students export", sent[0].Subject)

	written := out.String()
	assert.Contains(t, written, "Subject: [Campus] Students export\r\n")
	assert.Contains(t, written, `To: "Registrar" <registrar@campus.test>`)
	assert.Contains(t, written, "attachment; filename=students.xlsx")
	assert.Contains(t, written, "eGxzeCBieXRlcw==") // base64 of the attachment
}

func TestSendgridService(t *testing.T) {
	var got map[string]interface{}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	oldHost := host
	host = srv.URL
	defer func() { host = oldHost }()

	conf := testConfig()
	conf.SendgridApiKey = "SG.key"
	svc := NewSendgridService(conf, nil)
	require.NoError(t, svc.SendMessages(exportMessage(t)))

	assert.Equal(t, "Bearer SG.key", auth)
	pers := got["personalizations"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "[Campus] Students export", pers["subject"])
	att := got["attachments"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "students.xlsx", att["filename"])
}
