package emailsvc

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
)

type consoleService struct {
	conf          *core.Config
	logger        core.Logger
	subjPrefix    string
	disableOutput bool
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService prints the messages to the standard logger instead of sending them.
func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{
		conf:       conf,
		logger:     logger,
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

// sendMessage renders and prints `msg`, and reports whether it was sent.
func (svc consoleService) sendMessage(msg *core.EmailMessage) bool {
	if err := msg.Render(svc.conf); err != nil {
		svc.logger.Error("rendering email: "+err.Error(), errors.Wrap(err, "rendering email"))
		return false
	}
	if !(msg.HasRecipients() && msg.HasContent()) {
		return false
	}
	if err := svc.send(*msg); err != nil {
		svc.logger.Error("sending email: "+err.Error(), err)
		return false
	}
	return true
}

func (svc consoleService) send(msg core.EmailMessage) error {
	body := new(strings.Builder)

	// Write mail header
	from := svc.conf.DefaultFromEmail()
	_, _ = fmt.Fprintf(body, "From: %s\r\n", from.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "CC: %s\r\n", joinAddresses(msg.Cc))
	_, _ = fmt.Fprintf(body, "BCC: %s\r\n", joinAddresses(msg.Bcc))
	if msg.Reference != "" {
		_, _ = fmt.Fprintf(body, "X-Reference: %s\r\n", msg.Reference)
	}

	altW := multipart.NewWriter(body)
	_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", altW.Boundary())

	w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain"}})
	if err != nil {
		return errors.Wrap(err, "creating text/plain part")
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	if msg.HTMLContent != "" {
		w, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html"}})
		if err != nil {
			return errors.Wrap(err, "creating text/html part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
	}
	if err = altW.Close(); err != nil {
		return errors.Wrap(err, "closing multipart writer")
	}

	if !svc.disableOutput {
		log.Println(body.String())
	}
	return nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// ConsoleServiceMock sends synchronously and records the sent messages.
type ConsoleServiceMock struct {
	consoleService

	mu           sync.Mutex
	sentMessages []core.EmailMessage
}

var _ core.EmailService = (*ConsoleServiceMock)(nil)

func NewConsoleServiceMock(conf *core.Config, logger core.Logger) *ConsoleServiceMock {
	return &ConsoleServiceMock{
		consoleService: consoleService{
			conf:          conf,
			logger:        logger,
			subjPrefix:    "[" + conf.AppName + "] ",
			disableOutput: true,
		},
	}
}

func (svc *ConsoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		// run synchronously
		if svc.sendMessage(msg) {
			svc.mu.Lock()
			svc.sentMessages = append(svc.sentMessages, *msg)
			svc.mu.Unlock()
		}
	}
}

// SentMessages returns a copy of the messages sent so far.
func (svc *ConsoleServiceMock) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	msgs := make([]core.EmailMessage, len(svc.sentMessages))
	copy(msgs, svc.sentMessages)
	return msgs
}

// Reset forgets the sent messages.
func (svc *ConsoleServiceMock) Reset() {
	svc.mu.Lock()
	svc.sentMessages = nil
	svc.mu.Unlock()
}
