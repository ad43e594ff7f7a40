package core

import (
	"bytes"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	templates   tmplCache
	templatesMu sync.RWMutex
)

type (
	tmplCacheEntry map[string]interface{}    // {ext: *Template}
	tmplCache      map[string]tmplCacheEntry // {name: {tmplCacheEntry}}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// Reference identifies the record the message is about, eg. "merit_submission:<id>".
		Reference string

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently. Failures are logged, never returned.
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getTemplate(ext string) (interface{}, bool) {
	templatesMu.RLock()
	defer templatesMu.RUnlock()

	cache, ok := templates[m.TemplateName]
	if !ok {
		return nil, ok
	}
	tmplEntry, ok := cache[ext]
	return tmplEntry, ok
}

func (m *EmailMessage) renderText(ctxData ContextData) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".txt")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*texttmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, ctxData); err != nil {
		return errors.Wrapf(err, "rendering %s.txt", m.TemplateName)
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML(ctxData ContextData) error {
	if m.TemplateName == "" {
		return nil
	}

	tmplEntry, ok := m.getTemplate(".gohtml")
	if !ok {
		return nil
	}
	tmpl, ok := tmplEntry.(*htmltmpl.Template)
	if !ok {
		return nil
	}

	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, ctxData); err != nil {
		return errors.Wrapf(err, "rendering %s.gohtml", m.TemplateName)
	}
	m.HTMLContent = buff.String()
	return nil
}

// Render fills TextContent and HTMLContent from BodyStr or the parsed templates.
func (m *EmailMessage) Render(conf *Config) error {
	ctxData := ContextData{AppName: conf.AppName, FrontendBaseURL: conf.FrontendBaseURL, Data: m.TemplateData}
	if err := m.renderText(ctxData); err != nil {
		return err
	}
	return m.renderHTML(ctxData)
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

// ParseEmailTemplates parses every `<name>.txt` and `<name>.gohtml` file found in `dir` of `fsys`.
// Files starting with "_" are base layouts shared by the templates of the same extension.
func ParseEmailTemplates(fsys fs.FS, dir string, logger Logger) {
	cache := make(tmplCache)

	fps, err := fs.Glob(fsys, path.Join(dir, "*"))
	if err != nil {
		logger.Error("core.ParseEmailTemplates: "+err.Error(), err)
		return
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := cache[name]
		if !ok {
			entry = make(tmplCacheEntry)
			cache[name] = entry
		}

		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(fsys, path.Join(dir, "_base.txt"), fp)
			if err != nil {
				logger.Error("core.ParseEmailTemplates: "+err.Error(), err)
				continue
			}
			entry[ext] = tmpl.Option("missingkey=zero")
		} else {
			tmpl, err := htmltmpl.ParseFS(fsys, path.Join(dir, "_base.gohtml"), fp)
			if err != nil {
				logger.Error("core.ParseEmailTemplates: "+err.Error(), err)
				continue
			}
			entry[ext] = tmpl.Option("missingkey=zero")
		}
	}

	templatesMu.Lock()
	templates = cache
	templatesMu.Unlock()
}
