package notifications

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/adrg/xdg"
	"github.com/esiqveland/notify"
	"github.com/godbus/dbus/v5"

	"taskcycle/internal/alerts"
	"taskcycle/internal/config"
)

// UrgencyLevel represents the urgency level for notifications
type UrgencyLevel int

const (
	UrgencyLow      UrgencyLevel = iota // 0 - D-Bus Low
	UrgencyNormal                       // 1 - D-Bus Normal (default)
	UrgencyCritical                     // 2 - D-Bus Critical
)

const defaultTemplateText = `{{.Title}}{{if .Recurrence}} ({{.Recurrence}}){{end}}
Due: {{.Date}} {{.Time}} ({{.Offset}} warning){{if .OpenSteps}}
{{.OpenSteps}} of {{.Steps}} steps open{{end}}`

// TemplateData represents the data available to notification templates
type TemplateData struct {
	ID         string
	Title      string
	Kind       string
	Date       string
	Time       string
	Offset     string
	Recurrence string
	Priority   string
	Late       bool
	Steps      int
	OpenSteps  int
}

// Message is a rendered notification
type Message struct {
	Summary string
	Body    string
	Urgency UrgencyLevel
	Expire  time.Duration
}

// Notifier handles sending notifications
type Notifier interface {
	SendNotification(request alerts.AlertRequest) error
}

// Renderer turns alert requests into messages with a text template
type Renderer struct {
	config     config.NotificationConfig
	template   *template.Template
	classifier *alerts.PriorityClassifier
	now        func() time.Time
}

// NewRenderer creates a renderer. A configured template that cannot be
// loaded is an error.
func NewRenderer(cfg config.NotificationConfig) (*Renderer, error) {
	r := &Renderer{
		config:     cfg,
		template:   template.Must(template.New("default").Parse(defaultTemplateText)),
		classifier: alerts.NewConfiguredClassifier(cfg),
		now:        time.Now,
	}
	if cfg.Template != "" {
		tmpl, err := loadNamedTemplate(cfg.Template)
		if err != nil {
			return nil, err
		}
		r.template = tmpl
	}
	return r, nil
}

// Render renders a request into a message
func (r *Renderer) Render(request alerts.AlertRequest) (Message, error) {
	data := r.createTemplateData(request)

	var buf bytes.Buffer
	if err := r.template.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("template execution failed: %w", err)
	}

	urgency := urgencyFor(r.classifier.Classify(request, r.now()))
	if request.Important {
		urgency = UrgencyCritical
	}

	expire := r.config.Expire()
	if request.Late {
		// Late reminders stay until dismissed
		expire = 0
	}

	return Message{
		Summary: data.Title,
		Body:    strings.TrimSpace(buf.String()),
		Urgency: urgency,
		Expire:  expire,
	}, nil
}

// createTemplateData creates template data from an alert request
func (r *Renderer) createTemplateData(request alerts.AlertRequest) TemplateData {
	item := request.Item
	open := 0
	for _, entry := range item.Checklist {
		if !entry.Done {
			open++
		}
	}
	local := request.Occurrence.In(time.Local)

	return TemplateData{
		ID:         item.ID,
		Title:      item.Title,
		Kind:       string(item.Kind),
		Date:       local.Format("2006-01-02"),
		Time:       local.Format("15:04"),
		Offset:     formatDuration(request.Offset),
		Recurrence: recurrenceText(item.Describe()),
		Priority:   r.classifier.Classify(request, r.now()).String(),
		Late:       request.Late,
		Steps:      len(item.Checklist),
		OpenSteps:  open,
	}
}

func recurrenceText(described string) string {
	if described == "Does not repeat" {
		return ""
	}
	return described
}

func urgencyFor(p alerts.ItemPriority) UrgencyLevel {
	switch p {
	case alerts.PriorityLow:
		return UrgencyLow
	case alerts.PriorityCritical:
		return UrgencyCritical
	default:
		return UrgencyNormal
	}
}

// loadNamedTemplate finds a template in the XDG config directories
func loadNamedTemplate(name string) (*template.Template, error) {
	templatePath, err := xdg.SearchConfigFile(filepath.Join("taskcycle", "templates", name))
	if err != nil {
		templatePath = name
	}
	return LoadTemplate(templatePath)
}

// LoadTemplate loads a template from a file path
func LoadTemplate(path string) (*template.Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}

	return tmpl, nil
}

var durationUnits = []struct {
	size time.Duration
	name string
}{
	{24 * time.Hour, "day"},
	{time.Hour, "hour"},
	{time.Minute, "minute"},
	{time.Second, "second"},
}

// formatDuration renders d in its largest whole unit, rounding down
func formatDuration(d time.Duration) string {
	for _, u := range durationUnits {
		if d < u.size && u.size != time.Second {
			continue
		}
		n := int(d / u.size)
		if n == 1 {
			return "1 " + u.name
		}
		return fmt.Sprintf("%d %ss", n, u.name)
	}
	return "0 seconds"
}

// notificationSender is the part of notify.Notifier the D-Bus notifier uses
type notificationSender interface {
	SendNotification(n notify.Notification) (uint32, error)
}

// DBusNotifier implements Notifier using D-Bus directly
type DBusNotifier struct {
	renderer *Renderer
	appName  string
	conn     *dbus.Conn
	sender   notificationSender
}

// NewDBusNotifier connects to the session bus
func NewDBusNotifier(renderer *Renderer, appName string) (*DBusNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session D-Bus: %w", err)
	}

	notifier, err := notify.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create D-Bus notifier: %w", err)
	}

	return &DBusNotifier{
		renderer: renderer,
		appName:  appName,
		conn:     conn,
		sender:   notifier,
	}, nil
}

// Close closes the D-Bus connection
func (d *DBusNotifier) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// SendNotification renders the request and sends it over D-Bus
func (d *DBusNotifier) SendNotification(request alerts.AlertRequest) error {
	msg, err := d.renderer.Render(request)
	if err != nil {
		return err
	}

	notification := notify.Notification{
		AppName:       d.appName,
		ReplacesID:    0,
		AppIcon:       "appointment-soon",
		Summary:       msg.Summary,
		Body:          msg.Body,
		Actions:       []notify.Action{},
		Hints:         map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(msg.Urgency))},
		ExpireTimeout: msg.Expire,
	}

	if _, err := d.sender.SendNotification(notification); err != nil {
		return fmt.Errorf("failed to send D-Bus notification: %w", err)
	}
	return nil
}

// LogNotifier writes reminders to a structured logger
type LogNotifier struct {
	renderer *Renderer
	logger   *slog.Logger
}

// NewLogNotifier creates a notifier that logs through logger
func NewLogNotifier(renderer *Renderer, logger *slog.Logger) *LogNotifier {
	return &LogNotifier{renderer: renderer, logger: logger}
}

// SendNotification renders the request and logs it
func (l *LogNotifier) SendNotification(request alerts.AlertRequest) error {
	msg, err := l.renderer.Render(request)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if msg.Urgency == UrgencyCritical {
		level = slog.LevelWarn
	}
	l.logger.Log(context.Background(), level, msg.Summary,
		"item", request.Item.ID,
		"due", request.Occurrence.Format(time.RFC3339),
		"offset", request.Offset.String(),
		"late", request.Late,
		"body", msg.Body,
	)
	return nil
}

// NotificationManager coordinates multiple notifiers
type NotificationManager struct {
	notifiers []Notifier
	closers   []func() error
}

// NewNotificationManager creates a manager for the configured backend. The
// dbus backend falls back to logging when no session bus is reachable.
func NewNotificationManager(cfg config.NotificationConfig) (*NotificationManager, error) {
	renderer, err := NewRenderer(cfg)
	if err != nil {
		return nil, err
	}

	manager := &NotificationManager{}
	switch strings.ToLower(cfg.Backend) {
	case "log":
		manager.AddNotifier(NewLogNotifier(renderer, slog.Default()))
	default:
		dbusNotifier, err := NewDBusNotifier(renderer, cfg.AppName)
		if err != nil {
			slog.Warn("D-Bus notifier unavailable, falling back to log", "error", err)
			manager.AddNotifier(NewLogNotifier(renderer, slog.Default()))
			break
		}
		manager.AddNotifier(dbusNotifier)
		manager.closers = append(manager.closers, dbusNotifier.Close)
	}
	return manager, nil
}

// AddNotifier adds a notifier to the manager
func (nm *NotificationManager) AddNotifier(notifier Notifier) {
	nm.notifiers = append(nm.notifiers, notifier)
}

// SendNotification sends a notification using all configured notifiers
func (nm *NotificationManager) SendNotification(request alerts.AlertRequest) error {
	var lastError error

	for _, notifier := range nm.notifiers {
		if err := notifier.SendNotification(request); err != nil {
			lastError = err
			slog.Error("notification failed", "item", request.Item.ID, "error", err)
		}
	}

	return lastError
}

// Close releases notifier resources
func (nm *NotificationManager) Close() error {
	var lastError error
	for _, c := range nm.closers {
		if err := c(); err != nil {
			lastError = err
		}
	}
	return lastError
}

// TemplatesDir is where named templates are looked up first
func TemplatesDir() string {
	return filepath.Join(xdg.ConfigHome, "taskcycle", "templates")
}

// CreateDefaultTemplates writes sample templates to templatesDir, leaving
// existing files alone
func CreateDefaultTemplates(templatesDir string) error {
	if err := os.MkdirAll(templatesDir, 0755); err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}

	templates := map[string]string{
		"default.tpl": defaultTemplateText,
		"minimal.tpl": `{{.Title}} at {{.Time}}`,
		"detailed.tpl": `{{.Title}} [{{.Kind}}, {{.Priority}}]
{{.Date}} {{.Time}}{{if .Recurrence}}, {{.Recurrence}}{{end}}{{if .Steps}}
{{.OpenSteps}}/{{.Steps}} steps open{{end}}{{if .Late}}
(missed reminder){{end}}`,
	}

	for filename, content := range templates {
		templatePath := filepath.Join(templatesDir, filename)
		if _, err := os.Stat(templatePath); os.IsNotExist(err) {
			if err := os.WriteFile(templatePath, []byte(content), 0644); err != nil {
				return fmt.Errorf("failed to create template %s: %w", filename, err)
			}
		}
	}

	return nil
}
