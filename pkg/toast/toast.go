package toast

// EventName is the event name dispatched for toasts.
// Page glue should listen for this event near the document root.
const EventName = "pigment:toast"

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Emitter dispatches a named custom event that bubbles from a
// component's element. *component.Instance satisfies it.
type Emitter interface {
	Emit(name string, detail any)
}

// Show raises a toast notification from c.
//
// Listeners receive a custom event with:
//   - event type "pigment:toast"
//   - detail = { level: "success|error|warning|info", message: "..." }
func Show(c Emitter, level Type, message string) {
	c.Emit(EventName, map[string]any{
		"level":   string(level),
		"message": message,
	})
}

// Success shows a success toast.
//
//	toast.Success(c, "Color saved")
func Success(c Emitter, message string) {
	Show(c, TypeSuccess, message)
}

// Error shows an error toast.
//
//	toast.Error(c, "Could not load the palette")
func Error(c Emitter, message string) {
	Show(c, TypeError, message)
}

// Warning shows a warning toast.
//
//	toast.Warning(c, "Palette is full")
func Warning(c Emitter, message string) {
	Show(c, TypeWarning, message)
}

// Info shows an info toast.
//
//	toast.Info(c, "Tip: drag swatches to reorder")
func Info(c Emitter, message string) {
	Show(c, TypeInfo, message)
}

// WithTitle shows a toast with a title and message.
//
//	toast.WithTitle(c, toast.TypeSuccess, "Saved", "Added to your palette.")
func WithTitle(c Emitter, level Type, title, message string) {
	c.Emit(EventName, map[string]any{
		"level":   string(level),
		"title":   title,
		"message": message,
	})
}

// WithAction shows a toast with an action button.
//
//	toast.WithAction(c, toast.TypeInfo, "Color removed", "Undo", "undo-remove")
func WithAction(c Emitter, level Type, message, actionLabel, actionID string) {
	c.Emit(EventName, map[string]any{
		"level":       string(level),
		"message":     message,
		"actionLabel": actionLabel,
		"actionID":    actionID,
	})
}

// Custom shows a toast with custom data.
// Use this for advanced toast configurations.
func Custom(c Emitter, data map[string]any) {
	c.Emit(EventName, data)
}
