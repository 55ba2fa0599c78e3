// Package toast provides feedback notifications for Pigment pages.
//
// Toasts are not rendered by the component that raises them. A raising
// component emits a bubbling custom event through its Instance; glue
// near the document root listens for the event and decides placement,
// styling, and duration. That keeps feedback policy in one place while
// any component can report outcomes.
//
// # Listening
//
// Page glue registers for the event once, on the shared bus:
//
//	bus.Handle(toast.EventName, "body", func(ev *dom.Event, _ *dom.Element) {
//	    detail := ev.Detail.(map[string]any)
//	    // render detail["level"], detail["message"] somewhere visible
//	})
//
// # Raising
//
// Inside component handlers:
//
//	result := colors.AddColor(picked)
//	if !result.Success {
//	    toast.Warning(c, "That color is already saved")
//	}
package toast
