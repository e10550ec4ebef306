package render

// Notice classifies a notification
type Notice int

const (
	// NoticeSuccess is shown for completed translations and saved settings
	NoticeSuccess Notice = iota
	// NoticeCancelled is shown when a translation is aborted
	NoticeCancelled
	// NoticeError is shown for problems that need the user's attention
	NoticeError
)

// String returns the notice name
func (n Notice) String() string {
	switch n {
	case NoticeSuccess:
		return "success"
	case NoticeCancelled:
		return "cancelled"
	case NoticeError:
		return "error"
	default:
		return "unknown"
	}
}

// View is the output area of a translator front end
type View interface {
	// Show replaces the output with markup, the rendering of the whole
	// text received so far
	Show(markup string)

	// ShowError renders an error inline in the output area
	ShowError(message string)

	// Notify shows a transient notification
	Notify(kind Notice, message string)

	// SetBusy switches the front end between the translating and idle
	// affordances
	SetBusy(busy bool)
}
