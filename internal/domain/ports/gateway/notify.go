package gateway

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notifier surfaces user-visible notices (toasts). Failures that affect a
// user-visible outcome always pass through here, never silently dropped.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}
