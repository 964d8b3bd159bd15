package chat

import "sync"

// BottomThreshold is how close to the bottom, in pixels, still counts as
// reading the latest message.
const BottomThreshold = 20

// Viewport remembers whether the reader was at the bottom of the log the last
// time the browser reported its scroll position.
type Viewport struct {
	mu       sync.Mutex
	atBottom bool
}

func NewViewport() *Viewport {
	return &Viewport{atBottom: true}
}

// Observe records a scroll position report.
func (v *Viewport) Observe(scrollTop, clientHeight, scrollHeight float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.atBottom = scrollTop+clientHeight >= scrollHeight-BottomThreshold
}

// OnLogChange reports whether the view should follow the new message, and
// whether the "scroll to bottom" button should be shown instead.
func (v *Viewport) OnLogChange() (autoScroll, showJump bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.atBottom, !v.atBottom
}

// JumpToBottom is the "scroll to bottom" button.
func (v *Viewport) JumpToBottom() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.atBottom = true
}

// IsSendKey reports whether a key press submits the message. Shift+Enter
// inserts a newline instead.
func IsSendKey(key string, shift bool) bool {
	return key == "Enter" && !shift
}
