package tui

import "sync"

// Layout is the window layout shared by the chat, sidebar and about views.
// It is created once by the caller and lives as long as the program.
type Layout struct {
	mu          sync.Mutex
	sidebarOpen bool
}

// NewLayout returns a Layout with the sidebar initially open or closed.
func NewLayout(sidebarOpen bool) *Layout {
	return &Layout{sidebarOpen: sidebarOpen}
}

// SidebarOpen reports whether the sidebar is shown.
func (l *Layout) SidebarOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sidebarOpen
}

// ToggleSidebar flips the sidebar state and returns the new one.
func (l *Layout) ToggleSidebar() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sidebarOpen = !l.sidebarOpen
	return l.sidebarOpen
}
