package domain

// Viewer is the current end user of a session. A zero ID means the viewer
// is unauthenticated: the view stays readable, likes and submissions are
// refused by the command layer.
type Viewer struct {
	ID        string
	Name      string
	AvatarURL string
}

func (v Viewer) Authenticated() bool { return v.ID != "" }
