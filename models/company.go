package models

// Company is a display-only record mapping a company name to its logo.
type Company struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url,omitempty"`
}

// User is the authenticated platform user.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

// Session is the caller's authentication state, passed explicitly into
// workflows that gate on it. IsLoading mirrors the interstitial state where
// the auth provider has not answered yet; a workflow must not treat a loading
// session as unauthenticated.
type Session struct {
	IsAuthenticated bool  `json:"is_authenticated"`
	IsLoading       bool  `json:"is_loading"`
	User            *User `json:"user,omitempty"`
}

// NavigationTarget tells the dashboard where to route after a search is
// resolved. Company is the resolved lookup key, already chosen over the raw
// input when a stored audit matched.
type NavigationTarget struct {
	Page    string `json:"page"`
	Company string `json:"company"`
	URL     string `json:"url"`
}
