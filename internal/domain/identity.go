package domain

// Identity is the verified identity attached to a connection after a
// successful handshake. It is immutable for the connection's lifetime.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL,omitempty"`
}
