package session

// Credential is a durable account record. JSON field names follow the
// persisted storage contract, which uses camelCase keys. The password is
// stored verbatim; this service keeps parity with the storage layout it
// inherited rather than hashing (see DESIGN.md).
type Credential struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Age       string `json:"age"`
	CreatedAt string `json:"createdAt"`
}

// Session is the public subset of the authenticated credential. It is
// what gets persisted under the currentUser key and returned to clients.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Status reports where the store is in its authentication lifecycle.
// StatusUnknown is only occupied before Initialize completes, so callers
// can tell "still checking" apart from "confirmed logged out".
type Status int

const (
	StatusUnknown Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}
