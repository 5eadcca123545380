package wire

// DBMsgKind discriminates the variants of DBMsg, mirroring the tagged
// union the page database service's protocol carries over the wire.
type DBMsgKind byte

const (
	DBMsgGetPage DBMsgKind = iota
	DBMsgGetHeaders
	DBMsgGetSubPages
	DBMsgGetMacro
	DBMsgGetString
	DBMsgGetImage
	DBMsgPage
	DBMsgHeaders
	DBMsgSubPages
	DBMsgMacro
	DBMsgString
	DBMsgImage
)

// SubPageInfo is one entry of a DBMsgSubPages reply. NavLabel, NavStop,
// Stamp and Prio are only meaningful when the request set the matching
// Get* flag.
type SubPageInfo struct {
	Name     string
	NavLabel string
	NavStop  bool
	Stamp    uint64
	Prio     uint64
}

// DBMsg is the single wire envelope for every request and reply exchanged
// with the page database service. Only the fields relevant to Kind are
// populated; the rest are left at their zero value. Gob omits zero-valued
// fields from the wire, so this stays compact despite the width of the
// struct.
type DBMsg struct {
	Kind DBMsgKind

	// GetPage / Page. GetSubPages reuses the GetNavLabel, GetNavStop,
	// GetStamp and GetPrio flags to select which of the reply's
	// per-subpage fields get filled.
	Path        string
	GetTitle    bool
	GetData     bool
	GetStamp    bool
	GetPrio     bool
	GetRedirect bool
	GetNavStop  bool
	GetNavLabel bool
	Title       *string
	Data        []byte
	Stamp       *uint64
	Prio        *uint64
	Redirect    *string
	NavStop     *bool
	NavLabel    *string

	// GetMacro
	Parent string
	Name   string

	// GetString / GetImage share Name above.

	// SubPages
	SubPages []SubPageInfo
}
