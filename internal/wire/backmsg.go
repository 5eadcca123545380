package wire

// BackMsgKind discriminates the variants of BackMsg carried between the
// CGI-facing frontend and the backend render service.
type BackMsgKind byte

const (
	BackMsgGet BackMsgKind = iota
	BackMsgPost
	BackMsgReply
)

// BackMsg is the single wire envelope for the backend render protocol.
type BackMsg struct {
	Kind BackMsgKind

	// Get / Post
	Path        string
	QueryString string
	PostData    []byte
	ContentType string
	Https       bool
	Host        string

	// Reply
	Status           uint32
	Body             []byte
	Mime             string
	ExtraHTTPHeaders map[string]string
	ExtraHTMLHeaders []string
}

// PostMsgKind discriminates the variants of PostMsg exchanged with the
// external POST-form-handling collaborator service.
type PostMsgKind byte

const (
	PostMsgSubmit PostMsgKind = iota
	PostMsgReply
)

// PostMsg is the wire envelope exchanged with the external POST handler,
// mirroring cms-socket-post's Msg::RunPostHandler / Msg::PostHandlerResult
// shape: the path plus pre-parsed query and multipart form fields go out,
// a rendered body and MIME type come back.
type PostMsg struct {
	Kind PostMsgKind

	// Submit
	Path       string
	Query      map[string][]byte
	FormFields map[string][]byte

	// Reply
	Body []byte
	Mime string
}
