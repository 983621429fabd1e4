package errs

// Wire kinds: the `code` field of the socket `error` event. Stable strings,
// clients switch on them.
const (
	KindAuth           = "AuthError"
	KindProtocol       = "ProtocolError"
	KindNotParticipant = "NotParticipant"
	KindValidation     = "ValidationFailure"
	KindPersistence    = "PersistenceFailure"
	KindDelivery       = "DeliveryFailure"
	KindInternal       = "InternalError"
)

const (
	codeInternal       = 500
	codeAuth           = 1101
	codeProtocol       = 1201
	codeNotParticipant = 1301
	codeValidation     = 1302
	codePersistence    = 1303
	codeDelivery       = 1401
)

var (
	// ErrAuth rejects a connection or request outright; no session is created.
	ErrAuth = NewCodeError(codeAuth, KindAuth, "authentication failed")
	// ErrProtocol covers malformed or unknown event shapes. Reported to the
	// offending connection only; the connection stays open.
	ErrProtocol = NewCodeError(codeProtocol, KindProtocol, "malformed or unknown event")
	// ErrNotParticipant means the sender is not a member of the conversation
	// at the persistence layer.
	ErrNotParticipant = NewCodeError(codeNotParticipant, KindNotParticipant, "not a conversation participant")
	ErrValidation     = NewCodeError(codeValidation, KindValidation, "invalid request")
	ErrPersistence    = NewCodeError(codePersistence, KindPersistence, "storage failure")
	// ErrDelivery is logged server-side when a broadcast write fails; it is
	// never sent to the client that triggered the broadcast.
	ErrDelivery = NewCodeError(codeDelivery, KindDelivery, "delivery failed")
	ErrInternal = NewCodeError(codeInternal, KindInternal, "internal server error")
)
