package wire

// TrackKind identifies a media track category in control messages.
type TrackKind string

const (
	// TrackAudio is a voice track.
	TrackAudio TrackKind = "audio"
	// TrackVideo is a video or screen-share track.
	TrackVideo TrackKind = "video"
)

// Message type discriminators carried in the JSON "type" field.
const (
	TypeAuth               = "auth"
	TypeSubscribe          = "subscribe"
	TypeUnsubscribe        = "unsubscribe"
	TypeKeyAnnounce        = "key_announce"
	TypeKeyDeliver         = "key_deliver"
	TypeBandwidthFeedback  = "bandwidth_feedback"
	TypePing               = "ping"
	TypePong               = "pong"
	TypeFileTransferInit   = "file_transfer_init"
	TypeFileTransferAccept = "file_transfer_accept"
	TypeFileTransferReject = "file_transfer_reject"
	TypeFileDownloadReq    = "file_download_request"
	TypeFileDownloadAccept = "file_download_accept"
	TypeFileTransferProg   = "file_transfer_progress"
	TypeFileTransferDone   = "file_transfer_done"
	TypeFileTransferError  = "file_transfer_error"
	TypeFileTransferCancel = "file_transfer_cancel"
)

// ControlMessage is the closed set of messages exchanged on control and file
// transfer streams. Every variant is a struct in this package; unknown
// discriminators fail decoding with ErrUnknownMessageType.
type ControlMessage interface {
	messageType() string
}

// Auth authenticates a connection with a session token. It must be the first
// message on the first bidirectional stream.
type Auth struct {
	Token string `json:"token"`
}

// Subscribe requests a user's media track.
type Subscribe struct {
	UserID int64     `json:"user_id"`
	Track  TrackKind `json:"track_type"`
}

// Unsubscribe stops receiving a user's media track.
type Unsubscribe struct {
	UserID int64     `json:"user_id"`
	Track  TrackKind `json:"track_type"`
}

// RecipientKey is one per-recipient encrypted sender key in a KeyAnnounce.
type RecipientKey struct {
	UserID     int64  `json:"user_id"`
	Ciphertext []byte `json:"ciphertext"`
}

// KeyAnnounce announces a new media encryption key epoch. The key itself is
// end-to-end encrypted per recipient; the server only relays the blobs.
type KeyAnnounce struct {
	Epoch         uint8          `json:"epoch"`
	EncryptedKeys []RecipientKey `json:"encrypted_keys"`
}

// KeyDeliver delivers an encrypted sender key to one subscriber.
type KeyDeliver struct {
	SenderUserID int64  `json:"sender_user_id"`
	Epoch        uint8  `json:"epoch"`
	Ciphertext   []byte `json:"ciphertext"`
}

// BandwidthFeedback reports available bandwidth from the server or peer.
type BandwidthFeedback struct {
	AvailableKbps uint32 `json:"available_kbps"`
}

// Ping is a keepalive probe.
type Ping struct{}

// Pong answers a Ping. It also acknowledges a successful Auth.
type Pong struct{}

// FileTransferInit opens an upload on a dedicated bidirectional stream.
// ResumeOffset, when set, asks the server to continue a previous attempt of
// the same transfer_id from that byte offset.
type FileTransferInit struct {
	TransferID   string  `json:"transfer_id"`
	UploadToken  string  `json:"upload_token"`
	ResumeOffset *uint64 `json:"resume_offset,omitempty"`
}

// FileTransferAccept confirms an upload, carrying the negotiated chunk size
// and the offset the server will actually resume from.
type FileTransferAccept struct {
	TransferID string `json:"transfer_id"`
	ChunkSize  uint32 `json:"chunk_size"`
	Offset     uint64 `json:"offset"`
}

// FileTransferReject refuses an upload before any data is accepted.
type FileTransferReject struct {
	TransferID string `json:"transfer_id"`
	Reason     string `json:"reason"`
}

// FileDownloadRequest asks for an attachment's bytes, optionally a range.
type FileDownloadRequest struct {
	AttachmentID string  `json:"attachment_id"`
	AuthToken    string  `json:"auth_token"`
	RangeStart   *uint64 `json:"range_start,omitempty"`
	RangeEnd     *uint64 `json:"range_end,omitempty"`
}

// FileDownloadAccept confirms a download and describes what follows as Data
// frames. Offset is clamped to the file's actual bounds.
type FileDownloadAccept struct {
	AttachmentID string `json:"attachment_id"`
	Filename     string `json:"filename"`
	Size         uint64 `json:"size"`
	ContentType  string `json:"content_type"`
	Offset       uint64 `json:"offset"`
}

// FileTransferProgress is a push-based ack the server sends roughly every
// megabyte of newly received data.
type FileTransferProgress struct {
	TransferID    string `json:"transfer_id"`
	BytesReceived uint64 `json:"bytes_received"`
}

// FileTransferDone signals successful completion of a transfer.
type FileTransferDone struct {
	TransferID   string `json:"transfer_id"`
	AttachmentID string `json:"attachment_id,omitempty"`
	URL          string `json:"url,omitempty"`
}

// FileTransferError reports a fatal transfer failure to the peer.
type FileTransferError struct {
	TransferID string `json:"transfer_id"`
	Code       uint32 `json:"code"`
	Message    string `json:"message"`
}

// FileTransferCancel aborts a transfer; either side may send it.
type FileTransferCancel struct {
	TransferID string `json:"transfer_id"`
}

func (Auth) messageType() string                 { return TypeAuth }
func (Subscribe) messageType() string            { return TypeSubscribe }
func (Unsubscribe) messageType() string          { return TypeUnsubscribe }
func (KeyAnnounce) messageType() string          { return TypeKeyAnnounce }
func (KeyDeliver) messageType() string           { return TypeKeyDeliver }
func (BandwidthFeedback) messageType() string    { return TypeBandwidthFeedback }
func (Ping) messageType() string                 { return TypePing }
func (Pong) messageType() string                 { return TypePong }
func (FileTransferInit) messageType() string     { return TypeFileTransferInit }
func (FileTransferAccept) messageType() string   { return TypeFileTransferAccept }
func (FileTransferReject) messageType() string   { return TypeFileTransferReject }
func (FileDownloadRequest) messageType() string  { return TypeFileDownloadReq }
func (FileDownloadAccept) messageType() string   { return TypeFileDownloadAccept }
func (FileTransferProgress) messageType() string { return TypeFileTransferProg }
func (FileTransferDone) messageType() string     { return TypeFileTransferDone }
func (FileTransferError) messageType() string    { return TypeFileTransferError }
func (FileTransferCancel) messageType() string   { return TypeFileTransferCancel }
