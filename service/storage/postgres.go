package storage

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chatmodel "github.com/ishaan-vashist/chatcraft-ai/module/chat/model"
	"github.com/ishaan-vashist/chatcraft-ai/tools/crypto"
	"github.com/ishaan-vashist/chatcraft-ai/tools/errs"
	"github.com/ishaan-vashist/chatcraft-ai/tools/ids"
)

// Store is the relational persistence collaborator: users, contacts,
// conversations, participants and messages. Message bodies are encrypted
// with AES-GCM before they touch a row and decrypted on the way out; the
// rest of the system only ever sees plaintext.
type Store struct {
	pool   *pgxpool.Pool
	cipher *crypto.Cipher
}

func NewStore(ctx context.Context, dsn string, cipher *crypto.Cipher) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.WrapMsg(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.WrapMsg(err, "ping postgres")
	}
	return &Store{pool: pool, cipher: cipher}, nil
}

func (s *Store) Close() { s.pool.Close() }

// EnsureSchema creates the tables on first boot. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS contacts (
	owner_id   TEXT NOT NULL REFERENCES users(id),
	user_id    TEXT NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (owner_id, user_id)
);
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	creator_id TEXT NOT NULL,
	peer_id    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS conversation_participants (
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	user_id         TEXT NOT NULL,
	PRIMARY KEY (conversation_id, user_id)
);
CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	sender_id       TEXT NOT NULL,
	type            TEXT NOT NULL DEFAULT 'text',
	content_enc     TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages (conversation_id, created_at);
`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return errs.WrapMsg(err, "ensure schema")
	}
	return nil
}

// ===== users =====

func (s *Store) CreateUser(ctx context.Context, email, displayName, passwordHash string) (*chatmodel.User, error) {
	u := &chatmodel.User{
		ID:           ids.GenerateString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Email, u.DisplayName, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg(err.Error())
	}
	return u, nil
}

// EnsureUser inserts a fixed-id account if it does not exist yet; used to
// provision the built-in assistant user at boot. The password hash is empty
// so the account can never log in.
func (s *Store) EnsureUser(ctx context.Context, id, email, displayName string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, display_name, password_hash) VALUES ($1,$2,$3,'') ON CONFLICT (id) DO NOTHING`,
		id, strings.ToLower(email), displayName)
	if err != nil {
		return errs.ErrPersistence.WrapMsg(err.Error())
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*chatmodel.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, email, display_name, password_hash, created_at FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))))
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*chatmodel.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT id, email, display_name, password_hash, created_at FROM users WHERE id = $1`, id))
}

func (s *Store) scanUser(row pgx.Row) (*chatmodel.User, error) {
	var u chatmodel.User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.CreatedAt); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrValidation.WrapMsg("user not found")
		}
		return nil, errs.ErrPersistence.WrapMsg(err.Error())
	}
	return &u, nil
}

// ===== contacts =====

func (s *Store) AddContact(ctx context.Context, ownerID, userID string) error {
	if ownerID == userID {
		return errs.ErrValidation.WrapMsg("cannot add yourself as a contact")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contacts (owner_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
		ownerID, userID)
	if err != nil {
		return errs.ErrPersistence.WrapMsg(err.Error())
	}
	return nil
}

func (s *Store) ListContacts(ctx context.Context, ownerID string) ([]chatmodel.Contact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.owner_id, c.user_id, u.display_name, c.created_at
		   FROM contacts c JOIN users u ON u.id = c.user_id
		  WHERE c.owner_id = $1 ORDER BY u.display_name`, ownerID)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg(err.Error())
	}
	defer rows.Close()

	var out []chatmodel.Contact
	for rows.Next() {
		var c chatmodel.Contact
		if err := rows.Scan(&c.OwnerID, &c.UserID, &c.DisplayName, &c.CreatedAt); err != nil {
			return nil, errs.ErrPersistence.WrapMsg(err.Error())
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ===== conversations =====

// CreateConversation creates a 1:1 conversation plus its two participant
// rows in one transaction. Participant rows are what message authorization
// checks against.
func (s *Store) CreateConversation(ctx context.Context, creatorID, peerID string) (*chatmodel.Conversation, error) {
	if peerID == "" || peerID == creatorID {
		return nil, errs.ErrValidation.WrapMsg("invalid peer")
	}
	conv := &chatmodel.Conversation{
		ID:        ids.GenerateString(),
		CreatorID: creatorID,
		PeerID:    peerID,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg(err.Error())
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO conversations (id, creator_id, peer_id, created_at) VALUES ($1,$2,$3,$4)`,
		conv.ID, conv.CreatorID, conv.PeerID, conv.CreatedAt); err != nil {
		return nil, errs.ErrPersistence.WrapMsg(err.Error())
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1,$2), ($1,$3)`,
		conv.ID, conv.CreatorID, conv.PeerID); err != nil {
		return nil, errs.ErrPersistence.WrapMsg(err.Error())
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, errs.ErrPersistence.WrapMsg(err.Error())
	}
	return conv, nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]chatmodel.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT v.id, v.creator_id, v.peer_id, v.created_at
		   FROM conversations v
		   JOIN conversation_participants p ON p.conversation_id = v.id
		  WHERE p.user_id = $1 ORDER BY v.created_at DESC`, userID)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg(err.Error())
	}
	defer rows.Close()

	var out []chatmodel.Conversation
	for rows.Next() {
		var v chatmodel.Conversation
		if err := rows.Scan(&v.ID, &v.CreatorID, &v.PeerID, &v.CreatedAt); err != nil {
			return nil, errs.ErrPersistence.WrapMsg(err.Error())
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// IsParticipant is the authorization primitive for posting and reading.
func (s *Store) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID).Scan(&one)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errs.ErrPersistence.WrapMsg(err.Error())
	}
	return true, nil
}

// ===== messages =====

// CreateMessage validates, authorizes and persists one message. This is the
// single authorization point for posting, shared by the REST and socket
// paths.
func (s *Store) CreateMessage(ctx context.Context, conversationID string, sender chatmodel.Identity, content string) (*chatmodel.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errs.ErrValidation.WrapMsg("empty message content")
	}
	ok, err := s.IsParticipant(ctx, conversationID, sender.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotParticipant.WrapMsg("user " + sender.ID)
	}

	enc, err := s.cipher.Encrypt(content)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg("encrypt: " + err.Error())
	}

	m := &chatmodel.Message{
		ID:             ids.GenerateString(),
		ConversationID: conversationID,
		SenderID:       sender.ID,
		Type:           chatmodel.MessageTypeText,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, type, content_enc, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		m.ID, m.ConversationID, m.SenderID, m.Type, enc, m.CreatedAt); err != nil {
		return nil, errs.ErrPersistence.WrapMsg(err.Error())
	}
	return m, nil
}

// ListMessages returns the newest messages of a conversation, oldest first,
// decrypted. The caller must be a participant.
func (s *Store) ListMessages(ctx context.Context, conversationID, userID string, limit int) ([]chatmodel.Message, error) {
	ok, err := s.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.ErrNotParticipant.WrapMsg("user " + userID)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, sender_id, type, content_enc, created_at
		   FROM (SELECT * FROM messages WHERE conversation_id = $1 ORDER BY created_at DESC LIMIT $2) t
		  ORDER BY created_at ASC`, conversationID, limit)
	if err != nil {
		return nil, errs.ErrPersistence.WrapMsg(err.Error())
	}
	defer rows.Close()

	var out []chatmodel.Message
	for rows.Next() {
		var m chatmodel.Message
		var enc string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Type, &enc, &m.CreatedAt); err != nil {
			return nil, errs.ErrPersistence.WrapMsg(err.Error())
		}
		plain, err := s.cipher.Decrypt(enc)
		if err != nil {
			return nil, errs.ErrPersistence.WrapMsg("decrypt: " + err.Error())
		}
		m.Content = plain
		out = append(out, m)
	}
	return out, rows.Err()
}
