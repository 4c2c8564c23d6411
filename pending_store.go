package goIdentity

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingRecordVersionV1 = 1

var (
	errPendingNotFound         = errors.New("pending signup not found")
	errPendingExpired          = errors.New("pending signup code expired")
	errPendingCodeMismatch     = errors.New("pending signup code mismatch")
	errPendingRedisUnavailable = errors.New("pending signup redis unavailable")
)

// pendingSignupRecord is an unconfirmed registration awaiting code
// verification. Username, Email, and Mobile are each optional, but at
// least one is always present. CredentialHash is already argon2id-hashed;
// the plaintext never reaches the store.
type pendingSignupRecord struct {
	ID             string
	Name           string
	Username       string
	Email          string
	Mobile         string
	Gender         string
	CredentialHash string
	DateOfBirth    int64
	CodeHash       [32]byte
	ExpiresAt      int64
}

// pendingSignupStore keeps pending signups in Redis. The full record is
// written under one key per identifier it carries, all sharing the same
// TTL, so lookup by any of username/email/mobile is a single GET and
// expiry needs no background sweeper.
type pendingSignupStore struct {
	redis  *redis.Client
	prefix string
}

func newPendingSignupStore(redisClient *redis.Client, cfg PendingConfig) *pendingSignupStore {
	return &pendingSignupStore{
		redis:  redisClient,
		prefix: cfg.RedisPrefix,
	}
}

func (s *pendingSignupStore) key(kind IdentifierKind, value string) string {
	switch kind {
	case KindEmail:
		return s.prefix + ":e:" + value
	case KindMobile:
		return s.prefix + ":m:" + value
	default:
		return s.prefix + ":u:" + value
	}
}

func (s *pendingSignupStore) recordKeys(record *pendingSignupRecord) []string {
	keys := make([]string, 0, 3)
	if record.Username != "" {
		keys = append(keys, s.key(KindUsername, record.Username))
	}
	if record.Email != "" {
		keys = append(keys, s.key(KindEmail, record.Email))
	}
	if record.Mobile != "" {
		keys = append(keys, s.key(KindMobile, record.Mobile))
	}
	return keys
}

// Save persists a record under every identifier key it carries. Any
// previous record reachable through those identifiers must be superseded
// by the caller first.
func (s *pendingSignupStore) Save(ctx context.Context, record *pendingSignupRecord, ttl time.Duration) error {
	encoded, err := encodePendingRecord(record)
	if err != nil {
		return err
	}

	keys := s.recordKeys(record)
	if len(keys) == 0 {
		return errors.New("pending signup record carries no identifier")
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, key, encoded, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errPendingRedisUnavailable, err)
	}

	return nil
}

// Find resolves a pending record by any of its identifiers.
func (s *pendingSignupStore) Find(ctx context.Context, id Identifier) (*pendingSignupRecord, error) {
	data, err := s.redis.Get(ctx, s.key(id.Kind, id.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errPendingNotFound
		}
		return nil, fmt.Errorf("%w: %v", errPendingRedisUnavailable, err)
	}

	return decodePendingRecord(data)
}

// Delete removes a record under all of its identifier keys.
func (s *pendingSignupStore) Delete(ctx context.Context, record *pendingSignupRecord) error {
	keys := s.recordKeys(record)
	if len(keys) == 0 {
		return nil
	}

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", errPendingRedisUnavailable, err)
	}
	return nil
}

// Supersede drops any live record reachable through the identifier. A
// fresh signup for the same identity replaces the old attempt entirely.
func (s *pendingSignupStore) Supersede(ctx context.Context, id Identifier) error {
	record, err := s.Find(ctx, id)
	if err != nil {
		if errors.Is(err, errPendingNotFound) {
			return nil
		}
		return err
	}
	return s.Delete(ctx, record)
}

// Consume validates a provided code hash against the record reachable
// through id and deletes the record on match, atomically under WATCH.
// A mismatch leaves the record in place so the caller may retry until
// the key's TTL collects it; expiry deletes it eagerly.
func (s *pendingSignupStore) Consume(ctx context.Context, id Identifier, providedHash [32]byte) (*pendingSignupRecord, error) {
	const maxRetries = 4
	watchKey := s.key(id.Kind, id.Value)

	for i := 0; i < maxRetries; i++ {
		var matched *pendingSignupRecord

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, watchKey).Bytes()
			if err != nil {
				return err
			}

			record, err := decodePendingRecord(data)
			if err != nil {
				return err
			}

			keys := s.recordKeys(record)

			if time.Now().Unix() > record.ExpiresAt {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, keys...)
					return nil
				})
				if err != nil {
					return err
				}
				return errPendingExpired
			}

			if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
				return errPendingCodeMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, keys...)
				return nil
			})
			if err != nil {
				return err
			}

			matched = record
			return nil
		}, watchKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return nil, errPendingNotFound
			case errors.Is(err, errPendingExpired), errors.Is(err, errPendingCodeMismatch):
				return nil, err
			default:
				return nil, fmt.Errorf("%w: %v", errPendingRedisUnavailable, err)
			}
		}

		return matched, nil
	}

	return nil, errPendingNotFound
}

func encodePendingRecord(record *pendingSignupRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(pendingRecordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.DateOfBirth); err != nil {
		return nil, err
	}

	for _, field := range []string{
		record.ID,
		record.Name,
		record.Username,
		record.Email,
		record.Mobile,
		record.Gender,
		record.CredentialHash,
	} {
		if err := writePendingString(&buf, field); err != nil {
			return nil, err
		}
	}

	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodePendingRecord(data []byte) (*pendingSignupRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != pendingRecordVersionV1 {
		return nil, errors.New("invalid pending record version")
	}

	record := &pendingSignupRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.DateOfBirth); err != nil {
		return nil, err
	}

	for _, field := range []*string{
		&record.ID,
		&record.Name,
		&record.Username,
		&record.Email,
		&record.Mobile,
		&record.Gender,
		&record.CredentialHash,
	} {
		value, err := readPendingString(reader)
		if err != nil {
			return nil, err
		}
		*field = value
	}

	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}

func writePendingString(buf *bytes.Buffer, value string) error {
	if len(value) > 65535 {
		return errors.New("pending record field too long")
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(value))); err != nil {
		return err
	}
	buf.WriteString(value)
	return nil
}

func readPendingString(reader *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", err
	}

	value := make([]byte, length)
	if _, err := io.ReadFull(reader, value); err != nil {
		return "", err
	}
	return string(value), nil
}
