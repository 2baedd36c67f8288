package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jgivc/fileviewer/internal/common"
	"github.com/jgivc/fileviewer/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix  = "fv"
	KeySession = "s" // HASH. fv:s:<id> field: value, see fields below
	KeyFiles   = "f" // LIST. fv:f:<id> ordered file set

	KeySeparator = ":"

	fieldDir         = "dir"
	fieldRoot        = "root"
	fieldSource      = "source"
	fieldNoticeLevel = "notice_level"
	fieldNoticeText  = "notice_text"
	fieldCreatedAt   = "created_at"
)

type redisRepository struct {
	cl  *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewRedisRepository(cl *redis.Client, ttl time.Duration, log *slog.Logger) *redisRepository {
	return &redisRepository{
		cl:  cl,
		ttl: ttl,
		log: log.With(slog.String("item", "RedisSessionRepository")),
	}
}

func (r *redisRepository) Get(ctx context.Context, id string) (*entity.Session, error) {
	sessionKey, filesKey := getKey(KeySession, id), getKey(KeyFiles, id)

	pipe := r.cl.Pipeline()
	fieldsCmd := pipe.HGetAll(ctx, sessionKey)
	filesCmd := pipe.LRange(ctx, filesKey, 0, -1)
	pipe.Expire(ctx, sessionKey, r.ttl)
	pipe.Expire(ctx, filesKey, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cannot get session %s: %w", id, err)
	}

	fields, err := fieldsCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get session %s: %w", id, err)
	}

	if len(fields) < 1 {
		return nil, common.ErrSessionNotFoundError
	}

	files, err := filesCmd.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cannot get session %s files: %w", id, err)
	}

	return decode(id, fields, files), nil
}

// Save replaces the stored session, the file set included.
func (r *redisRepository) Save(ctx context.Context, s *entity.Session) error {
	sessionKey, filesKey := getKey(KeySession, s.ID), getKey(KeyFiles, s.ID)

	_, err := r.cl.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey, filesKey)
		pipe.HSet(ctx, sessionKey, encode(s))
		if len(s.Files) > 0 {
			files := make([]any, len(s.Files))
			for i, file := range s.Files {
				files[i] = file
			}

			pipe.RPush(ctx, filesKey, files...)
			pipe.Expire(ctx, filesKey, r.ttl)
		}
		pipe.Expire(ctx, sessionKey, r.ttl)

		return nil
	})
	if err != nil {
		r.log.Error("Cannot save session", slog.String("id", s.ID), slog.Any("error", err))

		return fmt.Errorf("cannot save session %s: %w", s.ID, err)
	}

	return nil
}

func (r *redisRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.cl.Del(ctx, getKey(KeySession, id), getKey(KeyFiles, id)).Result(); err != nil {
		return fmt.Errorf("cannot delete session %s: %w", id, err)
	}

	return nil
}

func (r *redisRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.cl.Exists(ctx, getKey(KeySession, id)).Result()
	if err != nil {
		return false, fmt.Errorf("cannot check session %s: %w", id, err)
	}

	return n > 0, nil
}

func encode(s *entity.Session) map[string]any {
	fields := map[string]any{
		fieldDir:       s.Dir,
		fieldRoot:      s.Root,
		fieldSource:    s.Source,
		fieldCreatedAt: s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	if s.Notice != nil {
		fields[fieldNoticeLevel] = s.Notice.Level
		fields[fieldNoticeText] = s.Notice.Text
	}

	return fields
}

func decode(id string, fields map[string]string, files []string) *entity.Session {
	s := &entity.Session{
		ID:     id,
		Dir:    fields[fieldDir],
		Root:   fields[fieldRoot],
		Source: fields[fieldSource],
		Files:  files,
	}

	if createdAt, err := time.Parse(time.RFC3339Nano, fields[fieldCreatedAt]); err == nil {
		s.CreatedAt = createdAt
	}

	if level := fields[fieldNoticeLevel]; level != "" {
		s.Notice = &entity.Notice{
			Level: level,
			Text:  fields[fieldNoticeText],
		}
	}

	return s
}

func getKey(keys ...string) string {
	return strings.Join(append([]string{KeyPrefix}, keys...), KeySeparator)
}
